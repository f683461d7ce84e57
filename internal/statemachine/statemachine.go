package statemachine

import (
	"github.com/kausaltech/reina-model/internal/disease"
	"github.com/kausaltech/reina-model/internal/healthcare"
	"github.com/kausaltech/reina-model/internal/metrics"
	"github.com/kausaltech/reina-model/internal/models"
	"github.com/kausaltech/reina-model/internal/population"
	"github.com/kausaltech/reina-model/internal/rng"
)

// Step holds everything a single agent's transition needs; the engine
// builds one per day and reuses it across every agent in the cyclic
// order.
type Step struct {
	Pop     *population.Population
	Disease *disease.System
	Health  *healthcare.System
	Metrics *metrics.System
	Pool    *rng.Pool

	MassGatheringCap *int

	Day int

	Stats *DayStats
}

type DayStats struct {
	ContactsByVenue map[models.Place]int
}

func NewDayStats() *DayStats {
	return &DayStats{ContactsByVenue: make(map[models.Place]int, len(models.Places()))}
}

func (st *Step) Advance(idx models.AgentIdx) *models.Failure {
	person := st.Pop.Get(idx)

	switch person.State {
	case models.Susceptible, models.Recovered, models.Dead:
		return nil
	case models.Incubation:
		return st.advanceIncubation(person)
	case models.Illness:
		return st.advanceIllness(person)
	case models.Hospitalized:
		return st.advanceHospitalized(person)
	case models.InICU:
		return st.advanceICU(person)
	default:
		return models.NewFailure(models.WrongState, idx, "person in unrecognised state")
	}
}

// A person infected earlier the same day sits out the rest of today:
// it neither exposes others nor burns a day of incubation.
func (st *Step) advanceIncubation(person *models.Person) *models.Failure {
	if person.DayOfInfection == st.Day {
		return nil
	}

	if fail := st.exposeOthers(person, false); fail != nil {
		return fail
	}

	person.DaysLeft--
	if person.DaysLeft <= 0 {
		person.State = models.Illness
		person.DayOfIllness = 0

		onsetToRemoved := st.Disease.SampleOnsetToRemoved(person.VariantIdx, person.SymptomSeverity == models.Fatal)
		illness, hospital, icu := st.Disease.SplitDurations(person.VariantIdx, person.SymptomSeverity, onsetToRemoved)
		person.DaysFromOnsetToRemoved = onsetToRemoved
		person.DaysLeft = illness
		person.HospitalDays, person.ICUDays = hospital, icu

		if st.Health.ShouldEnqueueForTesting(person, st.Pool) {
			st.Health.EnqueueForTesting(person)
		}
	}

	return nil
}

func (st *Step) advanceIllness(person *models.Person) *models.Failure {
	if person.DayOfInfection == st.Day {
		return nil
	}

	if fail := st.exposeOthers(person, person.SymptomSeverity != models.Asymptomatic); fail != nil {
		return fail
	}

	person.DayOfIllness++
	person.DaysLeft--
	if person.DaysLeft > 0 {
		return nil
	}

	switch {
	case person.SymptomSeverity == models.Fatal && person.PlaceOfDeath == models.OutsideHospital:
		st.die(person)
	case person.SymptomSeverity == models.Severe || person.SymptomSeverity == models.Critical || person.SymptomSeverity == models.Fatal:
		st.hospitalize(person)
	default:
		st.recover(person)
	}

	return nil
}

func (st *Step) hospitalize(person *models.Person) {
	person.WasDetected = true

	if !st.Health.AdmitToWard(person.Idx) {
		variant, _ := st.Disease.Variant(person.VariantIdx)
		if variant != nil && st.Pool.Bernoulli(variant.PHospitalDeathNoBeds) {
			st.die(person)
		} else {
			st.recover(person)
		}
		return
	}

	person.State = models.Hospitalized
	person.DaysLeft = person.HospitalDays
}

// No exposure happens while hospitalized or in ICU.
func (st *Step) advanceHospitalized(person *models.Person) *models.Failure {
	person.DaysLeft--
	if person.DaysLeft > 0 {
		return nil
	}

	if person.SymptomSeverity == models.Critical || person.SymptomSeverity == models.Fatal {
		st.transferToICU(person)
		return nil
	}

	variant, err := st.Disease.Variant(person.VariantIdx)
	if err != nil {
		return models.NewFailure(models.WrongState, person.Idx, err.Error())
	}

	if !st.Health.DischargeFromWard(person.Idx) {
		return models.NewFailure(models.HospitalAccountingFailure, person.Idx, "ward release with no allocation on record")
	}

	if person.SymptomSeverity == models.Severe && st.Pool.Bernoulli(variant.PHospitalDeath) {
		st.die(person)
		return nil
	}

	st.recover(person)
	return nil
}

func (st *Step) transferToICU(person *models.Person) {
	if !st.Health.AdmitToICU(person.Idx) {
		st.Health.DischargeFromWard(person.Idx)

		variant, _ := st.Disease.Variant(person.VariantIdx)
		if person.SymptomSeverity == models.Fatal || (variant != nil && st.Pool.Bernoulli(variant.PICUDeathNoBeds)) {
			st.die(person)
		} else {
			st.recover(person)
		}
		return
	}

	st.Health.DischargeFromWard(person.Idx)
	person.State = models.InICU
	person.DaysLeft = person.ICUDays
}

func (st *Step) advanceICU(person *models.Person) *models.Failure {
	person.DaysLeft--
	if person.DaysLeft > 0 {
		return nil
	}

	if !st.Health.DischargeFromICU(person.Idx) {
		return models.NewFailure(models.HospitalAccountingFailure, person.Idx, "icu release with no allocation on record")
	}

	if person.SymptomSeverity == models.Fatal {
		st.die(person)
	} else {
		st.recover(person)
	}

	return nil
}

func (st *Step) die(person *models.Person) {
	person.State = models.Dead
	person.IsInfected = false
	st.Metrics.RecordRemoval(person.OtherPeopleInfected)
	st.Pop.ReleaseInfectees(person.Idx)
}

func (st *Step) recover(person *models.Person) {
	person.State = models.Recovered
	person.IsInfected = false
	person.HasImmunity = true
	st.Metrics.RecordRemoval(person.OtherPeopleInfected)
	st.Pop.ReleaseInfectees(person.Idx)
}

// visibleSymptoms selects the factor=0.5/limit=5 regime over
// factor=1.0/limit=100 (incubation and asymptomatic illness).
func (st *Step) exposeOthers(person *models.Person, visibleSymptoms bool) *models.Failure {
	if person.IsQuarantined() {
		return nil
	}

	factor, limit := 1.0, 100
	if visibleSymptoms {
		factor, limit = 0.5, 5
	}

	n, err := st.Pop.DesiredContacts(person.Age, factor, limit, st.MassGatheringCap)
	if err != nil {
		if failure, ok := err.(*models.Failure); ok {
			failure.OffendingID = person.Idx
			return failure
		}
		return models.NewFailure(models.NegativeContacts, person.Idx, err.Error())
	}

	dayOffset := -person.DaysLeft
	if person.State == models.Illness {
		dayOffset = person.DayOfIllness
	}
	asymptomatic := person.SymptomSeverity == models.Asymptomatic
	sourceInfectiousness := st.Disease.Infectiousness(person.VariantIdx, dayOffset, asymptomatic)

	for i := 0; i < n; i++ {
		target, place, maskP, err := st.Pop.SampleContactTarget(person.Age)
		if err != nil {
			failure, _ := err.(*models.Failure)
			if failure != nil {
				failure.OffendingID = person.Idx
				return failure
			}
			return models.NewFailure(models.ContactProbabilityFailure, person.Idx, err.Error())
		}
		if target == models.NoAgent {
			continue
		}

		st.Stats.ContactsByVenue[place]++
		person.OtherPeopleExposedToday++

		if fail := st.attemptInfection(person, target, sourceInfectiousness, maskP); fail != nil {
			return fail
		}
	}

	return nil
}

func (st *Step) attemptInfection(source *models.Person, targetIdx models.AgentIdx, sourceInfectiousness, maskP float64) *models.Failure {
	target := st.Pop.Get(targetIdx)
	if target.IsInfected || target.HasImmunity || target.State == models.Dead {
		return nil
	}

	if !st.Disease.AttemptInfection(source.VariantIdx, target.Age, sourceInfectiousness) {
		return nil
	}

	if maskP > 0 && st.Disease.MaskAverts(source.VariantIdx, maskP) {
		return nil
	}

	if err := Infect(st, target, source.VariantIdx, source.Idx); err != nil {
		return err
	}

	source.OtherPeopleInfected++
	st.Metrics.RecordExposure()

	return nil
}

func Infect(st *Step, target *models.Person, variantIdx int, infector models.AgentIdx) *models.Failure {
	vmod := healthcare.VaccinationModifier(target, st.Day)
	severity, placeOfDeath := st.Disease.SampleSeverity(variantIdx, target.Age, vmod)

	target.State = models.Incubation
	target.IsInfected = true
	target.VariantIdx = variantIdx
	target.SymptomSeverity = severity
	target.PlaceOfDeath = placeOfDeath
	target.DayOfInfection = st.Day
	target.Infector = infector
	target.DaysLeft = st.Disease.SampleIncubationDays(variantIdx)

	tracingActive := st.Health.TracingActive()
	st.Pop.StartTracing(target.Idx, tracingActive)
	if infector != models.NoAgent {
		if err := st.Pop.AddInfectee(infector, target.Idx, tracingActive); err != nil {
			return err.(*models.Failure)
		}
	}

	return nil
}
