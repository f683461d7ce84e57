package statemachine_test

import (
	"io"
	"testing"

	"github.com/kausaltech/reina-model/internal/contactmatrix"
	"github.com/kausaltech/reina-model/internal/disease"
	"github.com/kausaltech/reina-model/internal/healthcare"
	"github.com/kausaltech/reina-model/internal/metrics"
	"github.com/kausaltech/reina-model/internal/models"
	"github.com/kausaltech/reina-model/internal/population"
	"github.com/kausaltech/reina-model/internal/rng"
	"github.com/kausaltech/reina-model/internal/statemachine"

	"github.com/StantStantov/rps/swamp/logging"
	"github.com/StantStantov/rps/swamp/logging/logfmt"
)

type fixture struct {
	pop    *population.Population
	dz     *disease.System
	health *healthcare.System
	met    *metrics.System
	pool   *rng.Pool
}

func newFixture(t *testing.T, nrAges int) *fixture {
	t.Helper()

	logger := logging.NewLogger(io.Discard, logfmt.MainFormat, logging.LevelDebug, 64)
	pool := rng.New(11, logger)

	source := []contactmatrix.SourceRow{
		{ParticipantAge: 0, ContactAge: contactmatrix.AgeRange{Min: 0, Max: nrAges - 1}, Place: models.Home, ContactsPerDay: 4},
	}
	matrix, err := contactmatrix.New(source, logger)
	if err != nil {
		t.Fatalf("contactmatrix.New: %v", err)
	}

	histogram := make([]int, nrAges)
	for age := range histogram {
		histogram[age] = 20
	}
	pop, err := population.New(histogram, matrix, pool, logger)
	if err != nil {
		t.Fatalf("population.New: %v", err)
	}

	dz, err := disease.New([]disease.Variant{disease.WildType(nrAges)}, pool, logger)
	if err != nil {
		t.Fatalf("disease.New: %v", err)
	}

	health := healthcare.New(10, 10, 64, 1.0, 0.0, logger)
	met := metrics.New(logger)

	return &fixture{pop: pop, dz: dz, health: health, met: met, pool: pool}
}

func (f *fixture) step(massGatheringCap *int, day int) *statemachine.Step {
	return &statemachine.Step{
		Pop:              f.pop,
		Disease:          f.dz,
		Health:           f.health,
		Metrics:          f.met,
		Pool:             f.pool,
		MassGatheringCap: massGatheringCap,
		Day:              day,
		Stats:            statemachine.NewDayStats(),
	}
}

func TestSusceptibleNeverAdvancesOnItsOwn(t *testing.T) {
	f := newFixture(t, 10)
	st := f.step(nil, 0)

	if fail := st.Advance(0); fail != nil {
		t.Fatalf("Advance on a susceptible person failed: %v", fail)
	}
	if f.pop.Get(0).State != models.Susceptible {
		t.Fatalf("susceptible person changed state without exposure")
	}
}

func TestInfectMarksIncubationAndRecordsInfector(t *testing.T) {
	f := newFixture(t, 10)
	st := f.step(nil, 0)

	target := f.pop.Get(3)
	if fail := statemachine.Infect(st, target, 0, models.AgentIdx(7)); fail != nil {
		t.Fatalf("Infect: %v", fail)
	}

	if target.State != models.Incubation {
		t.Fatalf("state = %v, want Incubation", target.State)
	}
	if !target.IsInfected {
		t.Fatalf("expected is_infected=true after infection")
	}
	if target.Infector != 7 {
		t.Fatalf("infector = %d, want 7", target.Infector)
	}
	if target.DaysLeft < 1 {
		t.Fatalf("incubation days_left = %d, want >= 1", target.DaysLeft)
	}
}

func TestRecoveredPersonHasImmunityAndNoInfection(t *testing.T) {
	f := newFixture(t, 10)
	person := f.pop.Get(1)
	person.State = models.Illness
	person.SymptomSeverity = models.Mild
	person.DaysLeft = 1

	st := f.step(nil, 1)
	if fail := st.Advance(1); fail != nil {
		t.Fatalf("Advance: %v", fail)
	}

	if person.State != models.Recovered {
		t.Fatalf("state = %v, want Recovered", person.State)
	}
	if person.IsInfected {
		t.Fatalf("expected is_infected=false after recovery")
	}
	if !person.HasImmunity {
		t.Fatalf("expected has_immunity=true after recovery")
	}
}

func TestFatalOutsideHospitalDiesDirectly(t *testing.T) {
	f := newFixture(t, 10)
	person := f.pop.Get(2)
	person.State = models.Illness
	person.SymptomSeverity = models.Fatal
	person.PlaceOfDeath = models.OutsideHospital
	person.DaysLeft = 1

	st := f.step(nil, 1)
	if fail := st.Advance(2); fail != nil {
		t.Fatalf("Advance: %v", fail)
	}

	if person.State != models.Dead {
		t.Fatalf("state = %v, want Dead", person.State)
	}
}

func TestSevereWithNoBedsDrawsDeathOrRecovery(t *testing.T) {
	f := newFixture(t, 10)
	f.health = healthcare.New(0, 0, 64, 1.0, 0.0, f.met.Logger)

	person := f.pop.Get(5)
	person.State = models.Illness
	person.SymptomSeverity = models.Severe
	person.PlaceOfDeath = models.NoDeath
	person.DaysLeft = 1

	st := f.step(nil, 1)
	if fail := st.Advance(5); fail != nil {
		t.Fatalf("Advance: %v", fail)
	}

	if person.State != models.Dead && person.State != models.Recovered {
		t.Fatalf("state = %v, want Dead or Recovered when no beds are available", person.State)
	}
	if f.health.AvailableBeds() != 0 {
		t.Fatalf("available beds changed despite zero capacity")
	}
}
