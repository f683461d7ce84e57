package intervention

import (
	"fmt"
	"time"

	"github.com/kausaltech/reina-model/internal/contactmatrix"
	"github.com/kausaltech/reina-model/internal/healthcare"
	"github.com/kausaltech/reina-model/internal/models"
)

type Kind uint8

const (
	TestAllWithSymptoms Kind = iota
	TestOnlySevereSymptoms
	TestWithContactTracing
	BuildNewICUUnits
	BuildNewHospitalBeds
	ImportInfections
	ImportInfectionsWeekly
	LimitMobility
	WearMasks
	Vaccinate
)

func (k Kind) String() string {
	switch k {
	case TestAllWithSymptoms:
		return "test-all-with-symptoms"
	case TestOnlySevereSymptoms:
		return "test-only-severe-symptoms"
	case TestWithContactTracing:
		return "test-with-contact-tracing"
	case BuildNewICUUnits:
		return "build-new-icu-units"
	case BuildNewHospitalBeds:
		return "build-new-hospital-beds"
	case ImportInfections:
		return "import-infections"
	case ImportInfectionsWeekly:
		return "import-infections-weekly"
	case LimitMobility:
		return "limit-mobility"
	case WearMasks:
		return "wear-masks"
	case Vaccinate:
		return "vaccinate"
	default:
		return "unknown"
	}
}

// Intervention is one scheduled entry; only the fields relevant to
// Kind are read when Apply runs.
type Intervention struct {
	Kind Kind
	Date time.Time

	Percent float64

	Units uint64

	Amount     int
	VariantIdx int

	Place    *models.Place
	AgeRange contactmatrix.AgeRange

	MinAge, MaxAge, WeeklyVaccinations int

	applied bool
}

func New(kind Kind, date time.Time, configure func(*Intervention)) (*Intervention, error) {
	iv := &Intervention{Kind: kind, Date: date, AgeRange: contactmatrix.AgeRange{Min: 0, Max: 150}}
	if configure != nil {
		configure(iv)
	}

	switch kind {
	case TestOnlySevereSymptoms, TestWithContactTracing:
		if iv.Percent < 0 || iv.Percent > 100 {
			return nil, fmt.Errorf("intervention: %s requires a percentage in [0,100]", kind)
		}
	case BuildNewICUUnits, BuildNewHospitalBeds:
	case ImportInfections, ImportInfectionsWeekly:
		if iv.Amount < 0 {
			return nil, fmt.Errorf("intervention: %s requires a non-negative amount", kind)
		}
	case LimitMobility, WearMasks:
		if iv.Percent < 0 || iv.Percent > 100 {
			return nil, fmt.Errorf("intervention: %s requires a percentage in [0,100]", kind)
		}
		if iv.AgeRange.Min > iv.AgeRange.Max {
			return nil, fmt.Errorf("intervention: %s age range min > max", kind)
		}
	case Vaccinate:
		if iv.MinAge > iv.MaxAge {
			return nil, fmt.Errorf("intervention: vaccinate min_age > max_age")
		}
		if iv.WeeklyVaccinations < 0 {
			return nil, fmt.Errorf("intervention: vaccinate requires a non-negative weekly amount")
		}
	case TestAllWithSymptoms:
	default:
		return nil, fmt.Errorf("intervention: unknown kind %d", kind)
	}

	return iv, nil
}

func (iv *Intervention) Applied() bool {
	return iv.applied
}

type Targets struct {
	Matrix  *contactmatrix.Matrix
	Health  *healthcare.System
	Disease ImportFunc
}

type ImportFunc func(amount, variantIdx int) int

func (iv *Intervention) Apply(targets Targets) error {
	if iv.applied {
		return nil
	}
	iv.applied = true

	switch iv.Kind {
	case TestAllWithSymptoms:
		targets.Health.TestingMode.Mode = models.AllWithSymptoms
	case TestOnlySevereSymptoms:
		targets.Health.TestingMode.Mode = models.OnlySevereSymptoms
		targets.Health.TestingMode.MildDetectionRate = iv.Percent / 100
	case TestWithContactTracing:
		targets.Health.TestingMode.Mode = models.AllWithSymptomsCT
		targets.Health.TestingMode.PSuccessfulTracing = iv.Percent / 100
	case BuildNewICUUnits:
		targets.Health.BuildICUUnits(iv.Units)
	case BuildNewHospitalBeds:
		targets.Health.BuildHospitalBeds(iv.Units)
	case ImportInfections:
		targets.Disease(iv.Amount, iv.VariantIdx)
	case LimitMobility:
		return targets.Matrix.SetMobilityFactor(iv.Place, iv.AgeRange, iv.Percent)
	case WearMasks:
		return targets.Matrix.SetMaskFactor(iv.Place, iv.AgeRange, iv.Percent)
	case Vaccinate, ImportInfectionsWeekly:
	}

	return nil
}

type Scheduler struct {
	entries []*Intervention

	weeklyImportCarry map[*Intervention]float64

	vaccinationRegistered map[*Intervention]bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		weeklyImportCarry:     make(map[*Intervention]float64),
		vaccinationRegistered: make(map[*Intervention]bool),
	}
}

func (s *Scheduler) Add(iv *Intervention) {
	s.entries = append(s.entries, iv)
}

func (s *Scheduler) Entries() []*Intervention {
	return s.entries
}

func (s *Scheduler) ApplyDue(today time.Time, targets Targets) error {
	for _, iv := range s.entries {
		if iv.applied || !iv.Date.Equal(today) {
			continue
		}
		if err := iv.Apply(targets); err != nil {
			return err
		}
	}
	return nil
}

// DailyWeeklyImports prorates every active import-infections-weekly
// entry's weekly_amount over 7 days, carrying the fractional
// remainder, and imports the resulting whole-number count via
// importFn.
func (s *Scheduler) DailyWeeklyImports(today time.Time, importFn ImportFunc) int {
	total := 0

	for _, iv := range s.entries {
		if iv.Kind != ImportInfectionsWeekly || iv.Date.After(today) {
			continue
		}

		daily := float64(iv.Amount)/7 + s.weeklyImportCarry[iv]
		whole := int(daily)
		s.weeklyImportCarry[iv] = daily - float64(whole)

		if whole > 0 {
			total += importFn(whole, iv.VariantIdx)
		}
	}

	return total
}

func (s *Scheduler) DailyVaccinations(today time.Time, health *healthcare.System) {
	for _, iv := range s.entries {
		if iv.Kind != Vaccinate || iv.Date.After(today) || s.vaccinationRegistered[iv] {
			continue
		}

		health.AddVaccinationProgram(healthcare.VaccinationProgram{
			MinAge:     iv.MinAge,
			MaxAge:     iv.MaxAge,
			DailyQuota: iv.WeeklyVaccinations / 7,
		})
		s.vaccinationRegistered[iv] = true
	}
}
