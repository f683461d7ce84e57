package disease

import (
	"fmt"
	"math"

	"github.com/kausaltech/reina-model/internal/models"
	"github.com/kausaltech/reina-model/internal/rng"

	"github.com/StantStantov/rps/swamp/logging"
	"github.com/StantStantov/rps/swamp/logging/logfmt"
)

// Variant 0 is always the wild type.
type System struct {
	Variants []Variant

	Pool *rng.Pool

	Logger *logging.Logger
}

func New(variants []Variant, pool *rng.Pool, logger *logging.Logger) (*System, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("disease: at least one variant (the wild type) is required")
	}

	system := &System{}
	system.Variants = variants
	system.Pool = pool
	system.Logger = logging.NewChildLogger(logger, func(event *logging.Event) {
		logfmt.String(event, "from", "disease_system")
	})

	return system, nil
}

func (s *System) AddVariant(v Variant) (int, error) {
	if v.Name == "" {
		return 0, fmt.Errorf("disease: variant requires a name")
	}
	for _, existing := range s.Variants {
		if existing.Name == v.Name {
			return 0, fmt.Errorf("disease: variant %q already registered", existing.Name)
		}
	}

	s.Variants = append(s.Variants, v)
	return len(s.Variants) - 1, nil
}

func (s *System) Variant(idx int) (*Variant, error) {
	if idx < 0 || idx >= len(s.Variants) {
		return nil, fmt.Errorf("disease: unknown variant index %d", idx)
	}
	return &s.Variants[idx], nil
}

// dayOffset is relative to symptom onset, negative while incubating.
// Offsets outside the variant's defined profile carry no
// infectiousness.
func (s *System) Infectiousness(variantIdx, dayOffset int, asymptomatic bool) float64 {
	variant, err := s.Variant(variantIdx)
	if err != nil {
		return 0
	}
	if !variant.InfectiousnessOverTime.InRange(dayOffset) {
		return 0
	}

	weight := variant.InfectiousnessOverTime.At(dayOffset)
	if asymptomatic {
		weight *= variant.PAsymptomaticInfection
	}
	return weight
}

func (s *System) InfectionProbability(variantIdx, age int, sourceInfectiousness float64) float64 {
	variant, err := s.Variant(variantIdx)
	if err != nil {
		return 0
	}

	p := sourceInfectiousness * variant.PSusceptibility.At(age) * variant.InfectiousnessMultiplier
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}

func (s *System) AttemptInfection(variantIdx, age int, sourceInfectiousness float64) bool {
	p := s.InfectionProbability(variantIdx, age, sourceInfectiousness)
	return s.Pool.Bernoulli(p)
}

// MaskAverts draws the second trial for a masked contact: p_mask =
// a + b - a*b, where a and b discount by the other party's and the
// wearer's protection, each scaled by maskP, the chance a mask was
// actually worn on this contact.
func (s *System) MaskAverts(variantIdx int, maskP float64) bool {
	variant, err := s.Variant(variantIdx)
	if err != nil {
		return false
	}

	a := maskP * variant.PMaskProtectsOthers
	b := maskP * variant.PMaskProtectsWearer
	pMask := a + b - a*b

	return s.Pool.Bernoulli(pMask)
}

func (s *System) SampleSeverity(variantIdx, age int, vaccineModifier float64) (models.Severity, models.PlaceOfDeath) {
	variant, err := s.Variant(variantIdx)
	if err != nil {
		return models.Asymptomatic, models.NoDeath
	}

	syc := variant.PSymptomatic.At(age)
	sc := variant.PSevere.At(age) * vaccineModifier
	cc := variant.PCritical.At(age) * vaccineModifier
	fc := variant.PFatal.At(age) * vaccineModifier

	v := s.Pool.Uniform()

	switch {
	case v >= syc:
		return models.Asymptomatic, models.NoDeath
	case v >= sc:
		return models.Mild, models.NoDeath
	case v >= cc:
		return models.Severe, models.NoDeath
	case v >= fc:
		return models.Critical, models.NoDeath
	default:
		if s.Pool.Bernoulli(variant.PDeathOutsideHospital.At(age)) {
			return models.Fatal, models.OutsideHospital
		}
		return models.Fatal, models.InHospital
	}
}

func (s *System) SampleIncubationDays(variantIdx int) int {
	variant, err := s.Variant(variantIdx)
	if err != nil {
		return 1
	}

	days := int(math.Round(s.Pool.Gamma(variant.MeanIncubationDuration, 0.86)))
	if days < 1 {
		days = 1
	}
	return days
}

func (s *System) SampleOnsetToRemoved(variantIdx int, fatal bool) float64 {
	variant, err := s.Variant(variantIdx)
	if err != nil {
		return 0
	}

	mu := variant.MeanDurationOnsetToRecovery
	if fatal {
		mu = variant.MeanDurationOnsetToDeath
	}

	duration := s.Pool.Gamma(mu, 0.45)
	if duration < 1 {
		duration = 1
	}
	return duration
}

// SplitDurations breaks an onset-to-removed span into illness,
// hospitalisation and ICU days per severity: Mild/Asymptomatic spend
// the whole span ill; Severe splits into illness + ward; Critical/
// Fatal split into illness + ward + ICU.
func (s *System) SplitDurations(variantIdx int, severity models.Severity, onsetToRemoved float64) (illnessDays, hospitalDays, icuDays int) {
	variant, err := s.Variant(variantIdx)
	if err != nil {
		return int(math.Round(onsetToRemoved)), 0, 0
	}

	switch severity {
	case models.Asymptomatic, models.Mild:
		return round(onsetToRemoved), 0, 0
	case models.Severe:
		illness := onsetToRemoved * variant.RatioOfDurationBeforeHospitalisation
		ward := onsetToRemoved - illness
		return round(illness), round(ward), 0
	default:
		illness := onsetToRemoved * variant.RatioOfDurationBeforeHospitalisation
		ward := onsetToRemoved * variant.RatioOfDurationInWard
		icu := onsetToRemoved - illness - ward
		if icu < 0 {
			icu = 0
		}
		return round(illness), round(ward), round(icu)
	}
}

func round(x float64) int {
	v := int(math.Round(x))
	if v < 0 {
		return 0
	}
	return v
}
