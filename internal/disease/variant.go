package disease

import "github.com/kausaltech/reina-model/internal/values"

// Variant is a named parameter bundle overriding wild-type disease
// values. Variant 0 is always the wild type.
type Variant struct {
	Name string

	PSusceptibility       *values.ClassifiedValues[float64]
	PSymptomatic          *values.ClassifiedValues[float64]
	PSevere               *values.ClassifiedValues[float64]
	PCritical             *values.ClassifiedValues[float64]
	PFatal                *values.ClassifiedValues[float64]
	PDeathOutsideHospital *values.ClassifiedValues[float64]

	// InfectiousnessOverTime maps a day offset relative to symptom
	// onset (negative = still incubating) to an infectiousness weight.
	InfectiousnessOverTime *values.ClassifiedValues[float64]

	MeanIncubationDuration               float64
	MeanDurationOnsetToDeath             float64
	MeanDurationOnsetToRecovery          float64
	RatioOfDurationBeforeHospitalisation float64
	RatioOfDurationInWard                float64

	InfectiousnessMultiplier float64
	PAsymptomaticInfection   float64

	PMaskProtectsWearer float64
	PMaskProtectsOthers float64

	PHospitalDeathNoBeds float64
	PICUDeathNoBeds      float64
	PHospitalDeath       float64
}

var CanonicalInfectiousnessProfile = []float64{
	0.00183, 0.00280, 0.00446, 0.00742, 0.01291, // -10..-6
	0.02350, 0.04419, 0.08247, 0.14018, 0.19032, // -5..-1
	0.18539,                                     // 0
	0.13091, 0.07538, 0.04018, 0.02144, 0.01185, // 1..5
	0.00686, 0.00415, 0.00262, 0.00172, 0.00117, // 6..10
}

func CanonicalInfectiousness() *values.ClassifiedValues[float64] {
	return values.NewClassifiedValues(-10, CanonicalInfectiousnessProfile)
}

// WildType returns a Variant populated with reasonable defaults;
// callers building a Disease normally start from this and override
// per field.
func WildType(nrAges int) Variant {
	maxAge := nrAges - 1
	return Variant{
		Name:                   "wild-type",
		PSusceptibility:        values.Uniform(0, maxAge, 1.0),
		PSymptomatic:           values.Uniform(0, maxAge, 0.7),
		PSevere:                values.Uniform(0, maxAge, 0.10),
		PCritical:              values.Uniform(0, maxAge, 0.03),
		PFatal:                 values.Uniform(0, maxAge, 0.01),
		PDeathOutsideHospital:  values.Uniform(0, maxAge, 0.05),
		InfectiousnessOverTime: CanonicalInfectiousness(),

		MeanIncubationDuration:               5.1,
		MeanDurationOnsetToDeath:             18.8,
		MeanDurationOnsetToRecovery:          13.0,
		RatioOfDurationBeforeHospitalisation: 0.6,
		RatioOfDurationInWard:                0.2,

		InfectiousnessMultiplier: 1.0,
		PAsymptomaticInfection:   0.5,

		PMaskProtectsWearer: 0.3,
		PMaskProtectsOthers: 0.5,

		PHospitalDeathNoBeds: 0.9,
		PICUDeathNoBeds:      0.95,
		PHospitalDeath:       0.15,
	}
}
