package engine

import (
	"fmt"

	"github.com/kausaltech/reina-model/internal/models"
	"github.com/kausaltech/reina-model/internal/rng"
)

const SampleCount = 10000

type What uint8

const (
	InfectiousnessCurve What = iota
	ContactsPerDay
	SymptomSeverity
	IncubationPeriod
	IllnessPeriod
	HospitalizationPeriod
	ICUPeriod
	OnsetToRemovedPeriod
)

// Sample draws SampleCount values of what for the given age (and, for
// durations that depend on it, severity), without mutating the
// Context. It borrows the same Pool the simulation draws from, so a
// Sample call interleaved with Iterate calls will perturb determinism;
// callers wanting both should sample from a separate seeded Pool.
func (c *Context) Sample(what What, age int, variantIdx int, severity models.Severity) ([]float64, error) {
	samples := make([]float64, SampleCount)

	switch what {
	case InfectiousnessCurve:
		variant, err := c.Disease.Variant(variantIdx)
		if err != nil {
			return nil, fmt.Errorf("engine: sample: %w", err)
		}
		span := variant.InfectiousnessOverTime.Len()
		for i := range samples {
			offset := int(c.Pool.IntRange(uint64(span))) - span/2
			samples[i] = c.Disease.Infectiousness(variantIdx, offset, false)
		}
	case ContactsPerDay:
		for i := range samples {
			n, err := c.Pop.DesiredContacts(age, 1.0, 100, c.MassGatheringCap)
			if err != nil {
				return nil, fmt.Errorf("engine: sample: %w", err)
			}
			samples[i] = float64(n)
		}
	case SymptomSeverity:
		for i := range samples {
			sampled, _ := c.Disease.SampleSeverity(variantIdx, age, 1.0)
			samples[i] = float64(sampled)
		}
	case IncubationPeriod:
		samples = rng.Sample(SampleCount, func() float64 {
			return float64(c.Disease.SampleIncubationDays(variantIdx))
		})
	case IllnessPeriod, HospitalizationPeriod, ICUPeriod:
		for i := range samples {
			onsetToRemoved := c.Disease.SampleOnsetToRemoved(variantIdx, severity == models.Fatal)
			illness, hospital, icu := c.Disease.SplitDurations(variantIdx, severity, onsetToRemoved)
			switch what {
			case IllnessPeriod:
				samples[i] = float64(illness)
			case HospitalizationPeriod:
				samples[i] = float64(hospital)
			case ICUPeriod:
				samples[i] = float64(icu)
			}
		}
	case OnsetToRemovedPeriod:
		samples = rng.Sample(SampleCount, func() float64 {
			return c.Disease.SampleOnsetToRemoved(variantIdx, severity == models.Fatal)
		})
	default:
		return nil, fmt.Errorf("engine: sample: unknown distribution %d", what)
	}

	return samples, nil
}
