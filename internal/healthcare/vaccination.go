package healthcare

import (
	"fmt"

	"github.com/kausaltech/reina-model/internal/models"
	"github.com/kausaltech/reina-model/internal/population"

	"github.com/StantStantov/rps/swamp/bools"
	"github.com/StantStantov/rps/swamp/filters"
	"github.com/StantStantov/rps/swamp/logging"
	"github.com/StantStantov/rps/swamp/logging/logfmt"
)

type VaccinationProgram struct {
	MinAge, MaxAge int
	DailyQuota     int
}

func (s *System) AddVaccinationProgram(program VaccinationProgram) error {
	if program.MinAge < 0 || program.MaxAge < program.MinAge {
		return fmt.Errorf("healthcare: invalid vaccination age range [%d,%d]", program.MinAge, program.MaxAge)
	}
	if program.DailyQuota < 0 {
		return fmt.Errorf("healthcare: negative vaccination daily quota")
	}

	s.vaccinationPrograms = append(s.vaccinationPrograms, program)

	logging.GetThenSendInfo(
		s.Logger,
		"registered vaccination program",
		func(event *logging.Event, level logging.Level) error {
			logfmt.Integer(event, "program.min_age", program.MinAge)
			logfmt.Integer(event, "program.max_age", program.MaxAge)
			logfmt.Integer(event, "program.daily_quota", program.DailyQuota)

			return nil
		},
	)

	return nil
}

// RunVaccinations vaccinates, per active program, from the oldest
// eligible age downward until the quota is filled or the age range is
// exhausted.
func (s *System) RunVaccinations(day int, pop *population.Population) int {
	total := 0

	for _, program := range s.vaccinationPrograms {
		remaining := program.DailyQuota

		for age := program.MaxAge; age >= program.MinAge && remaining > 0; age-- {
			ids := pop.AgeRangeSlice(age, age)

			ineligible := make([]bool, len(ids))
			for i, idx := range ids {
				person := pop.Get(idx)
				ineligible[i] = person.State == models.Dead || person.IsQuarantined() || person.DayOfVaccination >= 0
			}

			ineligibleAmount, eligibleAmount := bools.CountBools[int, int](ineligible...)
			eligible := make([]models.AgentIdx, eligibleAmount)
			skipped := make([]models.AgentIdx, ineligibleAmount)
			eligible, _ = filters.SeparateByBools(eligible, skipped, ids, ineligible)

			for _, idx := range eligible {
				if remaining == 0 {
					break
				}

				pop.Get(idx).DayOfVaccination = day
				remaining--
				total++
			}
		}
	}

	return total
}

const VaccineEfficacy = 0.90

// VaccinationModifier returns the severity-threshold multiplier: 1.0
// until 14 days after vaccination, then (1 - efficacy).
func VaccinationModifier(person *models.Person, today int) float64 {
	if person.DayOfVaccination < 0 {
		return 1.0
	}
	if today-person.DayOfVaccination < 14 {
		return 1.0
	}
	return 1 - VaccineEfficacy
}
