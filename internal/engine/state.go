package engine

import (
	"github.com/kausaltech/reina-model/internal/models"
	"github.com/kausaltech/reina-model/internal/population"
	"github.com/kausaltech/reina-model/internal/statemachine"

	"github.com/StantStantov/rps/swamp/bools"
)

// AgeRow is one age's worth of per-age output. AllInfected/
// AllDetected are cumulative ("ever"); Infected/Detected are the
// current snapshot.
type AgeRow struct {
	Age int

	Susceptible  int
	Infected     int
	AllInfected  int
	Detected     int
	AllDetected  int
	Recovered    int
	Hospitalized int
	InICU        int
	Dead         int
	Vaccinated   int
}

// State is one day's output.
type State struct {
	Day int

	Ages []AgeRow

	AvailableHospitalBeds uint64
	TotalHospitalBeds     uint64
	AvailableICUUnits     uint64
	TotalICUUnits         uint64

	R                  float64
	ExposedPerDay      uint64
	CTCasesPerDay      uint64
	MobilityLimitation float64

	DailyContacts map[models.Place]int
}

func (c *Context) GenerateState(stats *statemachine.DayStats) *State {
	state := &State{
		Day:                   c.Day,
		Ages:                  make([]AgeRow, c.Pop.NrAges),
		AvailableHospitalBeds: c.Health.AvailableBeds(),
		TotalHospitalBeds:     c.Health.TotalBeds(),
		AvailableICUUnits:     c.Health.AvailableICU(),
		TotalICUUnits:         c.Health.TotalICU(),
		R:                     c.Metrics.R(),
		ExposedPerDay:         c.Metrics.ExposedToday(),
		CTCasesPerDay:         c.Metrics.CTCasesToday(),
		MobilityLimitation:    c.Metrics.MobilityLimitation(),
		DailyContacts:         stats.ContactsByVenue,
	}

	for age := 0; age < c.Pop.NrAges; age++ {
		state.Ages[age] = ageRow(c.Pop, age)
	}

	return state
}

// ageRow builds one AgeRow by scanning every person of the given age
// once. Cumulative fields are derived directly from Person state,
// since a Person's transition graph never revisits Susceptible and
// was_detected/day_of_vaccination never reset: no separate running
// counters are needed.
func ageRow(pop *population.Population, age int) AgeRow {
	indexes := pop.AgeRangeSlice(age, age)

	susceptible := make([]bool, len(indexes))
	infected := make([]bool, len(indexes))
	allInfected := make([]bool, len(indexes))
	detected := make([]bool, len(indexes))
	allDetected := make([]bool, len(indexes))
	recovered := make([]bool, len(indexes))
	hospitalized := make([]bool, len(indexes))
	inICU := make([]bool, len(indexes))
	dead := make([]bool, len(indexes))
	vaccinated := make([]bool, len(indexes))

	for i, idx := range indexes {
		person := pop.Get(idx)

		susceptible[i] = person.State == models.Susceptible
		infected[i] = person.IsInfected
		allInfected[i] = person.State != models.Susceptible
		detected[i] = person.IsQuarantined() && person.IsInfected
		allDetected[i] = person.IsQuarantined()
		recovered[i] = person.State == models.Recovered
		hospitalized[i] = person.State == models.Hospitalized
		inICU[i] = person.State == models.InICU
		dead[i] = person.State == models.Dead
		vaccinated[i] = person.DayOfVaccination >= 0
	}

	return AgeRow{
		Age:          age,
		Susceptible:  bools.CountTrue[int](susceptible...),
		Infected:     bools.CountTrue[int](infected...),
		AllInfected:  bools.CountTrue[int](allInfected...),
		Detected:     bools.CountTrue[int](detected...),
		AllDetected:  bools.CountTrue[int](allDetected...),
		Recovered:    bools.CountTrue[int](recovered...),
		Hospitalized: bools.CountTrue[int](hospitalized...),
		InICU:        bools.CountTrue[int](inICU...),
		Dead:         bools.CountTrue[int](dead...),
		Vaccinated:   bools.CountTrue[int](vaccinated...),
	}
}
