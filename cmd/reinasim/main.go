package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	ptime "github.com/kausaltech/reina-model/internal/common/time"
	"github.com/kausaltech/reina-model/internal/contactmatrix"
	"github.com/kausaltech/reina-model/internal/disease"
	"github.com/kausaltech/reina-model/internal/engine"
	"github.com/kausaltech/reina-model/internal/healthcare"
	"github.com/kausaltech/reina-model/internal/intervention"
	"github.com/kausaltech/reina-model/internal/models"
	"github.com/kausaltech/reina-model/internal/population"
	"github.com/kausaltech/reina-model/internal/rng"

	"github.com/StantStantov/rps/swamp/logging"
	"github.com/StantStantov/rps/swamp/logging/logfmt"
)

func main() {
	nrAges := flag.Int("nr-ages", 91, "number of one-year age classes, 0..nr-ages-1")
	perAge := flag.Int("per-age", 1000, "population count per age class")
	days := flag.Int("days", 180, "number of simulated days to run")
	seed := flag.Int64("seed", 1, "PRNG seed")
	importedSeeds := flag.Int("seed-infections", 10, "infections imported on day 0")
	hospitalBeds := flag.Uint64("hospital-beds", 500, "initial hospital bed capacity")
	icuUnits := flag.Uint64("icu-units", 50, "initial ICU unit capacity")
	msPerDay := flag.Float64("ms-per-day", 0, "wall-clock milliseconds between simulated days, 0 to run flat-out")
	flag.Parse()

	logFile, err := os.Create(".logs")
	if err != nil {
		panic(err)
	}
	defer logFile.Close()

	logger := logging.NewLogger(
		io.MultiWriter(os.Stdout, logFile),
		logfmt.MainFormat,
		logging.LevelDebug,
		256,
	)

	pool := rng.New(*seed, logger)

	matrix, err := contactmatrix.New(defaultContactMatrix(*nrAges), logger)
	if err != nil {
		panic(err)
	}

	histogram := make([]int, *nrAges)
	for age := range histogram {
		histogram[age] = *perAge
	}
	pop, err := population.New(histogram, matrix, pool, logger)
	if err != nil {
		panic(err)
	}

	dz, err := disease.New([]disease.Variant{disease.WildType(*nrAges)}, pool, logger)
	if err != nil {
		panic(err)
	}

	health := healthcare.New(*hospitalBeds, *icuUnits, uint64(*perAge**nrAges), 0.6, 0.05, logger)
	scheduler := intervention.NewScheduler()

	ctx := engine.New(pop, dz, health, scheduler, pool, time.Now(), logger, &engine.InitialCondition{
		Incubating: *importedSeeds,
	})

	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, string(debug.Stack()))
			os.Exit(1)
		}
	}()

	secPerDay := *msPerDay / 1000

	day := 0
	previous := ptime.TimeNowInSeconds()
	lag := 0.0
	for day < *days {
		current := ptime.TimeNowInSeconds()
		lag += current - previous
		previous = current

		if secPerDay > 0 && lag < secPerDay {
			continue
		}
		lag -= secPerDay

		state, fail := ctx.Iterate()
		if fail != nil {
			fmt.Fprintf(os.Stderr, "day %d: simulation failure: %s (code=%d agent=%d)\n", day, fail.Detail, fail.Code, fail.OffendingID)
			os.Exit(1)
		}

		reportDay(state)
		day++
	}
}

func reportDay(state *engine.State) {
	var infected, allInfected, dead, hospitalized, inICU, vaccinated int
	for _, row := range state.Ages {
		infected += row.Infected
		allInfected += row.AllInfected
		dead += row.Dead
		hospitalized += row.Hospitalized
		inICU += row.InICU
		vaccinated += row.Vaccinated
	}

	fmt.Printf(
		"day=%d infected=%d all_infected=%d dead=%d hospitalized=%d icu=%d vaccinated=%d beds=%d/%d icu_units=%d/%d r=%.2f\n",
		state.Day, infected, allInfected, dead, hospitalized, inICU, vaccinated,
		state.AvailableHospitalBeds, state.TotalHospitalBeds,
		state.AvailableICUUnits, state.TotalICUUnits,
		state.R,
	)
}

// defaultContactMatrix is a flat, age-blind stand-in for a real
// country's per-place contact survey: every age contacts every other
// age uniformly, at a different rate per venue.
func defaultContactMatrix(nrAges int) []contactmatrix.SourceRow {
	whole := contactmatrix.AgeRange{Min: 0, Max: nrAges - 1}

	rows := make([]contactmatrix.SourceRow, 0, nrAges*4)
	for age := 0; age < nrAges; age++ {
		rows = append(rows,
			contactmatrix.SourceRow{ParticipantAge: age, ContactAge: whole, Place: models.Home, ContactsPerDay: 3.0},
			contactmatrix.SourceRow{ParticipantAge: age, ContactAge: whole, Place: models.Work, ContactsPerDay: 2.0},
			contactmatrix.SourceRow{ParticipantAge: age, ContactAge: whole, Place: models.Leisure, ContactsPerDay: 1.5},
			contactmatrix.SourceRow{ParticipantAge: age, ContactAge: whole, Place: models.Other, ContactsPerDay: 1.0},
		)
	}
	return rows
}
