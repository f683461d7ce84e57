package engine_test

import (
	"io"
	"testing"
	"time"

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

const nrAges = 100

func newContext(t *testing.T, seed int64, nrPeoplePerAge int) *engine.Context {
	t.Helper()

	logger := logging.NewLogger(io.Discard, logfmt.MainFormat, logging.LevelDebug, 64)
	pool := rng.New(seed, logger)

	source := []contactmatrix.SourceRow{
		{ParticipantAge: 0, ContactAge: contactmatrix.AgeRange{Min: 0, Max: nrAges - 1}, Place: models.Home, ContactsPerDay: 4},
	}
	matrix, err := contactmatrix.New(source, logger)
	if err != nil {
		t.Fatalf("contactmatrix.New: %v", err)
	}

	histogram := make([]int, nrAges)
	for age := range histogram {
		histogram[age] = nrPeoplePerAge
	}
	pop, err := population.New(histogram, matrix, pool, logger)
	if err != nil {
		t.Fatalf("population.New: %v", err)
	}

	dz, err := disease.New([]disease.Variant{disease.WildType(nrAges)}, pool, logger)
	if err != nil {
		t.Fatalf("disease.New: %v", err)
	}

	health := healthcare.New(100, 20, uint64(nrPeoplePerAge*nrAges), 0.9, 0.0, logger)
	scheduler := intervention.NewScheduler()
	startDate := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	return engine.New(pop, dz, health, scheduler, pool, startDate, logger, nil)
}

// With no imports and no interventions, every count stays unchanged
// and nobody dies or becomes infected.
func TestDormantEpidemicStaysDormant(t *testing.T) {
	ctx := newContext(t, 1, 100)

	for day := 0; day < 90; day++ {
		state, fail := ctx.Iterate()
		if fail != nil {
			t.Fatalf("Iterate day %d: %v", day, fail)
		}
		for _, row := range state.Ages {
			if row.Infected != 0 || row.Dead != 0 {
				t.Fatalf("day %d age %d: infected=%d dead=%d, want 0 with no imports", day, row.Age, row.Infected, row.Dead)
			}
		}
	}
}

// Importing one infection on day 0 yields all_infected >= 1 within 30
// days, and total dead never exceeds all_infected.
func TestSingleSeedProducesInfectionsWithinBound(t *testing.T) {
	ctx := newContext(t, 2, 200)

	seed, err := intervention.New(intervention.ImportInfections, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), func(iv *intervention.Intervention) {
		iv.Amount = 1
	})
	if err != nil {
		t.Fatalf("intervention.New: %v", err)
	}
	ctx.Scheduler.Add(seed)

	var last *engine.State
	for day := 0; day < 30; day++ {
		state, fail := ctx.Iterate()
		if fail != nil {
			t.Fatalf("Iterate day %d: %v", day, fail)
		}
		last = state
	}

	totalAllInfected, totalDead := 0, 0
	for _, row := range last.Ages {
		totalAllInfected += row.AllInfected
		totalDead += row.Dead
	}

	if totalAllInfected < 1 {
		t.Fatalf("all_infected = %d after 30 days, want >= 1", totalAllInfected)
	}
	if totalDead > totalAllInfected {
		t.Fatalf("dead=%d exceeds all_infected=%d", totalDead, totalAllInfected)
	}
}

// With zero source infectiousness, no susceptible is ever infected
// regardless of contacts.
func TestZeroInfectionProbabilityNeverInfects(t *testing.T) {
	ctx := newContext(t, 3, 100)

	for i := range ctx.Disease.Variants {
		ctx.Disease.Variants[i].InfectiousnessMultiplier = 0
	}

	seed, err := intervention.New(intervention.ImportInfections, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), func(iv *intervention.Intervention) {
		iv.Amount = 50
	})
	if err != nil {
		t.Fatalf("intervention.New: %v", err)
	}
	ctx.Scheduler.Add(seed)

	var last *engine.State
	for day := 0; day < 20; day++ {
		state, fail := ctx.Iterate()
		if fail != nil {
			t.Fatalf("Iterate day %d: %v", day, fail)
		}
		last = state
	}

	totalAllInfected := 0
	for _, row := range last.Ages {
		totalAllInfected += row.AllInfected
	}
	if totalAllInfected > 50 {
		t.Fatalf("all_infected = %d, want the 50 imported seeds and no onward spread", totalAllInfected)
	}
}
