package population_test

import (
	"io"
	"testing"

	"github.com/kausaltech/reina-model/internal/contactmatrix"
	"github.com/kausaltech/reina-model/internal/models"
	"github.com/kausaltech/reina-model/internal/population"
	"github.com/kausaltech/reina-model/internal/rng"

	"github.com/StantStantov/rps/swamp/logging"
	"github.com/StantStantov/rps/swamp/logging/logfmt"
)

func newTestPopulation(t *testing.T) *population.Population {
	t.Helper()

	logger := logging.NewLogger(io.Discard, logfmt.MainFormat, logging.LevelDebug, 64)
	pool := rng.New(7, logger)

	source := []contactmatrix.SourceRow{
		{ParticipantAge: 30, ContactAge: contactmatrix.AgeRange{Min: 0, Max: 99}, Place: models.Work, ContactsPerDay: 6},
	}
	matrix, err := contactmatrix.New(source, logger)
	if err != nil {
		t.Fatalf("contactmatrix.New: %v", err)
	}

	histogram := make([]int, 100)
	for age := range histogram {
		histogram[age] = 10
	}

	pop, err := population.New(histogram, matrix, pool, logger)
	if err != nil {
		t.Fatalf("population.New: %v", err)
	}
	return pop
}

func TestAgeIndexCoversEveryPerson(t *testing.T) {
	pop := newTestPopulation(t)

	if got := len(pop.PeopleSortedByAge); got != pop.Len() {
		t.Fatalf("age index length %d != population length %d", got, pop.Len())
	}

	seen := make(map[models.AgentIdx]bool)
	for age := 0; age < pop.NrAges; age++ {
		for _, idx := range pop.AgeRangeSlice(age, age) {
			if pop.Get(idx).Age != age {
				t.Fatalf("index %d placed under age %d has age %d", idx, age, pop.Get(idx).Age)
			}
			seen[idx] = true
		}
	}
	if len(seen) != pop.Len() {
		t.Fatalf("age index covers %d people, want %d", len(seen), pop.Len())
	}
}

func TestInfecteesCappedAtBound(t *testing.T) {
	pop := newTestPopulation(t)

	source := models.AgentIdx(0)
	for i := 0; i < models.MaxInfectees; i++ {
		if err := pop.AddInfectee(source, models.AgentIdx(i+1), true); err != nil {
			t.Fatalf("AddInfectee #%d: %v", i, err)
		}
	}

	if err := pop.AddInfectee(source, models.AgentIdx(999), true); err == nil {
		t.Fatalf("expected TooManyInfectees once the bound is exceeded")
	}
}

func TestInfecteesInactiveWhenTracingOff(t *testing.T) {
	pop := newTestPopulation(t)

	if err := pop.AddInfectee(0, 1, false); err != nil {
		t.Fatalf("AddInfectee with tracing off: %v", err)
	}
	if pop.Get(0).Infectees != nil {
		t.Fatalf("infectee list allocated while tracing is inactive")
	}
}

func TestDesiredContactsNeverNegative(t *testing.T) {
	pop := newTestPopulation(t)

	for i := 0; i < 200; i++ {
		n, err := pop.DesiredContacts(30, 0.01, 5, nil)
		if err != nil {
			t.Fatalf("DesiredContacts: %v", err)
		}
		if n < 0 {
			t.Fatalf("negative contact count: %d", n)
		}
	}
}

func TestCyclicOrderVisitsEveryAgentExactlyOnce(t *testing.T) {
	pop := newTestPopulation(t)

	order := pop.CyclicOrder()
	if len(order) != pop.Len() {
		t.Fatalf("cyclic order length %d != population length %d", len(order), pop.Len())
	}

	seen := make(map[models.AgentIdx]bool, pop.Len())
	for _, idx := range order {
		if seen[idx] {
			t.Fatalf("agent %d visited twice in cyclic order", idx)
		}
		seen[idx] = true
	}
}
