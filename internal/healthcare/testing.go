package healthcare

import (
	"github.com/kausaltech/reina-model/internal/disease"
	"github.com/kausaltech/reina-model/internal/models"
	"github.com/kausaltech/reina-model/internal/population"
	"github.com/kausaltech/reina-model/internal/rng"

	"github.com/StantStantov/rps/swamp/collections/ringbuffer"
)

// TestingState holds the testing policy, the day-delayed queue, and
// the contact-tracing parameters.
type TestingState struct {
	Mode models.TestingMode

	MildDetectionRate float64

	PSuccessfulTracing float64
	PDetectedAnyway    float64

	queue *ringbuffer.RingBuffer[uint64, uint64]
}

func newTestingState(capacity uint64, pSuccessfulTracing, pDetectedAnyway float64) TestingState {
	return TestingState{
		Mode:               models.NoTesting,
		PSuccessfulTracing: pSuccessfulTracing,
		PDetectedAnyway:    pDetectedAnyway,
		queue:              ringbuffer.New[uint64, uint64](capacity),
	}
}

func (s *System) TracingActive() bool {
	return s.TestingMode.Mode.TracingActive()
}

func (s *System) ShouldEnqueueForTesting(person *models.Person, pool *rng.Pool) bool {
	switch s.TestingMode.Mode {
	case models.NoTesting:
		return false
	case models.OnlySevereSymptoms:
		switch person.SymptomSeverity {
		case models.Severe, models.Critical, models.Fatal:
			return true
		case models.Mild:
			return pool.Bernoulli(s.TestingMode.MildDetectionRate)
		default:
			return false
		}
	case models.AllWithSymptoms, models.AllWithSymptomsCT:
		return person.SymptomSeverity != models.Asymptomatic
	default:
		return false
	}
}

func (s *System) EnqueueForTesting(person *models.Person) {
	if person.QueuedForTesting {
		return
	}
	person.QueuedForTesting = true
	ringbuffer.Enqueue(s.TestingMode.queue, uint64(person.Idx))
}

func (s *System) DrainTestingQueue() []models.AgentIdx {
	pending := make([]models.AgentIdx, 0, ringbuffer.Length(s.TestingMode.queue))
	for ringbuffer.Length(s.TestingMode.queue) != 0 {
		idx, err := ringbuffer.Dequeue(s.TestingMode.queue)
		if err != nil {
			break
		}
		pending = append(pending, models.AgentIdx(idx))
	}
	return pending
}

// ProcessTestingQueue runs today's drained queue through detection
// and, when contact tracing is enabled, recursively enqueues infector
// and infectees.
func (s *System) ProcessTestingQueue(pending []models.AgentIdx, pop *population.Population, dz *disease.System, pool *rng.Pool) (detected, tracedDetections int) {
	for _, idx := range pending {
		person := pop.Get(idx)
		person.QueuedForTesting = false

		if person.State == models.Dead || person.IsQuarantined() {
			continue
		}

		if !s.isDetectable(person, dz) {
			continue
		}

		person.WasDetected = true
		detected++

		if s.TracingActive() {
			traced := s.traceContacts(pop, pool, idx, 1)
			tracedDetections += traced
		}
	}

	return detected, tracedDetections
}

// isDetectable reports whether a queued person currently has nonzero
// source infectiousness, or is in Hospitalized/InICU.
func (s *System) isDetectable(person *models.Person, dz *disease.System) bool {
	if person.State == models.Hospitalized || person.State == models.InICU {
		return true
	}

	dayOffset := -person.DaysLeft
	if person.State == models.Illness {
		dayOffset = person.DayOfIllness
	}
	asymptomatic := person.SymptomSeverity == models.Asymptomatic

	return dz.Infectiousness(person.VariantIdx, dayOffset, asymptomatic) > 0
}

// traceContacts recurses through infector/infectees up to two levels,
// enqueueing each candidate who rolls a successful trace.
func (s *System) traceContacts(pop *population.Population, pool *rng.Pool, idx models.AgentIdx, depth int) int {
	if depth > 2 {
		return 0
	}

	person := pop.Get(idx)
	candidates := make([]models.AgentIdx, 0, len(person.Infectees)+1)
	if person.Infector != models.NoAgent {
		candidates = append(candidates, person.Infector)
	}
	candidates = append(candidates, person.Infectees...)

	tracedCount := 0
	for _, candidateIdx := range candidates {
		candidate := pop.Get(candidateIdx)
		if candidate.State == models.Dead || candidate.IsQuarantined() {
			continue
		}

		traced := pool.Bernoulli(s.TestingMode.PSuccessfulTracing) || pool.Bernoulli(s.TestingMode.PDetectedAnyway)
		if !traced {
			continue
		}

		s.EnqueueForTesting(candidate)
		tracedCount++
		tracedCount += s.traceContacts(pop, pool, candidateIdx, depth+1)
	}

	return tracedCount
}
