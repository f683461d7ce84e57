package population

import (
	"fmt"
	"math"

	"github.com/kausaltech/reina-model/internal/contactmatrix"
	"github.com/kausaltech/reina-model/internal/mempools"
	"github.com/kausaltech/reina-model/internal/models"
	"github.com/kausaltech/reina-model/internal/rng"

	"github.com/StantStantov/rps/swamp/logging"
	"github.com/StantStantov/rps/swamp/logging/logfmt"
)

type Population struct {
	People []models.Person

	// PeopleSortedByAge groups every index by age; AgeStart[age] is the
	// offset of the first person of that age, AgeStart[age+1] the end.
	PeopleSortedByAge []models.AgentIdx
	AgeStart          []int
	NrAges            int

	infecteePool *mempools.ArrayPool[models.AgentIdx]

	Matrix *contactmatrix.Matrix
	Pool   *rng.Pool

	Logger *logging.Logger
}

func New(ageHistogram []int, matrix *contactmatrix.Matrix, pool *rng.Pool, logger *logging.Logger) (*Population, error) {
	if len(ageHistogram) == 0 {
		return nil, fmt.Errorf("population: age histogram is empty")
	}

	total := 0
	for _, count := range ageHistogram {
		if count < 0 {
			return nil, fmt.Errorf("population: negative age count")
		}
		total += count
	}
	if total == 0 {
		return nil, fmt.Errorf("population: age histogram sums to zero")
	}

	pop := &Population{}
	pop.NrAges = len(ageHistogram)
	pop.Matrix = matrix
	pop.Pool = pool
	pop.infecteePool = mempools.NewArrayPool[models.AgentIdx](models.MaxInfectees)
	pop.Logger = logging.NewChildLogger(logger, func(event *logging.Event) {
		logfmt.String(event, "from", "population")
	})

	pop.People = make([]models.Person, total)
	idx := models.AgentIdx(0)
	for age, count := range ageHistogram {
		for i := 0; i < count; i++ {
			pop.People[idx] = models.NewPerson(idx, age)
			idx++
		}
	}

	pop.buildAgeIndex(ageHistogram)

	logging.GetThenSendInfo(
		pop.Logger,
		"built population",
		func(event *logging.Event, level logging.Level) error {
			logfmt.Integer(event, "population.total", total)
			logfmt.Integer(event, "population.ages", pop.NrAges)

			return nil
		},
	)

	return pop, nil
}

func (p *Population) buildAgeIndex(ageHistogram []int) {
	n := len(p.People)

	shuffled := make([]models.AgentIdx, n)
	for i := range shuffled {
		shuffled[i] = models.AgentIdx(i)
	}
	for i := n - 1; i > 0; i-- {
		j := p.Pool.IntRange(uint64(i + 1))
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	p.AgeStart = make([]int, p.NrAges+1)
	for age := 0; age < p.NrAges; age++ {
		p.AgeStart[age+1] = p.AgeStart[age] + ageHistogram[age]
	}

	p.PeopleSortedByAge = make([]models.AgentIdx, n)
	cursor := append([]int(nil), p.AgeStart[:p.NrAges]...)
	for _, idx := range shuffled {
		age := p.People[idx].Age
		p.PeopleSortedByAge[cursor[age]] = idx
		cursor[age]++
	}
}

func (p *Population) AgeRangeSlice(minAge, maxAge int) []models.AgentIdx {
	if minAge < 0 {
		minAge = 0
	}
	if maxAge >= p.NrAges {
		maxAge = p.NrAges - 1
	}
	if minAge > maxAge {
		return nil
	}
	return p.PeopleSortedByAge[p.AgeStart[minAge]:p.AgeStart[maxAge+1]]
}

func (p *Population) RandomPersonInAgeRange(minAge, maxAge int) (models.AgentIdx, bool) {
	slice := p.AgeRangeSlice(minAge, maxAge)
	if len(slice) == 0 {
		return models.NoAgent, false
	}
	return slice[p.Pool.IntRange(uint64(len(slice)))], true
}

func (p *Population) CyclicOrder() []models.AgentIdx {
	n := len(p.People)
	order := make([]models.AgentIdx, n)
	if n == 0 {
		return order
	}

	start := p.Pool.IntRange(uint64(n))
	for i := range order {
		order[i] = models.AgentIdx((start + uint64(i)) % uint64(n))
	}
	return order
}

// DesiredContacts computes max(1, floor(factor·lognormal(0,0.5)·
// avg_contacts(age))) - 1, clamped to [0,limit] and, if set, to
// massGatheringCap. limit is the per-call cap (5 for symptomatic
// illness, 100 for incubation/asymptomatic illness).
func (p *Population) DesiredContacts(age int, factor float64, limit int, massGatheringCap *int) (int, error) {
	raw := int(math.Floor(factor * p.Pool.LogNormal(0, 0.5) * p.Matrix.AvgContactsPerDay(age)))

	n := raw
	if n < 1 {
		n = 1
	}
	n--

	if n > limit {
		n = limit
	}
	if massGatheringCap != nil && n > *massGatheringCap {
		n = *massGatheringCap
	}
	if n < 0 {
		n = 0
	}

	if n > models.MaxContactsPerDay {
		return 0, models.NewFailure(models.TooManyContacts, -1, fmt.Sprintf("desired contacts %d exceeds hard cap", n))
	}

	return n, nil
}

func (p *Population) SampleContactTarget(sourceAge int) (models.AgentIdx, models.Place, float64, error) {
	u := p.Pool.Uniform()
	row, ok := p.Matrix.Pick(sourceAge, u)
	if !ok {
		return models.NoAgent, 0, 0, models.NewFailure(models.ContactProbabilityFailure, -1, "cumulative contact probability did not reach 1")
	}

	target, ok := p.RandomPersonInAgeRange(row.ContactAge.Min, row.ContactAge.Max)
	if !ok {
		return models.NoAgent, row.Place, row.MaskProb, nil
	}

	return target, row.Place, row.MaskProb, nil
}

func (p *Population) StartTracing(idx models.AgentIdx, tracingActive bool) {
	if !tracingActive {
		return
	}
	person := &p.People[idx]
	if person.Infectees == nil {
		person.Infectees = mempools.GetArray(p.infecteePool)
	}
}

func (p *Population) AddInfectee(source, target models.AgentIdx, tracingActive bool) error {
	if !tracingActive {
		return nil
	}

	person := &p.People[source]
	if person.Infectees == nil {
		person.Infectees = mempools.GetArray(p.infecteePool)
	}
	if len(person.Infectees) >= models.MaxInfectees {
		return models.NewFailure(models.TooManyInfectees, source, "infectee list overflow")
	}

	person.Infectees = append(person.Infectees, target)
	return nil
}

func (p *Population) ReleaseInfectees(idx models.AgentIdx) {
	person := &p.People[idx]
	if person.Infectees == nil {
		return
	}
	mempools.PutArrays(p.infecteePool, person.Infectees)
	person.Infectees = nil
}

func (p *Population) Get(idx models.AgentIdx) *models.Person {
	return &p.People[idx]
}

func (p *Population) Len() int {
	return len(p.People)
}
