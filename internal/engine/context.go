package engine

import (
	"fmt"
	"time"

	"github.com/kausaltech/reina-model/internal/contactmatrix"
	"github.com/kausaltech/reina-model/internal/disease"
	"github.com/kausaltech/reina-model/internal/healthcare"
	"github.com/kausaltech/reina-model/internal/intervention"
	"github.com/kausaltech/reina-model/internal/metrics"
	"github.com/kausaltech/reina-model/internal/models"
	"github.com/kausaltech/reina-model/internal/population"
	"github.com/kausaltech/reina-model/internal/rng"
	"github.com/kausaltech/reina-model/internal/statemachine"

	"github.com/StantStantov/rps/swamp/logging"
	"github.com/StantStantov/rps/swamp/logging/logfmt"
)

type InitialCondition struct {
	Incubating, Ill, Dead, InWard, InICU, ConfirmedCases int
	VariantIdx                                           int
}

type Context struct {
	Pop       *population.Population
	Disease   *disease.System
	Health    *healthcare.System
	Metrics   *metrics.System
	Scheduler *intervention.Scheduler
	Pool      *rng.Pool

	StartDate        time.Time
	Day              int
	MassGatheringCap *int

	Logger *logging.Logger

	failure *models.Failure
}

func New(
	pop *population.Population,
	dz *disease.System,
	health *healthcare.System,
	scheduler *intervention.Scheduler,
	pool *rng.Pool,
	startDate time.Time,
	logger *logging.Logger,
	initial *InitialCondition,
) *Context {
	c := &Context{
		Pop:       pop,
		Disease:   dz,
		Health:    health,
		Scheduler: scheduler,
		Pool:      pool,
		StartDate: startDate,
		Logger: logging.NewChildLogger(logger, func(event *logging.Event) {
			logfmt.String(event, "from", "engine_context")
		}),
	}
	c.Metrics = metrics.New(c.Logger)

	if initial != nil {
		c.seedInitialCondition(*initial)
	}

	return c
}

func (c *Context) seedInitialCondition(initial InitialCondition) {
	seedState := func(count int, apply func(*models.Person)) {
		for i := 0; i < count; i++ {
			idx, ok := c.Pop.RandomPersonInAgeRange(0, c.Pop.NrAges-1)
			if !ok {
				return
			}
			person := c.Pop.Get(idx)
			if person.IsInfected || person.HasImmunity || person.State != models.Susceptible {
				continue
			}
			step := &statemachine.Step{Pop: c.Pop, Disease: c.Disease, Health: c.Health, Metrics: c.Metrics, Pool: c.Pool, Day: 0}
			if err := statemachine.Infect(step, person, initial.VariantIdx, models.NoAgent); err != nil {
				continue
			}
			apply(person)
		}
	}

	seedState(initial.Incubating, func(*models.Person) {})
	seedState(initial.Ill, func(p *models.Person) {
		p.State = models.Illness
		p.DayOfIllness = 0
	})
	seedState(initial.InWard, func(p *models.Person) {
		p.State = models.Illness
		if c.Health.AdmitToWard(p.Idx) {
			p.State = models.Hospitalized
			p.WasDetected = true
		}
	})
	seedState(initial.InICU, func(p *models.Person) {
		p.State = models.Illness
		if c.Health.AdmitToICU(p.Idx) {
			p.State = models.InICU
			p.WasDetected = true
		}
	})
	seedState(initial.Dead, func(p *models.Person) {
		p.State = models.Dead
		p.IsInfected = false
	})
	seedState(initial.ConfirmedCases, func(p *models.Person) {
		p.WasDetected = true
	})
}

func (c *Context) importInfections(amount, variantIdx int) int {
	seeded := 0
	maxAttempts := amount*50 + 100

	for attempts := 0; seeded < amount && attempts < maxAttempts; attempts++ {
		idx, ok := c.Pop.RandomPersonInAgeRange(0, c.Pop.NrAges-1)
		if !ok {
			break
		}

		person := c.Pop.Get(idx)
		if person.IsInfected || person.HasImmunity || person.State != models.Susceptible {
			continue
		}

		step := &statemachine.Step{Pop: c.Pop, Disease: c.Disease, Health: c.Health, Metrics: c.Metrics, Pool: c.Pool, Day: c.Day}
		if err := statemachine.Infect(step, person, variantIdx, models.NoAgent); err != nil {
			c.failure = err
			return seeded
		}
		seeded++
	}

	return seeded
}

// Once a *models.Failure is returned, the Context is no longer usable.
func (c *Context) Iterate() (*State, *models.Failure) {
	if c.failure != nil {
		return nil, c.failure
	}

	today := c.StartDate.AddDate(0, 0, c.Day)

	targets := intervention.Targets{
		Matrix:  c.Pop.Matrix,
		Health:  c.Health,
		Disease: c.importInfections,
	}
	if err := c.Scheduler.ApplyDue(today, targets); err != nil {
		c.failure = models.NewFailure(models.WrongState, models.NoAgent, err.Error())
		return nil, c.failure
	}
	for _, iv := range c.Scheduler.Entries() {
		if iv.Kind == intervention.LimitMobility && iv.Date.Equal(today) {
			c.Metrics.SetMobilityLimitation(iv.Percent / 100)
		}
	}

	c.Scheduler.DailyWeeklyImports(today, c.importInfections)
	if c.failure != nil {
		return nil, c.failure
	}

	c.Scheduler.DailyVaccinations(today, c.Health)
	c.Health.RunVaccinations(c.Day, c.Pop)

	c.Metrics.BeginDay()

	pending := c.Health.DrainTestingQueue()
	_, traced := c.Health.ProcessTestingQueue(pending, c.Pop, c.Disease, c.Pool)
	c.Metrics.RecordCTCases(traced)

	stats := statemachine.NewDayStats()
	step := &statemachine.Step{
		Pop:              c.Pop,
		Disease:          c.Disease,
		Health:           c.Health,
		Metrics:          c.Metrics,
		Pool:             c.Pool,
		MassGatheringCap: c.MassGatheringCap,
		Day:              c.Day,
		Stats:            stats,
	}

	for _, idx := range c.Pop.CyclicOrder() {
		if fail := step.Advance(idx); fail != nil {
			c.failure = fail
			return nil, fail
		}
	}

	state := c.GenerateState(stats)
	c.Day++

	return state, nil
}

func (c *Context) Failed() *models.Failure {
	return c.failure
}

func (c *Context) SetMassGatheringCap(cap *int) {
	c.MassGatheringCap = cap
}

func (c *Context) AddVariant(v disease.Variant) (int, error) {
	idx, err := c.Disease.AddVariant(v)
	if err != nil {
		return 0, fmt.Errorf("engine: %w", err)
	}
	return idx, nil
}

// SetMobilityFactor bypasses the intervention scheduler for an
// immediate, undated adjustment.
func (c *Context) SetMobilityFactor(place *models.Place, ageRange contactmatrix.AgeRange, reductionPct float64) error {
	return c.Pop.Matrix.SetMobilityFactor(place, ageRange, reductionPct)
}
