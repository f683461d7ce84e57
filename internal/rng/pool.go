package rng

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/StantStantov/rps/swamp/logging"
	"github.com/StantStantov/rps/swamp/logging/logfmt"
)

// Pool wraps a single math/rand source for uniform/Bernoulli draws,
// plus gonum's distuv for gamma/log-normal duration sampling, which
// math/rand alone cannot produce.
type Pool struct {
	Source *rand.Rand
	Seed   int64

	Logger *logging.Logger
}

func New(seed int64, logger *logging.Logger) *Pool {
	pool := &Pool{}

	pool.Source = rand.New(rand.NewSource(seed))
	pool.Seed = seed

	pool.Logger = logging.NewChildLogger(logger, func(event *logging.Event) {
		logfmt.String(event, "from", "rng_pool")
	})

	return pool
}

func (p *Pool) Uniform() float64 {
	return p.Source.Float64()
}

// Bernoulli draws a trial that succeeds with probability prob, clamped
// to [0,1].
func (p *Pool) Bernoulli(prob float64) bool {
	if prob <= 0 {
		return false
	}
	if prob >= 1 {
		return true
	}
	return p.Source.Float64() < prob
}

func (p *Pool) IntRange(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	return uint64(p.Source.Int63n(int64(n)))
}

func (p *Pool) LogNormal(mu, sigma float64) float64 {
	dist := distuv.LogNormal{Mu: mu, Sigma: sigma, Src: p.Source}
	return dist.Rand()
}

// Gamma draws a sample from a gamma distribution parameterised by its
// mean and coefficient of variation: shape = 1/cv^2, rate =
// shape/mean.
func (p *Pool) Gamma(mean, cv float64) float64 {
	if mean <= 0 {
		return 0
	}
	if cv <= 0 {
		return mean
	}
	shape := 1 / (cv * cv)
	rate := shape / mean
	dist := distuv.Gamma{Alpha: shape, Beta: rate, Src: p.Source}
	return dist.Rand()
}

func Sample(n int, fn func() float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = fn()
	}
	return values
}
