package metrics

import (
	"github.com/StantStantov/rps/swamp/atomic"
	"github.com/StantStantov/rps/swamp/logging"
	"github.com/StantStantov/rps/swamp/logging/logfmt"
)

const minRemovedForR = 6

// System holds the run's cumulative counters. Every counter is an
// atomic.Uint64 so a parallel exposure phase can update it without a
// lock; the day loop itself remains single-threaded.
type System struct {
	removedCount      *atomic.Uint64
	secondaryCasesSum *atomic.Uint64

	exposedToday *atomic.Uint64
	ctCasesToday *atomic.Uint64

	mobilityLimitation float64

	Logger *logging.Logger
}

func New(logger *logging.Logger) *System {
	s := &System{
		removedCount:      atomic.NewUint64(0),
		secondaryCasesSum: atomic.NewUint64(0),
		exposedToday:      atomic.NewUint64(0),
		ctCasesToday:      atomic.NewUint64(0),
	}
	s.Logger = logging.NewChildLogger(logger, func(event *logging.Event) {
		logfmt.String(event, "from", "metrics_system")
	})
	return s
}

func (s *System) RecordRemoval(secondaryCases int) {
	atomic.AddUint64(s.removedCount, 1)
	if secondaryCases > 0 {
		atomic.AddUint64(s.secondaryCasesSum, uint64(secondaryCases))
	}
}

func (s *System) BeginDay() {
	atomic.StoreUint64(s.exposedToday, 0)
	atomic.StoreUint64(s.ctCasesToday, 0)
}

func (s *System) RecordExposure() {
	atomic.AddUint64(s.exposedToday, 1)
}

func (s *System) RecordCTCases(n int) {
	if n <= 0 {
		return
	}
	atomic.AddUint64(s.ctCasesToday, uint64(n))
}

func (s *System) SetMobilityLimitation(fraction float64) {
	s.mobilityLimitation = fraction
}

func (s *System) ExposedToday() uint64        { return atomic.LoadUint64(s.exposedToday) }
func (s *System) CTCasesToday() uint64        { return atomic.LoadUint64(s.ctCasesToday) }
func (s *System) MobilityLimitation() float64 { return s.mobilityLimitation }

// R returns the mean secondary-case count among removed infectors, or
// 0 below minRemovedForR removals.
func (s *System) R() float64 {
	removed := atomic.LoadUint64(s.removedCount)
	if removed < minRemovedForR {
		return 0
	}
	return float64(atomic.LoadUint64(s.secondaryCasesSum)) / float64(removed)
}
