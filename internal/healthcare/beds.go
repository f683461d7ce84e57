package healthcare

import (
	"github.com/kausaltech/reina-model/internal/models"

	"github.com/StantStantov/rps/swamp/collections/sparsemap"
	"github.com/StantStantov/rps/swamp/collections/sparseset"
	"github.com/StantStantov/rps/swamp/logging"
	"github.com/StantStantov/rps/swamp/logging/logfmt"
)

// ward is a fixed-capacity resource pool: free slot handles in a
// sparse set, admitted-patient lookups in a sparse map.
type ward struct {
	Free     *sparseset.SparseSet[uint64]
	Admitted *sparsemap.SparseMap[uint64, uint64]
	capacity uint64
}

func newWard(capacity uint64) *ward {
	w := &ward{}
	w.Free = sparseset.NewSparseSet[uint64](capacity)
	w.Admitted = sparsemap.NewSparseMap[uint64, uint64](capacity)
	w.capacity = capacity

	if capacity == 0 {
		return w
	}

	slots := make([]uint64, capacity)
	for i := range slots {
		slots[i] = uint64(i)
	}
	oks := make([]bool, len(slots))
	oks = sparseset.AddIntoSparseSet(w.Free, oks, slots...)

	return w
}

func (w *ward) expand(n uint64) {
	if n == 0 {
		return
	}

	slots := make([]uint64, n)
	for i := range slots {
		slots[i] = w.capacity + uint64(i)
	}
	w.capacity += n

	oks := make([]bool, len(slots))
	oks = sparseset.AddIntoSparseSet(w.Free, oks, slots...)
}

func (w *ward) available() uint64 {
	return sparseset.Length(w.Free)
}

func (w *ward) total() uint64 {
	return w.capacity
}

func (w *ward) acquire(person models.AgentIdx) bool {
	if w.available() == 0 {
		return false
	}

	slotBuf := make([]uint64, 1)
	slotBuf = sparseset.GetAllFromSparseSet(w.Free, slotBuf)
	slot := slotBuf[0]

	removed := make([]bool, 1)
	removed = sparseset.RemoveFromSparseSet(w.Free, removed, slot)

	added := make([]bool, 1)
	added = sparsemap.AddIntoSparseMap(w.Admitted, added, []uint64{uint64(person)}, []uint64{slot})

	return true
}

// release returns person's slot to the free pool, failing if person
// held no slot.
func (w *ward) release(person models.AgentIdx) bool {
	key := uint64(person)

	slotBuf := make([]uint64, 1)
	okBuf := make([]bool, 1)
	slotBuf, okBuf = sparsemap.GetFromSparseMap(w.Admitted, slotBuf, okBuf, key)
	if !okBuf[0] {
		return false
	}
	slot := slotBuf[0]

	removedOK := make([]bool, 1)
	removedOK = sparsemap.RemoveFromSparseMap(w.Admitted, removedOK, key)

	addedOK := make([]bool, 1)
	addedOK = sparseset.AddIntoSparseSet(w.Free, addedOK, slot)

	return true
}

func (w *ward) isAdmitted(person models.AgentIdx) bool {
	okBuf := make([]bool, 1)
	okBuf = sparsemap.PresentInSparseMap(w.Admitted, okBuf, uint64(person))
	return okBuf[0]
}

type System struct {
	beds *ward
	icu  *ward

	TestingMode TestingState

	vaccinationPrograms []VaccinationProgram

	Logger *logging.Logger
}

func New(hospitalBeds, icuUnits uint64, testingQueueCapacity uint64, pSuccessfulTracing, pDetectedAnyway float64, logger *logging.Logger) *System {
	s := &System{}
	s.beds = newWard(hospitalBeds)
	s.icu = newWard(icuUnits)
	s.TestingMode = newTestingState(testingQueueCapacity, pSuccessfulTracing, pDetectedAnyway)

	s.Logger = logging.NewChildLogger(logger, func(event *logging.Event) {
		logfmt.String(event, "from", "healthcare_system")
	})

	return s
}

func (s *System) AvailableBeds() uint64 { return s.beds.available() }
func (s *System) TotalBeds() uint64     { return s.beds.total() }
func (s *System) AvailableICU() uint64  { return s.icu.available() }
func (s *System) TotalICU() uint64      { return s.icu.total() }

func (s *System) BuildHospitalBeds(n uint64) {
	s.beds.expand(n)

	logging.GetThenSendInfo(
		s.Logger,
		"built new hospital beds",
		func(event *logging.Event, level logging.Level) error {
			logfmt.Unsigned(event, "beds.added", n)

			return nil
		},
	)
}

func (s *System) BuildICUUnits(n uint64) {
	s.icu.expand(n)

	logging.GetThenSendInfo(
		s.Logger,
		"built new icu units",
		func(event *logging.Event, level logging.Level) error {
			logfmt.Unsigned(event, "icu.added", n)

			return nil
		},
	)
}

func (s *System) AdmitToWard(person models.AgentIdx) bool      { return s.beds.acquire(person) }
func (s *System) DischargeFromWard(person models.AgentIdx) bool { return s.beds.release(person) }
func (s *System) AdmitToICU(person models.AgentIdx) bool        { return s.icu.acquire(person) }
func (s *System) DischargeFromICU(person models.AgentIdx) bool  { return s.icu.release(person) }

func (s *System) IsInWard(person models.AgentIdx) bool { return s.beds.isAdmitted(person) }
func (s *System) IsInICU(person models.AgentIdx) bool  { return s.icu.isAdmitted(person) }
