package models

type AgentIdx int64

const NoAgent AgentIdx = -1

const MaxInfectees = 64

const MaxContactsPerDay = 128

type State uint8

const (
	Susceptible State = iota
	Incubation
	Illness
	Hospitalized
	InICU
	Recovered
	Dead
)

func (s State) String() string {
	switch s {
	case Susceptible:
		return "susceptible"
	case Incubation:
		return "incubation"
	case Illness:
		return "illness"
	case Hospitalized:
		return "hospitalized"
	case InICU:
		return "in_icu"
	case Recovered:
		return "recovered"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

type Severity uint8

const (
	Asymptomatic Severity = iota
	Mild
	Severe
	Critical
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Asymptomatic:
		return "asymptomatic"
	case Mild:
		return "mild"
	case Severe:
		return "severe"
	case Critical:
		return "critical"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

type PlaceOfDeath uint8

const (
	NoDeath PlaceOfDeath = iota
	InHospital
	OutsideHospital
)

// Population owns the array these live in; nothing outside the day
// loop mutates a Person.
type Person struct {
	Idx AgentIdx
	Age int

	State           State
	SymptomSeverity Severity
	PlaceOfDeath    PlaceOfDeath

	IsInfected       bool
	HasImmunity      bool
	WasDetected      bool
	QueuedForTesting bool
	IncludedInTotals bool

	VariantIdx int

	DayOfInfection         int
	DayOfIllness           int
	DaysLeft               int
	DaysFromOnsetToRemoved float64
	HospitalDays           int
	ICUDays                int

	DayOfVaccination int // -1 if never vaccinated

	OtherPeopleInfected     int
	OtherPeopleExposedToday int

	Infector  AgentIdx
	Infectees []AgentIdx // lazily allocated only while contact tracing is active

	MaxContactsPerDay int
}

func NewPerson(idx AgentIdx, age int) Person {
	return Person{
		Idx:              idx,
		Age:              age,
		State:            Susceptible,
		SymptomSeverity:  Asymptomatic,
		PlaceOfDeath:     NoDeath,
		VariantIdx:       -1,
		DayOfVaccination: -1,
		Infector:         NoAgent,
	}
}

// IsQuarantined reports whether contacts are suppressed: once
// was_detected, the person stops exposing others.
func (p *Person) IsQuarantined() bool {
	return p.WasDetected
}
