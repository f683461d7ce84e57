package models

import "strconv"

type Place uint8

const (
	Home Place = iota
	Work
	School
	Transport
	Leisure
	Other
	placeCount
)

func (p Place) String() string {
	switch p {
	case Home:
		return "home"
	case Work:
		return "work"
	case School:
		return "school"
	case Transport:
		return "transport"
	case Leisure:
		return "leisure"
	case Other:
		return "other"
	default:
		return "unknown"
	}
}

func Places() []Place {
	places := make([]Place, int(placeCount))
	for i := range places {
		places[i] = Place(i)
	}
	return places
}

type TestingMode uint8

const (
	NoTesting TestingMode = iota
	OnlySevereSymptoms
	AllWithSymptoms
	AllWithSymptomsCT
)

func (m TestingMode) String() string {
	switch m {
	case NoTesting:
		return "no_testing"
	case OnlySevereSymptoms:
		return "only_severe_symptoms"
	case AllWithSymptoms:
		return "all_with_symptoms"
	case AllWithSymptomsCT:
		return "all_with_symptoms_ct"
	default:
		return "unknown"
	}
}

// TracingActive reports whether Infectees lists must be materialised:
// tracing only works once an infectee list was allocated at infection
// time, which happens only under AllWithSymptomsCT.
func (m TestingMode) TracingActive() bool {
	return m == AllWithSymptomsCT
}

type FailureCode uint8

const (
	TooManyInfectees FailureCode = iota
	TooManyContacts
	HospitalAccountingFailure
	NegativeContacts
	MallocFailure
	WrongState
	ContactProbabilityFailure
	InfecteesMismatch
)

func (c FailureCode) String() string {
	switch c {
	case TooManyInfectees:
		return "too_many_infectees"
	case TooManyContacts:
		return "too_many_contacts"
	case HospitalAccountingFailure:
		return "hospital_accounting_failure"
	case NegativeContacts:
		return "negative_contacts"
	case MallocFailure:
		return "malloc_failure"
	case WrongState:
		return "wrong_state"
	case ContactProbabilityFailure:
		return "contact_probability_failure"
	case InfecteesMismatch:
		return "infectees_mismatch"
	default:
		return "unknown_failure"
	}
}

// Failure is the typed value a caller receives when a day aborts.
// Once returned, the Context that produced it is no longer usable.
type Failure struct {
	Code        FailureCode
	OffendingID AgentIdx
	Detail      string
}

func (f *Failure) Error() string {
	if f.OffendingID == NoAgent {
		return f.Code.String() + ": " + f.Detail
	}
	return f.Code.String() + " (agent " + strconv.FormatInt(int64(f.OffendingID), 10) + "): " + f.Detail
}

func NewFailure(code FailureCode, offender AgentIdx, detail string) *Failure {
	return &Failure{Code: code, OffendingID: offender, Detail: detail}
}
