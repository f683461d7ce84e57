package contactmatrix

import (
	"fmt"
	"sort"

	"github.com/kausaltech/reina-model/internal/models"

	"github.com/StantStantov/rps/swamp/logging"
	"github.com/StantStantov/rps/swamp/logging/logfmt"
)

type AgeRange struct {
	Min, Max int
}

func (r AgeRange) contains(age int) bool {
	return age >= r.Min && age <= r.Max
}

type SourceRow struct {
	ParticipantAge int
	ContactAge     AgeRange
	Place          models.Place
	ContactsPerDay float64
}

type ContactProbability struct {
	Place          models.Place
	ContactAge     AgeRange
	CumulativeProb float64
	MaskProb       float64
}

type ageFilter struct {
	place    models.Place
	ageRange AgeRange
	hasPlace bool
}

func (f ageFilter) matches(row SourceRow) bool {
	if f.hasPlace && row.Place != f.place {
		return false
	}
	return f.ageRange.contains(row.ParticipantAge)
}

type Matrix struct {
	source []SourceRow

	avgContactsPerDay map[int]float64
	probabilities     map[int][]ContactProbability

	mobilityFactors []mobilityFactor
	maskFactors     []maskFactor

	minAge, maxAge int

	Logger *logging.Logger
}

type mobilityFactor struct {
	filter    ageFilter
	reduction float64 // fraction of contacts removed, 0..1
}

type maskFactor struct {
	filter ageFilter
	share  float64 // fraction of contacts in this filter wearing a mask, 0..1
}

func New(source []SourceRow, logger *logging.Logger) (*Matrix, error) {
	if len(source) == 0 {
		return nil, fmt.Errorf("contactmatrix: source table is empty")
	}

	m := &Matrix{}
	m.source = append([]SourceRow(nil), source...)
	m.Logger = logging.NewChildLogger(logger, func(event *logging.Event) {
		logfmt.String(event, "from", "contact_matrix")
	})

	m.minAge, m.maxAge = ageSpan(m.source)
	m.regenerateAll()

	return m, nil
}

func ageSpan(rows []SourceRow) (min, max int) {
	min, max = rows[0].ParticipantAge, rows[0].ParticipantAge
	for _, row := range rows {
		if row.ParticipantAge < min {
			min = row.ParticipantAge
		}
		if row.ParticipantAge > max {
			max = row.ParticipantAge
		}
	}
	return min, max
}

func (m *Matrix) AvgContactsPerDay(age int) float64 {
	age = clampAge(age, m.minAge, m.maxAge)
	return m.avgContactsPerDay[age]
}

func (m *Matrix) SetMobilityFactor(place *models.Place, ageRange AgeRange, reductionPct float64) error {
	if reductionPct < 0 || reductionPct > 100 {
		return fmt.Errorf("contactmatrix: mobility reduction %.2f out of range [0,100]", reductionPct)
	}

	filter := ageFilter{ageRange: ageRange}
	if place != nil {
		filter.place = *place
		filter.hasPlace = true
	}

	m.mobilityFactors = append(m.mobilityFactors, mobilityFactor{filter: filter, reduction: reductionPct / 100})
	m.regenerateAll()

	logging.GetThenSendInfo(
		m.Logger,
		"set mobility factor",
		func(event *logging.Event, level logging.Level) error {
			logfmt.Integer(event, "age_range.min", ageRange.Min)
			logfmt.Integer(event, "age_range.max", ageRange.Max)

			return nil
		},
	)

	return nil
}

func (m *Matrix) SetMaskFactor(place *models.Place, ageRange AgeRange, sharePct float64) error {
	if sharePct < 0 || sharePct > 100 {
		return fmt.Errorf("contactmatrix: mask share %.2f out of range [0,100]", sharePct)
	}

	filter := ageFilter{ageRange: ageRange}
	if place != nil {
		filter.place = *place
		filter.hasPlace = true
	}

	m.maskFactors = append(m.maskFactors, maskFactor{filter: filter, share: sharePct / 100})
	m.regenerateAll()

	return nil
}

func (m *Matrix) regenerateAll() {
	m.avgContactsPerDay = make(map[int]float64)
	m.probabilities = make(map[int][]ContactProbability)

	byAge := make(map[int][]SourceRow)
	for _, row := range m.source {
		byAge[row.ParticipantAge] = append(byAge[row.ParticipantAge], row)
	}

	for age, rows := range byAge {
		m.regenerateAge(age, rows)
	}
}

func (m *Matrix) regenerateAge(age int, rows []SourceRow) {
	weighted := make([]float64, len(rows))
	total := 0.0

	for i, row := range rows {
		contacts := row.ContactsPerDay * m.mobilityMultiplier(row)
		weighted[i] = contacts
		total += contacts
	}

	m.avgContactsPerDay[age] = total

	probs := make([]ContactProbability, 0, len(rows))
	cumulative := 0.0
	for i, row := range rows {
		if weighted[i] <= 0 {
			continue
		}

		cumulative += weighted[i] / total
		probs = append(probs, ContactProbability{
			Place:          row.Place,
			ContactAge:     row.ContactAge,
			CumulativeProb: cumulative,
			MaskProb:       m.maskShare(row),
		})
	}

	if len(probs) > 0 {
		probs[len(probs)-1].CumulativeProb = 1.0
	}

	m.probabilities[age] = probs
}

func (m *Matrix) mobilityMultiplier(row SourceRow) float64 {
	multiplier := 1.0
	for _, factor := range m.mobilityFactors {
		if factor.filter.matches(row) {
			multiplier *= 1 - factor.reduction
		}
	}
	if multiplier < 0 {
		multiplier = 0
	}
	return multiplier
}

func (m *Matrix) maskShare(row SourceRow) float64 {
	share := 0.0
	for _, factor := range m.maskFactors {
		if factor.filter.matches(row) {
			share = 1 - (1-share)*(1-factor.share)
		}
	}
	return share
}

// Pick selects the (place, contact-age interval, mask probability)
// row for a uniform draw u via a binary scan of the participant age's
// cumulative table. ok is false if the table for this age is empty or
// its cumulative mass is short of 1 by more than floating-point
// drift.
func (m *Matrix) Pick(age int, u float64) (ContactProbability, bool) {
	age = clampAge(age, m.minAge, m.maxAge)
	rows := m.probabilities[age]
	if len(rows) == 0 {
		return ContactProbability{}, false
	}

	if rows[len(rows)-1].CumulativeProb < 1-1e-6 {
		return ContactProbability{}, false
	}

	idx := sort.Search(len(rows), func(i int) bool {
		return rows[i].CumulativeProb > u
	})
	if idx == len(rows) {
		idx = len(rows) - 1
	}

	return rows[idx], true
}

func clampAge(age, min, max int) int {
	if age < min {
		return min
	}
	if age > max {
		return max
	}
	return age
}
