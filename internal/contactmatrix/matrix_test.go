package contactmatrix_test

import (
	"io"
	"testing"

	"github.com/kausaltech/reina-model/internal/contactmatrix"
	"github.com/kausaltech/reina-model/internal/models"

	"github.com/StantStantov/rps/swamp/logging"
	"github.com/StantStantov/rps/swamp/logging/logfmt"
)

func newTestMatrix(t *testing.T) *contactmatrix.Matrix {
	t.Helper()

	logger := logging.NewLogger(io.Discard, logfmt.MainFormat, logging.LevelDebug, 64)
	source := []contactmatrix.SourceRow{
		{ParticipantAge: 30, ContactAge: contactmatrix.AgeRange{Min: 20, Max: 40}, Place: models.Work, ContactsPerDay: 8},
		{ParticipantAge: 30, ContactAge: contactmatrix.AgeRange{Min: 0, Max: 10}, Place: models.Home, ContactsPerDay: 2},
	}

	matrix, err := contactmatrix.New(source, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return matrix
}

func TestZeroMobilityReductionIsNoOp(t *testing.T) {
	matrix := newTestMatrix(t)
	before := matrix.AvgContactsPerDay(30)

	if err := matrix.SetMobilityFactor(nil, contactmatrix.AgeRange{Min: 0, Max: 120}, 0); err != nil {
		t.Fatalf("SetMobilityFactor: %v", err)
	}

	after := matrix.AvgContactsPerDay(30)
	if before != after {
		t.Fatalf("zero reduction changed contacts: %v != %v", before, after)
	}
}

func TestMobilityReductionScalesContacts(t *testing.T) {
	matrix := newTestMatrix(t)
	before := matrix.AvgContactsPerDay(30)

	if err := matrix.SetMobilityFactor(nil, contactmatrix.AgeRange{Min: 0, Max: 120}, 80); err != nil {
		t.Fatalf("SetMobilityFactor: %v", err)
	}

	after := matrix.AvgContactsPerDay(30)
	want := before * 0.2
	if diff := after - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("got %v contacts, want %v", after, want)
	}
}

func TestPickAlwaysReturnsAValidRow(t *testing.T) {
	matrix := newTestMatrix(t)

	for _, u := range []float64{0, 0.1, 0.5, 0.999} {
		row, ok := matrix.Pick(30, u)
		if !ok {
			t.Fatalf("Pick(30, %v) failed", u)
		}
		if row.CumulativeProb <= 0 {
			t.Fatalf("unexpected zero cumulative probability row: %+v", row)
		}
	}
}

func TestInvalidReductionRejected(t *testing.T) {
	matrix := newTestMatrix(t)

	if err := matrix.SetMobilityFactor(nil, contactmatrix.AgeRange{Min: 0, Max: 120}, 150); err == nil {
		t.Fatalf("expected an error for an out-of-range reduction")
	}
}
