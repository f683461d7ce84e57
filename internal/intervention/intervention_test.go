package intervention_test

import (
	"io"
	"testing"
	"time"

	"github.com/kausaltech/reina-model/internal/healthcare"
	"github.com/kausaltech/reina-model/internal/intervention"

	"github.com/StantStantov/rps/swamp/logging"
	"github.com/StantStantov/rps/swamp/logging/logfmt"
)

func newHealthStub(t *testing.T) *healthcare.System {
	t.Helper()
	logger := logging.NewLogger(io.Discard, logfmt.MainFormat, logging.LevelDebug, 64)
	return healthcare.New(0, 0, 8, 1.0, 0.0, logger)
}

func TestInvalidPercentageRejected(t *testing.T) {
	_, err := intervention.New(intervention.LimitMobility, time.Now(), func(iv *intervention.Intervention) {
		iv.Percent = 150
	})
	if err == nil {
		t.Fatalf("expected an error for a percentage above 100")
	}
}

func TestVaccinateRejectsInvertedAgeRange(t *testing.T) {
	_, err := intervention.New(intervention.Vaccinate, time.Now(), func(iv *intervention.Intervention) {
		iv.MinAge, iv.MaxAge = 50, 10
	})
	if err == nil {
		t.Fatalf("expected an error for min_age > max_age")
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	iv, err := intervention.New(intervention.TestAllWithSymptoms, time.Now(), nil)
	if err != nil {
		t.Fatalf("intervention.New: %v", err)
	}
	if iv.Applied() {
		t.Fatalf("expected a fresh intervention to be unapplied")
	}

	targets := intervention.Targets{Health: newHealthStub(t)}
	if err := iv.Apply(targets); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !iv.Applied() {
		t.Fatalf("expected Applied()=true after a successful Apply")
	}

	if err := iv.Apply(intervention.Targets{}); err != nil {
		t.Fatalf("second Apply call should be a silent no-op, got: %v", err)
	}
}

func TestSchedulerAppliesOnlyDueEntries(t *testing.T) {
	scheduler := intervention.NewScheduler()

	today := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)

	dueToday, err := intervention.New(intervention.TestAllWithSymptoms, today, nil)
	if err != nil {
		t.Fatalf("intervention.New: %v", err)
	}
	dueLater, err := intervention.New(intervention.TestAllWithSymptoms, tomorrow, nil)
	if err != nil {
		t.Fatalf("intervention.New: %v", err)
	}
	scheduler.Add(dueToday)
	scheduler.Add(dueLater)

	targets := intervention.Targets{Health: newHealthStub(t)}
	if err := scheduler.ApplyDue(today, targets); err != nil {
		t.Fatalf("ApplyDue: %v", err)
	}

	if !dueToday.Applied() {
		t.Fatalf("expected the due-today entry to be applied")
	}
	if dueLater.Applied() {
		t.Fatalf("expected the due-tomorrow entry to remain unapplied")
	}
}
