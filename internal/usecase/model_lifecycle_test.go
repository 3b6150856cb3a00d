package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"FinCast/internal/domain/models"
)

func newTestLifecycle(t *testing.T, store *memArtifactStore, now time.Time) *ModelLifecycle {
	t.Helper()
	fb, err := NewFeatureBuilder([]int{1, 5, 15})
	if err != nil {
		t.Fatalf("feature builder: %v", err)
	}
	lc := NewModelLifecycle(store, stubTrainer{}, fb, testPartition(), newCountingMetrics(), nil)
	lc.SetNow(func() time.Time { return now })
	return lc
}

func TestTrainAllProducesFullSet(t *testing.T) {
	now := time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)
	store := newMemArtifactStore()
	lc := newTestLifecycle(t, store, now)
	history := genCandles("btcusdt", now.Add(-20*time.Hour), 1100)

	arts, err := lc.TrainAll(context.Background(), "btcusdt", history)
	if err != nil {
		t.Fatalf("train all: %v", err)
	}
	if len(arts) != 3 {
		t.Fatalf("artifacts = %d, want 3", len(arts))
	}
	for _, h := range testPartition() {
		art, ok := arts[h.ID]
		if !ok {
			t.Fatalf("missing horizon %d", h.ID)
		}
		if art.Key.Date != "20250102" {
			t.Fatalf("horizon %d date = %s", h.ID, art.Key.Date)
		}
		if art.FeatureScaler == nil || art.TargetScaler == nil {
			t.Fatalf("horizon %d missing scalers", h.ID)
		}
		if art.Metadata.Samples == 0 {
			t.Fatalf("horizon %d has no samples", h.ID)
		}
	}
}

func TestTrainAllInsufficientHistory(t *testing.T) {
	now := time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)
	lc := newTestLifecycle(t, newMemArtifactStore(), now)
	history := genCandles("btcusdt", now.Add(-time.Hour), 30)

	_, err := lc.TrainAll(context.Background(), "btcusdt", history)
	if !errors.Is(err, ErrIncompleteModelSet) {
		t.Fatalf("expected ErrIncompleteModelSet, got %v", err)
	}
}

func TestCheckValidityRejectsStaleSet(t *testing.T) {
	now := time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)
	store := newMemArtifactStore()

	// Train a full set dated yesterday.
	lcYesterday := newTestLifecycle(t, store, now.Add(-24*time.Hour))
	history := genCandles("btcusdt", now.Add(-44*time.Hour), 1100)
	if _, err := lcYesterday.TrainAll(context.Background(), "btcusdt", history); err != nil {
		t.Fatalf("train: %v", err)
	}

	lc := newTestLifecycle(t, store, now)
	valid, _, _ := lc.CheckValidity(context.Background(), "btcusdt")
	if valid {
		t.Fatalf("yesterday's set reported valid")
	}
}

func TestCheckValidityRejectsPartialSet(t *testing.T) {
	now := time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)
	store := newMemArtifactStore()
	lc := newTestLifecycle(t, store, now)
	history := genCandles("btcusdt", now.Add(-20*time.Hour), 1100)

	if _, err := lc.TrainAll(context.Background(), "btcusdt", history); err != nil {
		t.Fatalf("train: %v", err)
	}
	// Drop one horizon's artifact.
	key := models.ArtifactKey{Symbol: "btcusdt", Horizon: 30, Date: "20250102"}
	delete(store.arts, key.String())

	valid, _, _ := lc.CheckValidity(context.Background(), "btcusdt")
	if valid {
		t.Fatalf("partial set reported valid")
	}
}

func TestSessionReusesValidSet(t *testing.T) {
	now := time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)
	store := newMemArtifactStore()
	lc := newTestLifecycle(t, store, now)
	history := genCandles("btcusdt", now.Add(-20*time.Hour), 1100)

	sess1, err := lc.Session(context.Background(), "btcusdt", history)
	if err != nil {
		t.Fatalf("first session: %v", err)
	}
	trained := len(store.arts)

	sess2, err := lc.Session(context.Background(), "btcusdt", history)
	if err != nil {
		t.Fatalf("second session: %v", err)
	}
	if len(store.arts) != trained {
		t.Fatalf("second session retrained: %d -> %d artifacts", trained, len(store.arts))
	}
	if len(sess1.Models) != 3 || len(sess2.Models) != 3 {
		t.Fatalf("sessions incomplete: %d/%d models", len(sess1.Models), len(sess2.Models))
	}
}

func TestSessionRetrainsOnCorruptModelBlob(t *testing.T) {
	now := time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)
	store := newMemArtifactStore()
	history := genCandles("btcusdt", now.Add(-20*time.Hour), 1100)

	fb, err := NewFeatureBuilder([]int{1, 5, 15})
	if err != nil {
		t.Fatalf("feature builder: %v", err)
	}
	trainer := &countingTrainer{}
	lc := NewModelLifecycle(store, trainer, fb, testPartition(), newCountingMetrics(), nil)
	lc.SetNow(func() time.Time { return now })

	if _, err := lc.TrainAll(context.Background(), "btcusdt", history); err != nil {
		t.Fatalf("train: %v", err)
	}
	trained := trainer.trains

	// Corrupt every stored payload. The set still passes CheckValidity since
	// validity never exercises the blob.
	for _, art := range store.arts {
		art.ModelBlob = []byte("not a model")
	}
	if valid, _, _ := lc.CheckValidity(context.Background(), "btcusdt"); !valid {
		t.Fatalf("corrupted set rejected by CheckValidity, cannot exercise load path")
	}

	sess, err := lc.Session(context.Background(), "btcusdt", history)
	if err != nil {
		t.Fatalf("session after corruption: %v", err)
	}
	if trainer.trains != trained*2 {
		t.Fatalf("trains = %d, want %d (full retrain after corrupt load)", trainer.trains, trained*2)
	}
	if len(sess.Models) != len(testPartition()) {
		t.Fatalf("models = %d, want %d", len(sess.Models), len(testPartition()))
	}
	for _, art := range store.arts {
		if string(art.ModelBlob) == "not a model" {
			t.Fatalf("corrupt artifact %s survived the retrain", art.Key.String())
		}
	}
}

func TestSessionRetrainsAcrossMidnight(t *testing.T) {
	day1 := time.Date(2025, 1, 2, 23, 30, 0, 0, time.UTC)
	store := newMemArtifactStore()
	lc := newTestLifecycle(t, store, day1)
	history := genCandles("btcusdt", day1.Add(-20*time.Hour), 1400)

	if _, err := lc.Session(context.Background(), "btcusdt", history); err != nil {
		t.Fatalf("day1 session: %v", err)
	}

	day2 := day1.Add(2 * time.Hour) // 2025-01-03 01:30
	lc.SetNow(func() time.Time { return day2 })
	if _, err := lc.Session(context.Background(), "btcusdt", history); err != nil {
		t.Fatalf("day2 session: %v", err)
	}

	// Old day's artifacts are cleaned before retraining.
	for _, art := range store.arts {
		if art.Key.Date != "20250103" {
			t.Fatalf("stale artifact survived: %s", art.Key.String())
		}
	}
	if len(store.arts) != 3 {
		t.Fatalf("artifacts = %d, want 3", len(store.arts))
	}
}

func TestCleanupObsoleteKeepsToday(t *testing.T) {
	now := time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)
	store := newMemArtifactStore()
	lc := newTestLifecycle(t, store, now)

	for _, date := range []string{"20241230", "20250101", "20250102"} {
		store.Save(context.Background(), &models.ModelArtifact{
			Key: models.ArtifactKey{Symbol: "btcusdt", Horizon: 1, Date: date},
		})
	}
	if err := lc.CleanupObsolete(context.Background(), "btcusdt"); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if len(store.arts) != 1 {
		t.Fatalf("artifacts = %d, want 1", len(store.arts))
	}
	for _, art := range store.arts {
		if art.Key.Date != "20250102" {
			t.Fatalf("kept wrong date %s", art.Key.Date)
		}
	}
}
