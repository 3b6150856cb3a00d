package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"FinCast/internal/domain/models"
)

func testArtifact(symbol string, horizon int, date string) *models.ModelArtifact {
	return &models.ModelArtifact{
		Key:       models.ArtifactKey{Symbol: symbol, Horizon: horizon, Date: date},
		ModelBlob: []byte("weights"),
		FeatureScaler: &models.MinMaxScaler{
			Min: []float64{0, 0}, Max: []float64{1, 2},
		},
		TargetScaler: &models.MinMaxScaler{
			Min: []float64{-1}, Max: []float64{1},
		},
		Metadata: models.ArtifactMetadata{
			TrainedAt: time.Date(2025, 1, 2, 3, 0, 0, 0, time.UTC),
			Samples:   2821,
			Loss:      0.004,
		},
	}
}

func TestFileArtifactStoreSaveLoad(t *testing.T) {
	store, err := NewFileArtifactStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	art := testArtifact("btcusdt", 12, "20250102")
	if err := store.Save(ctx, art); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx, art.Key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Key != art.Key {
		t.Fatalf("key = %+v, want %+v", got.Key, art.Key)
	}
	if string(got.ModelBlob) != "weights" {
		t.Fatalf("blob = %q", got.ModelBlob)
	}
	if got.FeatureScaler.Max[1] != 2 || got.TargetScaler.Min[0] != -1 {
		t.Fatalf("scalers not round-tripped: %+v", got)
	}
	if got.Metadata.Samples != 2821 {
		t.Fatalf("metadata samples = %d", got.Metadata.Samples)
	}
}

func TestFileArtifactStoreList(t *testing.T) {
	store, err := NewFileArtifactStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	for _, h := range []int{1, 30, 60} {
		if err := store.Save(ctx, testArtifact("btcusdt", h, "20250102")); err != nil {
			t.Fatalf("save h%d: %v", h, err)
		}
	}
	if err := store.Save(ctx, testArtifact("ethusdt", 1, "20250102")); err != nil {
		t.Fatalf("save eth: %v", err)
	}

	keys, err := store.List(ctx, "btcusdt")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("keys = %d, want 3", len(keys))
	}
	for _, k := range keys {
		if k.Symbol != "btcusdt" {
			t.Fatalf("foreign symbol in listing: %+v", k)
		}
	}
}

func TestFileArtifactStoreUppercaseSymbol(t *testing.T) {
	store, err := NewFileArtifactStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, testArtifact("BTCUSDT", 5, "20250102")); err != nil {
		t.Fatalf("save: %v", err)
	}
	keys, err := store.List(ctx, "BTCUSDT")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 1 || keys[0].Symbol != "BTCUSDT" {
		t.Fatalf("keys = %+v", keys)
	}
	// A listed key must load without re-casing by the caller.
	if _, err := store.Load(ctx, keys[0]); err != nil {
		t.Fatalf("load listed key: %v", err)
	}
}

func TestFileArtifactStoreListSkipsForeignFiles(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileArtifactStore(root)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, testArtifact("btcusdt", 1, "20250102")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "btcusdt", "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write foreign file: %v", err)
	}

	keys, err := store.List(ctx, "btcusdt")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("keys = %d, want 1", len(keys))
	}
}

func TestFileArtifactStoreListMissingSymbol(t *testing.T) {
	store, err := NewFileArtifactStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	keys, err := store.List(context.Background(), "nosuch")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("keys = %d, want 0", len(keys))
	}
}

func TestFileArtifactStoreDeleteDay(t *testing.T) {
	store, err := NewFileArtifactStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	for _, date := range []string{"20250101", "20250102"} {
		for _, h := range []int{1, 30} {
			if err := store.Save(ctx, testArtifact("btcusdt", h, date)); err != nil {
				t.Fatalf("save: %v", err)
			}
		}
	}

	if err := store.DeleteDay(ctx, "btcusdt", "20250101"); err != nil {
		t.Fatalf("delete day: %v", err)
	}
	keys, err := store.List(ctx, "btcusdt")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("keys = %d, want 2", len(keys))
	}
	for _, k := range keys {
		if k.Date != "20250102" {
			t.Fatalf("stale key survived: %+v", k)
		}
	}
}

func TestFileArtifactStoreLoadMissing(t *testing.T) {
	store, err := NewFileArtifactStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	_, err = store.Load(context.Background(), models.ArtifactKey{Symbol: "btcusdt", Horizon: 1, Date: "20250102"})
	if err == nil {
		t.Fatalf("expected error for missing artifact")
	}
}
