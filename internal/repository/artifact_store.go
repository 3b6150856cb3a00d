package repository

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"FinCast/internal/domain/models"
	applogger "FinCast/pkg/logger"
)

const artifactExt = ".gob"

// FileArtifactStore keeps model artifacts on local disk, one gob file per
// (symbol, horizon, day) under <root>/<symbol>/. Artifacts are small and
// rebuilt daily, so a shared filesystem is not required.
type FileArtifactStore struct {
	root string
	l    *applogger.Logger
}

func NewFileArtifactStore(root string) (*FileArtifactStore, error) {
	if root == "" {
		return nil, fmt.Errorf("artifact store root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root: %w", err)
	}
	return &FileArtifactStore{root: root}, nil
}

// SetLogger injects a structured logger.
func (s *FileArtifactStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *FileArtifactStore) Save(_ context.Context, art *models.ModelArtifact) error {
	dir := filepath.Join(s.root, art.Key.Symbol)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create symbol dir: %w", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(art); err != nil {
		return fmt.Errorf("encode artifact %s: %w", art.Key.String(), err)
	}

	// Write-then-rename so readers never observe a half-written artifact.
	final := filepath.Join(dir, art.Key.String()+artifactExt)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename artifact: %w", err)
	}
	if s.l != nil {
		s.l.Debug("artifact saved",
			applogger.String("key", art.Key.String()),
			applogger.Int("bytes", buf.Len()),
		)
	}
	return nil
}

func (s *FileArtifactStore) Load(_ context.Context, key models.ArtifactKey) (*models.ModelArtifact, error) {
	path := filepath.Join(s.root, key.Symbol, key.String()+artifactExt)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", key.String(), err)
	}
	var art models.ModelArtifact
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&art); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", key.String(), err)
	}
	return &art, nil
}

func (s *FileArtifactStore) List(_ context.Context, symbol string) ([]models.ArtifactKey, error) {
	dir := filepath.Join(s.root, symbol)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	keys := make([]models.ArtifactKey, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		key, err := models.ParseArtifactKey(e.Name())
		if err != nil {
			// Foreign files in the artifact dir are ignored, not fatal.
			if s.l != nil {
				s.l.Warn("skipping unrecognized artifact file",
					applogger.String("symbol", symbol),
					applogger.String("file", e.Name()),
				)
			}
			continue
		}
		// Filenames carry the lowercased symbol; the directory is authoritative.
		key.Symbol = symbol
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *FileArtifactStore) DeleteDay(ctx context.Context, symbol, date string) error {
	keys, err := s.List(ctx, symbol)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if key.Date != date {
			continue
		}
		path := filepath.Join(s.root, symbol, key.String()+artifactExt)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove artifact %s: %w", key.String(), err)
		}
	}
	return nil
}
