package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"FinTune/internal/domain/models"
)

// modelArtifact is the on-disk layout of one trained model bundle. The
// configuration travels with the model so a loaded artifact is always
// self-describing.
type modelArtifact struct {
	Model   models.TrainedModel `json:"model"`
	Config  models.ModelConfig  `json:"config"`
	Scalers models.ScalerSet    `json:"scalers"`
}

// FileModelStore persists model artifacts as JSON bundles under one
// directory, one file per instrument. Writes go through a temp file plus
// rename so readers never observe a partial artifact.
type FileModelStore struct {
	dir string
}

func NewFileModelStore(dir string) (*FileModelStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("model directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}
	return &FileModelStore{dir: dir}, nil
}

func (s *FileModelStore) Exists(ctx context.Context, symbol string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(s.path(symbol))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *FileModelStore) Save(ctx context.Context, symbol string, m *models.TrainedModel, cfg models.ModelConfig, sc *models.ScalerSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sc.CheckOwner(m.ConfigKey); err != nil {
		return err
	}

	data, err := json.MarshalIndent(modelArtifact{Model: *m, Config: cfg, Scalers: *sc}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, symbol+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(symbol)); err != nil {
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}

func (s *FileModelStore) Load(ctx context.Context, symbol string) (*models.TrainedModel, *models.ScalerSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(s.path(symbol))
	if err != nil {
		return nil, nil, fmt.Errorf("read artifact: %w", err)
	}
	var art modelArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, nil, fmt.Errorf("decode artifact: %w", err)
	}
	if err := art.Scalers.CheckOwner(art.Model.ConfigKey); err != nil {
		return nil, nil, fmt.Errorf("corrupt artifact for %s: %w", symbol, err)
	}
	return &art.Model, &art.Scalers, nil
}

func (s *FileModelStore) path(symbol string) string {
	return filepath.Join(s.dir, symbol+".json")
}
