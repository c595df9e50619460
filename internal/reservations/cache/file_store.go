package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"carbroker/pkg/model"
)

// FileStore keeps the lock set as a JSON array in one file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// LoadLocks treats a missing or empty file as an empty set.
func (s *FileStore) LoadLocks(_ context.Context) ([]model.ReservationLock, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var locks []model.ReservationLock
	if err := json.Unmarshal(data, &locks); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return locks, nil
}

// SaveLocks writes to a temp file in the same directory and renames it over
// the target, so readers never see a half-written file.
func (s *FileStore) SaveLocks(ctx context.Context, locks []model.ReservationLock) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if locks == nil {
		locks = []model.ReservationLock{}
	}
	data, err := json.MarshalIndent(locks, "", "  ")
	if err != nil {
		return fmt.Errorf("encode locks: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename to %s: %w", s.path, err)
	}
	return nil
}
