package correspondence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("correspondence table not found")

type Store interface {
	Save(ctx context.Context, t *Table) error
	Load(ctx context.Context) (*Table, error)
}

// FileStore keeps the table as a JSON object on disk.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Save(_ context.Context, t *Table) error {
	data, err := t.MarshalJSON()
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, ".correspondence-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write correspondence table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}

func (s *FileStore) Load(_ context.Context) (*Table, error) {
	data, err := os.ReadFile(filepath.Clean(s.Path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read correspondence table: %w", err)
	}
	return Decode(data)
}
