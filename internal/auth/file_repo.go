package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// FileRepository stores the allowlist as a JSON array.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileRepository(path string) (*FileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("touch file: %w", err)
	}
	_ = f.Close()
	return &FileRepository{path: path}, nil
}

// LoadAll returns the stored operators. An empty file yields an empty list.
func (r *FileRepository) LoadAll() ([]Operator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()
	var ops []Operator
	if err := json.NewDecoder(f).Decode(&ops); err != nil {
		if errors.Is(err, io.EOF) {
			return []Operator{}, nil
		}
		return nil, fmt.Errorf("decode allowlist: %w", err)
	}
	return ops, nil
}

func (r *FileRepository) SaveAll(ops []Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tmp := r.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ops); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode allowlist: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return os.Rename(tmp, r.path)
}
