package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio"
)

// Storage is durable local storage for the single persisted settings record.
// Read returns an error satisfying errors.Is(err, fs.ErrNotExist) when no
// record has been written yet.
type Storage interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Remove() error
}

// FileStorage keeps the record in one JSON file. Writes go to a temporary
// file that is renamed over the target, so readers never observe a partial
// record.
type FileStorage struct {
	Path string
}

// NewFileStorage creates a file-backed storage at path
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{Path: path}
}

func (f *FileStorage) Read() ([]byte, error) {
	return os.ReadFile(f.Path)
}

func (f *FileStorage) Write(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := renameio.WriteFile(f.Path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

func (f *FileStorage) Remove() error {
	err := os.Remove(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryStorage is a process-local Storage used for ephemeral runs and tests
type MemoryStorage struct {
	mu   sync.Mutex
	data []byte
	// FailWrites makes every Write fail, for exercising persistence errors
	FailWrites bool
}

func (m *MemoryStorage) Read() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, fs.ErrNotExist
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryStorage) Write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return errors.New("storage unavailable")
	}
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStorage) Remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}
