package datasource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yourusername/peloton/internal/models"
)

// FileSource reads <eventID>.json pools and <eventID>.result.json results from a directory
type FileSource struct {
	dir string
}

// NewFileSource creates a file-backed pool source rooted at dir
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Name returns the name of the data source
func (s *FileSource) Name() string {
	return "file"
}

// Check verifies the source directory exists
func (s *FileSource) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrSourceUnavailable, s.dir)
	}
	return nil
}

// FetchPool loads the event's pool file
func (s *FileSource) FetchPool(ctx context.Context, eventID string) (*EventPool, error) {
	f, err := s.open(ctx, eventID+".json")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pool, err := DecodePool(f)
	if err != nil {
		return nil, fmt.Errorf("pool %s: %w", eventID, err)
	}
	if pool.EventID != eventID {
		return nil, fmt.Errorf("%w: file for %s declares event %s", ErrInvalidData, eventID, pool.EventID)
	}
	return pool, nil
}

// FetchResult loads the event's result file
func (s *FileSource) FetchResult(ctx context.Context, eventID string) (*models.EventResult, error) {
	f, err := s.open(ctx, eventID+".result.json")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result, err := DecodeResult(f)
	if err != nil {
		return nil, fmt.Errorf("result %s: %w", eventID, err)
	}
	return result, nil
}

func (s *FileSource) open(ctx context.Context, name string) (*os.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name != filepath.Base(name) {
		return nil, fmt.Errorf("%w: invalid event id in %q", ErrInvalidData, name)
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return f, nil
}
