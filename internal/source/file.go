package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Stas2664/x2-backend/internal/core"
)

// DefaultMaxFileSize caps local files and uploads (100MB).
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// FileSource is a local .csv or .xlsx file.
type FileSource struct {
	Path    string
	MaxSize int64
}

// NewFileSource returns a source for path. The extension is checked here so
// an unsupported file fails before any import starts.
func NewFileSource(path string) (*FileSource, error) {
	if _, err := ForUpload(path, nil); err != nil {
		return nil, err
	}
	return &FileSource{Path: path, MaxSize: DefaultMaxFileSize}, nil
}

func (s *FileSource) Describe() string {
	return filepath.Base(s.Path)
}

func (s *FileSource) ReadRows(ctx context.Context) ([]core.RawRow, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrFetch, err)
	}
	if s.MaxSize > 0 && info.Size() > s.MaxSize {
		return nil, fmt.Errorf("%w: file too large: %d bytes exceeds %d", core.ErrFetch, info.Size(), s.MaxSize)
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrFetch, err)
	}

	src, err := ForUpload(s.Path, data)
	if err != nil {
		return nil, err
	}
	return src.ReadRows(ctx)
}
