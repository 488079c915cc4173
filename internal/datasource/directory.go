package datasource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	handicaplog "github.com/yourusername/clever-handicapper/internal/logger"
	"github.com/yourusername/clever-handicapper/internal/models"
)

// FileSource serves a single snapshot file
type FileSource struct {
	path string
}

// NewFileSource creates a source over one JSON file
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the source name
func (s *FileSource) Name() string {
	return "file"
}

// Races loads the file
func (s *FileSource) Races(ctx context.Context) ([]*models.RaceSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snapshot, err := LoadSnapshot(s.path)
	if err != nil {
		return nil, err
	}
	return []*models.RaceSnapshot{snapshot}, nil
}

// DirectorySource serves every *.json snapshot in a directory, sorted by file name
type DirectorySource struct {
	dir    string
	logger *logrus.Entry
}

// NewDirectorySource creates a directory source; a nil logger discards output
func NewDirectorySource(dir string, logger *logrus.Logger) *DirectorySource {
	if logger == nil {
		logger = handicaplog.Discard()
	}
	return &DirectorySource{
		dir:    dir,
		logger: logger.WithField("component", "datasource"),
	}
}

// Name returns the source name
func (s *DirectorySource) Name() string {
	return "directory"
}

// Races loads each snapshot file; a file that fails to decode aborts the listing
func (s *DirectorySource) Races(ctx context.Context) ([]*models.RaceSnapshot, error) {
	info, err := os.Stat(s.dir)
	if err != nil || !info.IsDir() {
		return nil, NewSourceError(s.Name(), ErrCodeNotFound, s.dir, ErrNotFound)
	}

	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}
	sort.Strings(paths)

	snapshots := make([]*models.RaceSnapshot, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snapshot, err := LoadSnapshot(path)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	s.logger.WithFields(logrus.Fields{
		"dir":   s.dir,
		"races": len(snapshots),
	}).Debug("Loaded race snapshots")
	return snapshots, nil
}
