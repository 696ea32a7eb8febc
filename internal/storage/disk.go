package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/spf13/afero"

	"pagesmith/internal/models"
)

// DiskSink stores files as <root>/<projectID>/<name> on an afero filesystem.
type DiskSink struct {
	fs      afero.Fs
	baseURL string
}

// NewDiskSink returns a sink rooted at dir on the OS filesystem.
func NewDiskSink(dir, baseURL string) (*DiskSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating generated dir %s: %w", dir, err)
	}
	return NewDiskSinkFs(afero.NewBasePathFs(afero.NewOsFs(), dir), baseURL), nil
}

// NewDiskSinkFs returns a sink over an arbitrary afero filesystem.
func NewDiskSinkFs(fsys afero.Fs, baseURL string) *DiskSink {
	return &DiskSink{fs: fsys, baseURL: baseURL}
}

func (s *DiskSink) WriteFile(ctx context.Context, projectID, name, content string) error {
	if err := ValidateName(projectID, name); err != nil {
		return err
	}
	if err := s.fs.MkdirAll(projectID, 0o755); err != nil {
		return fmt.Errorf("error creating directory %s: %w", projectID, err)
	}
	if err := afero.WriteFile(s.fs, path.Join(projectID, name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("error writing file %s: %w", name, err)
	}
	return nil
}

func (s *DiskSink) ReadFile(ctx context.Context, projectID, name string) (string, error) {
	if err := ValidateName(projectID, name); err != nil {
		return "", err
	}
	data, err := afero.ReadFile(s.fs, path.Join(projectID, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("reading %s: %w", name, ErrNotFound)
		}
		return "", fmt.Errorf("error reading file %s: %w", name, err)
	}
	return string(data), nil
}

func (s *DiskSink) ListFiles(ctx context.Context, projectID string) ([]string, error) {
	if err := ValidateName(projectID, "x"); err != nil {
		return nil, err
	}
	entries, err := afero.ReadDir(s.fs, projectID)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("error listing %s: %w", projectID, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || ValidateName(projectID, entry.Name()) != nil {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *DiskSink) URLFor(ctx context.Context, projectID, name string) (string, error) {
	if err := ValidateName(projectID, name); err != nil {
		return "", err
	}
	return s.baseURL + "/" + models.FilePathFor(projectID, name), nil
}
