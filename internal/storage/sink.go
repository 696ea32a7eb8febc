// Package storage holds the sinks generated project files are written to.
// Each project is a flat namespace of file names.
package storage

import (
	"context"
	"errors"
	"strings"

	"pagesmith/internal/apperr"
)

var ErrNotFound = errors.New("file not found")

type Sink interface {
	WriteFile(ctx context.Context, projectID, name, content string) error
	ReadFile(ctx context.Context, projectID, name string) (string, error)
	// ListFiles returns the project's file names sorted by name.
	ListFiles(ctx context.Context, projectID string) ([]string, error)
	URLFor(ctx context.Context, projectID, name string) (string, error)
}

// Revision is one recorded write of a file.
type Revision struct {
	Hash    string `json:"hash"`
	Message string `json:"message"`
	When    string `json:"when"`
}

// Historian is implemented by sinks that keep a write history.
type Historian interface {
	History(ctx context.Context, projectID, name string) ([]Revision, error)
}

// ValidateName rejects names that would leave the project's flat namespace.
func ValidateName(projectID, name string) error {
	if strings.TrimSpace(projectID) == "" {
		return apperr.Validation("projectId", "is required")
	}
	if strings.ContainsAny(projectID, `/\`) || strings.Contains(projectID, "..") {
		return apperr.Validation("projectId", "invalid project id %q", projectID)
	}
	if strings.TrimSpace(name) == "" {
		return apperr.Validation("fileName", "is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return apperr.Validation("fileName", "invalid file name %q", name)
	}
	return nil
}
