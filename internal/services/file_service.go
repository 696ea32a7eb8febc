package services

import (
	"context"
	"errors"
	"strings"

	"pagesmith/internal/apperr"
	"pagesmith/internal/models"
	"pagesmith/internal/repositories"
	"pagesmith/internal/storage"
)

// ProjectFile is a stored file row with the URL it is served from.
type ProjectFile struct {
	models.GeneratedFile
	URL string `json:"url"`
}

type ProjectFiles struct {
	Files    []ProjectFile `json:"files"`
	FileList []string      `json:"fileList"`
}

type FileService interface {
	List(ctx context.Context, projectID string) (*ProjectFiles, error)
	Read(ctx context.Context, projectID, fileName string) (string, error)
	History(ctx context.Context, projectID, fileName string) ([]storage.Revision, error)
}

type fileService struct {
	repo repositories.GeneratedFileRepository
	sink storage.Sink
}

func NewFileService(repo repositories.GeneratedFileRepository, sink storage.Sink) FileService {
	return &fileService{repo: repo, sink: sink}
}

func (s *fileService) List(ctx context.Context, projectID string) (*ProjectFiles, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, apperr.Validation("projectId", "is required")
	}

	rows, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	files := make([]ProjectFile, 0, len(rows))
	for _, row := range rows {
		url, err := s.sink.URLFor(ctx, projectID, row.FileName)
		if err != nil {
			return nil, err
		}
		files = append(files, ProjectFile{GeneratedFile: row, URL: url})
	}

	names, err := s.sink.ListFiles(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &ProjectFiles{Files: files, FileList: names}, nil
}

func (s *fileService) Read(ctx context.Context, projectID, fileName string) (string, error) {
	content, err := s.sink.ReadFile(ctx, strings.TrimSpace(projectID), strings.TrimSpace(fileName))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", apperr.NotFound("file", fileName)
		}
		return "", err
	}
	return content, nil
}

// History lists recorded writes of a file. Sinks without a journal report
// an empty history.
func (s *fileService) History(ctx context.Context, projectID, fileName string) ([]storage.Revision, error) {
	if err := storage.ValidateName(projectID, fileName); err != nil {
		return nil, err
	}
	h, ok := s.sink.(storage.Historian)
	if !ok {
		return []storage.Revision{}, nil
	}
	return h.History(ctx, projectID, fileName)
}
