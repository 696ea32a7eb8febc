package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pagesmith/internal/models"
)

type GeneratedFileRepository interface {
	// Upsert creates the file row or overwrites content, status and error of
	// the existing row for (ProjectID, FileName).
	Upsert(ctx context.Context, file *models.GeneratedFile) error
	// MarkStatus creates the row or overwrites only status and error, keeping
	// any stored content.
	MarkStatus(ctx context.Context, file *models.GeneratedFile) error
	Get(ctx context.Context, projectID, fileName string) (*models.GeneratedFile, error)
	ListByProject(ctx context.Context, projectID string) ([]models.GeneratedFile, error)
}

type generatedFileRepository struct {
	db *gorm.DB
}

func NewGeneratedFileRepository(db *gorm.DB) GeneratedFileRepository {
	return &generatedFileRepository{db: db}
}

func (r *generatedFileRepository) Upsert(ctx context.Context, file *models.GeneratedFile) error {
	return r.upsert(ctx, file, "file_path", "content", "status", "error", "updated_at")
}

func (r *generatedFileRepository) MarkStatus(ctx context.Context, file *models.GeneratedFile) error {
	return r.upsert(ctx, file, "file_path", "status", "error", "updated_at")
}

func (r *generatedFileRepository) upsert(ctx context.Context, file *models.GeneratedFile, columns ...string) error {
	if file.ProjectID == "" {
		return fmt.Errorf("project ID is required")
	}
	if file.FileName == "" {
		return fmt.Errorf("file name is required")
	}
	if file.FilePath == "" {
		file.FilePath = models.FilePathFor(file.ProjectID, file.FileName)
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "file_name"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(file).Error
	if err != nil {
		return fmt.Errorf("saving generated file %s: %w", file.FileName, err)
	}
	// On conflict the stored row keeps its original id, creation time and,
	// for status updates, its content. file still holds the id minted for the
	// discarded insert, so reload into a fresh value.
	var stored models.GeneratedFile
	err = r.db.WithContext(ctx).
		Where("project_id = ? AND file_name = ?", file.ProjectID, file.FileName).
		Take(&stored).Error
	if err != nil {
		return fmt.Errorf("reloading generated file %s: %w", file.FileName, err)
	}
	*file = stored
	return nil
}

func (r *generatedFileRepository) Get(ctx context.Context, projectID, fileName string) (*models.GeneratedFile, error) {
	var file models.GeneratedFile
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND file_name = ?", projectID, fileName).
		First(&file).Error
	if err != nil {
		return nil, fmt.Errorf("getting generated file %s: %w", fileName, err)
	}
	return &file, nil
}

func (r *generatedFileRepository) ListByProject(ctx context.Context, projectID string) ([]models.GeneratedFile, error) {
	var files []models.GeneratedFile
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC, file_name ASC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("listing generated files for %s: %w", projectID, err)
	}
	return files, nil
}
