package models

import (
	"path"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FileStatus string

const (
	FileGenerating FileStatus = "generating"
	FileGenerated  FileStatus = "generated"
	FileError      FileStatus = "error"
)

// GeneratedFilesRoot is the directory generated projects are served from.
const GeneratedFilesRoot = "generated"

// GeneratedFile is one file of a project. Regeneration and modification
// overwrite the row for (ProjectID, FileName).
type GeneratedFile struct {
	ID        string     `gorm:"type:text;primaryKey" json:"id"`
	ProjectID string     `gorm:"type:text;not null;uniqueIndex:idx_file_project_name" json:"projectId"`
	FileName  string     `gorm:"size:255;not null;uniqueIndex:idx_file_project_name" json:"fileName"`
	FilePath  string     `gorm:"size:512;not null" json:"filePath"`
	Content   string     `gorm:"type:text" json:"content"`
	Status    FileStatus `gorm:"size:20;not null" json:"status"`
	Error     string     `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (f *GeneratedFile) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.FilePath == "" {
		f.FilePath = FilePathFor(f.ProjectID, f.FileName)
	}
	return nil
}

// FilePathFor derives the served path of a project file.
func FilePathFor(projectID, fileName string) string {
	return path.Join(GeneratedFilesRoot, projectID, fileName)
}
