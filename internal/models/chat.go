package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type WorkflowStatus string

const (
	WorkflowPending    WorkflowStatus = "pending"
	WorkflowInProgress WorkflowStatus = "in-progress"
	WorkflowCompleted  WorkflowStatus = "completed"
	WorkflowError      WorkflowStatus = "error"
)

// Workflow steps in the order a project moves through them.
const (
	StepAnalysis     = 1
	StepStructure    = 2
	StepContent      = 3
	StepModification = 4
)

var stepNames = map[int]string{
	StepAnalysis:     "Requirements Analysis",
	StepStructure:    "File Structure",
	StepContent:      "Content Generation",
	StepModification: "Modification",
}

// Workflow annotates a chat message with the pipeline step it reports on.
// Data is a point-in-time snapshot for display only.
type Workflow struct {
	Step     int             `json:"step"`
	StepName string          `json:"stepName"`
	Status   WorkflowStatus  `json:"status"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// NewWorkflow builds a Workflow for step, marshalling data when non-nil.
func NewWorkflow(step int, status WorkflowStatus, data any) *Workflow {
	wf := &Workflow{Step: step, StepName: stepNames[step], Status: status}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			wf.Data = raw
		}
	}
	return wf
}

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionError     SessionStatus = "error"
)

// SessionContext carries the stage outputs later stages consume. It is kept
// on the session row, separate from the transcript.
type SessionContext struct {
	AnalysisResult *AnalysisResult `json:"analysisResult,omitempty"`
	FileStructure  *FileStructure  `json:"fileStructure,omitempty"`
}

// ChatSession is guarded by Version: context updates must present the
// version they read.
type ChatSession struct {
	ID        string         `gorm:"type:text;primaryKey" json:"id"`
	ProjectID string         `gorm:"type:text;not null;index" json:"projectId"`
	Status    SessionStatus  `gorm:"size:20;not null;default:active" json:"status"`
	Version   int            `gorm:"not null;default:1" json:"version"`
	Context   SessionContext `gorm:"type:text;serializer:json" json:"context"`
	Messages  []ChatMessage  `gorm:"foreignKey:SessionID" json:"messages"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (s *ChatSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Version == 0 {
		s.Version = 1
	}
	if s.Status == "" {
		s.Status = SessionActive
	}
	return nil
}

// ChatMessage rows are append-only and ordered by Seq within a session.
type ChatMessage struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	SessionID string    `gorm:"type:text;not null;uniqueIndex:idx_message_session_seq" json:"-"`
	Seq       int       `gorm:"not null;uniqueIndex:idx_message_session_seq" json:"seq"`
	Role      Role      `gorm:"size:20;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Workflow  *Workflow `gorm:"type:text;serializer:json" json:"workflow,omitempty"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return nil
}
