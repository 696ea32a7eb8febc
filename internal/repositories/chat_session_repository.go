package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"pagesmith/internal/models"
)

// ErrVersionConflict is returned when a session changed between read and
// write.
var ErrVersionConflict = errors.New("chat session version conflict")

type ChatSessionRepository interface {
	Create(ctx context.Context, session *models.ChatSession) error
	Get(ctx context.Context, id string) (*models.ChatSession, error)
	// AppendMessages stores msgs after the session's last message, assigning
	// consecutive sequence numbers.
	AppendMessages(ctx context.Context, sessionID string, msgs ...*models.ChatMessage) error
	// UpdateContext replaces the session context if the stored version still
	// equals expectedVersion, and returns the new version.
	UpdateContext(ctx context.Context, sessionID string, expectedVersion int, sessionCtx models.SessionContext) (int, error)
	UpdateStatus(ctx context.Context, sessionID string, status models.SessionStatus) error
}

type chatSessionRepository struct {
	db *gorm.DB
}

func NewChatSessionRepository(db *gorm.DB) ChatSessionRepository {
	return &chatSessionRepository{db: db}
}

func (r *chatSessionRepository) Create(ctx context.Context, session *models.ChatSession) error {
	if session.ProjectID == "" {
		return fmt.Errorf("project ID is required")
	}
	if err := r.db.WithContext(ctx).Omit("Messages").Create(session).Error; err != nil {
		return fmt.Errorf("creating chat session: %w", err)
	}
	return nil
}

func (r *chatSessionRepository) Get(ctx context.Context, id string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq ASC")
		}).
		First(&session, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("getting chat session %s: %w", id, err)
	}
	return &session, nil
}

func (r *chatSessionRepository) AppendMessages(ctx context.Context, sessionID string, msgs ...*models.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.ChatSession{}).Where("id = ?", sessionID).Count(&exists).Error; err != nil {
			return fmt.Errorf("checking chat session %s: %w", sessionID, err)
		}
		if exists == 0 {
			return fmt.Errorf("appending to chat session %s: %w", sessionID, gorm.ErrRecordNotFound)
		}

		var last int
		if err := tx.Model(&models.ChatMessage{}).
			Where("session_id = ?", sessionID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&last).Error; err != nil {
			return fmt.Errorf("reading last message seq: %w", err)
		}

		for i, msg := range msgs {
			msg.SessionID = sessionID
			msg.Seq = last + i + 1
		}
		if err := tx.Create(msgs).Error; err != nil {
			return fmt.Errorf("appending chat messages: %w", err)
		}
		return nil
	})
}

func (r *chatSessionRepository) UpdateContext(ctx context.Context, sessionID string, expectedVersion int, sessionCtx models.SessionContext) (int, error) {
	raw, err := json.Marshal(sessionCtx)
	if err != nil {
		return 0, fmt.Errorf("encoding session context: %w", err)
	}
	res := r.db.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("id = ? AND version = ?", sessionID, expectedVersion).
		Updates(map[string]any{
			"context": string(raw),
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("updating chat session %s context: %w", sessionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrVersionConflict
	}
	return expectedVersion + 1, nil
}

func (r *chatSessionRepository) UpdateStatus(ctx context.Context, sessionID string, status models.SessionStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("id = ?", sessionID).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("updating chat session %s status: %w", sessionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("updating chat session %s status: %w", sessionID, gorm.ErrRecordNotFound)
	}
	return nil
}
