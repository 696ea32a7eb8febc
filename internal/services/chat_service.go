package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"pagesmith/internal/apperr"
	"pagesmith/internal/models"
	"pagesmith/internal/repositories"
)

type ChatService interface {
	Get(ctx context.Context, sessionID string) (*models.ChatSession, error)
}

type chatService struct {
	repo repositories.ChatSessionRepository
}

func NewChatService(repo repositories.ChatSessionRepository) ChatService {
	return &chatService{repo: repo}
}

// Get returns the session with its messages in order.
func (s *chatService) Get(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperr.Validation("sessionId", "is required")
	}
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("chat session", sessionID)
		}
		return nil, err
	}
	return session, nil
}
