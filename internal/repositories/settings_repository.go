package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pagesmith/internal/models"
)

type SettingsRepository interface {
	// Get returns the stored settings for userID, or defaultProvider with no
	// model selection when none are stored.
	Get(ctx context.Context, userID, defaultProvider string) (*models.Settings, error)
	Save(ctx context.Context, settings *models.Settings) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, userID, defaultProvider string) (*models.Settings, error) {
	var settings models.Settings
	if err := r.db.WithContext(ctx).First(&settings, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.Settings{UserID: userID, Provider: defaultProvider}, nil
		}
		return nil, fmt.Errorf("getting settings for %s: %w", userID, err)
	}
	return &settings, nil
}

func (r *settingsRepository) Save(ctx context.Context, settings *models.Settings) error {
	if settings.UserID == "" {
		return fmt.Errorf("user ID is required")
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"provider", "model_key", "updated_at"}),
	}).Create(settings).Error
	if err != nil {
		return fmt.Errorf("saving settings for %s: %w", settings.UserID, err)
	}
	return nil
}
