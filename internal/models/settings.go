package models

import "time"

// Settings holds a user's active provider and model selection. API keys are
// kept in the keyring, never here.
type Settings struct {
	UserID    string    `gorm:"type:text;primaryKey" json:"userId"`
	Provider  string    `gorm:"size:50;not null" json:"provider"`
	ModelKey  string    `gorm:"size:255" json:"modelKey"`
	UpdatedAt time.Time `json:"updatedAt"`
}
