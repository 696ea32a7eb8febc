//go:build prod

package database

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// GetDefaultDBPath returns the database path for production builds.
// The database lives in the user's config directory.
func GetDefaultDBPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		log.Warn().Err(err).Msg("user config dir unavailable, using working directory")
		return "pagesmith.db"
	}

	appDir := filepath.Join(configDir, "pagesmith")
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", appDir).Msg("cannot create app config dir, using working directory")
		return "pagesmith.db"
	}

	return filepath.Join(appDir, "pagesmith.db")
}

func IsDevelopment() bool {
	return false
}
