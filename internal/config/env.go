package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/markweave/internal/logfields"
)

var envFilenames = []string{".env", ".env.local"}

// loadEnvFiles loads the first readable environment file in dir. Variables
// already set in the process environment win.
func loadEnvFiles(dir string) string {
	for _, name := range envFilenames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("Failed to load environment file", logfields.Path(p), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment file", logfields.Path(p))
		return p
	}
	return ""
}
