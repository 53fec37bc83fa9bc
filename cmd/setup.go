package cmd

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/smegmarip/live-recognition/internal/config"
	"github.com/smegmarip/live-recognition/internal/settings"
)

// loadConfig loads the process configuration and applies command-line
// overrides and logging setup
func loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level := mustGetString(cmd, "log-level"); level != "" {
		cfg.Log.Level = level
	}
	if err := setupLogging(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(c config.LogConfig) error {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	log.SetLevel(level)

	switch strings.ToLower(c.Format) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// settingsStorage returns the persistence backend for user settings
func settingsStorage(cfg *config.AppConfig) settings.Storage {
	if cfg.Settings.Ephemeral {
		log.Info("Settings are ephemeral and will not be persisted")
		return &settings.MemoryStorage{}
	}
	return settings.NewFileStorage(cfg.Settings.Path)
}

// openStore creates a settings store and loads the persisted record
func openStore(cfg *config.AppConfig) *settings.Store {
	store := settings.NewStore(settingsStorage(cfg))
	loadSettings(store)
	return store
}

// loadSettings loads the persisted record. A persistence failure is
// logged; the store falls back to defaults.
func loadSettings(store *settings.Store) {
	if _, err := store.Load(); err != nil {
		log.Warnf("Using default settings: %v", err)
	}
}
