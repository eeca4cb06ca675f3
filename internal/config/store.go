package config

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"whisper-xxl-gui/internal/domain"
	"whisper-xxl-gui/internal/logging"
)

// Store defines persistence operations for app settings.
type Store interface {
	Load() domain.Settings
	Save(domain.Settings) error
}

// JSONStore persists settings in a single JSON file on disk.
type JSONStore struct {
	path     string
	defaults func() domain.Settings
	logger   *slog.Logger
}

// NewJSONStore creates a JSON-backed settings store. appDir is where the
// conventional executable is looked up when no path is configured.
func NewJSONStore(path, appDir string, logger *slog.Logger) *JSONStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONStore{
		path: path,
		defaults: func() domain.Settings {
			return DefaultSettings(appDir)
		},
		logger: logger,
	}
}

// Path returns the settings file location.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads settings from disk. Missing, unreadable or corrupt files yield
// defaults; Load never fails.
func (s *JSONStore) Load() domain.Settings {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("settings unreadable, using defaults",
				slog.String("path", s.path),
				logging.Err(err))
		}
		return s.defaults()
	}

	var cfg domain.Settings
	if err := json.Unmarshal(data, &cfg); err != nil {
		s.logger.Warn("settings corrupt, using defaults",
			slog.String("path", s.path),
			logging.Err(err))
		return s.defaults()
	}

	cfg.ExePath = strings.TrimSpace(cfg.ExePath)
	if cfg.ExePath == "" {
		cfg.ExePath = s.defaults().ExePath
	}
	return cfg
}

// Save writes settings as indented JSON and creates parent directories.
func (s *JSONStore) Save(cfg domain.Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o644)
}
