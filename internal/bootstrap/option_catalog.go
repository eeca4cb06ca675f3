package bootstrap

import (
	"whisper-xxl-gui/internal/domain"
	"whisper-xxl-gui/internal/transcribe"
)

// GetOptions returns the run-form menus with their defaults.
func (a *App) GetOptions() domain.OptionCatalog {
	return transcribe.Catalog()
}

// GetTranscriptProfiles returns the script filters offered for transcript copy.
func (a *App) GetTranscriptProfiles() []domain.TranscriptProfile {
	return transcribe.Profiles()
}
