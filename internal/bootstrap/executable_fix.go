package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"whisper-xxl-gui/internal/config"
	"whisper-xxl-gui/internal/diagnostics"
	"whisper-xxl-gui/internal/domain"
)

// releaseFolder is the directory name inside the upstream release archives.
const releaseFolder = "Faster-Whisper-XXL"

// ErrExecutableNotFound is returned when no candidate location holds the tool.
var ErrExecutableNotFound = errors.New("faster-whisper-xxl not found")

// FixDiagnostic applies a remediation for one failed diagnostic item.
func (a *App) FixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	switch strings.TrimSpace(itemID) {
	case diagnostics.ItemExecutable:
		if _, err := a.LocateExecutable(); err != nil {
			return a.RefreshDiagnostics(), err
		}
		return a.GetDiagnostics(), nil
	case diagnostics.ItemSettingsDir:
		// The check itself creates the directory when it can.
		report := a.RefreshDiagnostics()
		if report.ItemFailed(diagnostics.ItemSettingsDir) {
			return report, fmt.Errorf("settings directory is still not writable")
		}
		return report, nil
	case "":
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", itemID)
	}
}

// LocateExecutable searches the conventional install locations, then PATH,
// and saves the first match as the configured executable.
func (a *App) LocateExecutable() (domain.Settings, error) {
	path, err := locateExecutable(a.searchDirs(), exec.LookPath, os.Stat)
	if err != nil {
		return domain.Settings{}, err
	}

	settings := a.GetSettings()
	settings.ExePath = path
	return a.SaveSettings(settings)
}

// searchDirs lists directories that may hold the tool, most specific first.
func (a *App) searchDirs() []string {
	dirs := make([]string, 0, 4)
	if a.appDir != "" {
		dirs = append(dirs, a.appDir, filepath.Join(a.appDir, releaseFolder))
	}
	if wd, err := os.Getwd(); err == nil && wd != a.appDir {
		dirs = append(dirs, wd, filepath.Join(wd, releaseFolder))
	}
	return dirs
}

func locateExecutable(
	dirs []string,
	lookPath func(string) (string, error),
	stat func(string) (os.FileInfo, error),
) (string, error) {
	for _, dir := range dirs {
		if path := config.SiblingExecutable(dir, stat); path != "" {
			return path, nil
		}
	}

	path, err := lookPath(config.ExecutableName)
	if err == nil {
		if abs, absErr := filepath.Abs(path); absErr == nil {
			return abs, nil
		}
		return path, nil
	}

	return "", fmt.Errorf("%w: searched %s and PATH", ErrExecutableNotFound, strings.Join(dirs, ", "))
}
