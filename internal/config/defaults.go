package config

import (
	"os"
	"path/filepath"
	goruntime "runtime"

	"whisper-xxl-gui/internal/domain"
)

// ExecutableName is the conventional base name of the transcription tool.
const ExecutableName = "faster-whisper-xxl"

// ExecutableFileName returns the platform file name of the transcription tool.
func ExecutableFileName() string {
	if goruntime.GOOS == "windows" {
		return ExecutableName + ".exe"
	}
	return ExecutableName
}

// DefaultPath returns the fixed settings file location under the user home.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".whisper-xxl-gui", "config.json"), nil
}

// AppDir returns the directory that holds the running binary.
func AppDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// DefaultSettings returns first-launch settings for an app installed in appDir.
func DefaultSettings(appDir string) domain.Settings {
	return domain.Settings{
		ExePath: SiblingExecutable(appDir, os.Stat),
	}
}

// SiblingExecutable returns the conventional tool path inside dir, or "" when
// no such regular file exists.
func SiblingExecutable(dir string, stat func(string) (os.FileInfo, error)) string {
	if dir == "" {
		return ""
	}
	candidate := filepath.Join(dir, ExecutableFileName())
	info, err := stat(candidate)
	if err != nil || info.IsDir() {
		return ""
	}
	return candidate
}
