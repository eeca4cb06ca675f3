package diagnostics

import (
	"errors"
	"fmt"
	"os"
	goruntime "runtime"
	"strings"
	"time"

	"whisper-xxl-gui/internal/domain"
)

// Diagnostic item IDs.
const (
	ItemExecutable  = "executable"
	ItemSettingsDir = "settings_dir"
)

// Checker validates the configured executable and the settings location.
type Checker struct {
	settingsDir string
	goos        string
	stat        func(string) (os.FileInfo, error)
	mkdirAll    func(string, os.FileMode) error
	createTemp  func(string, string) (*os.File, error)
	remove      func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker(settingsDir string) *Checker {
	return &Checker{
		settingsDir: settingsDir,
		goos:        goruntime.GOOS,
		stat:        os.Stat,
		mkdirAll:    os.MkdirAll,
		createTemp:  os.CreateTemp,
		remove:      os.Remove,
	}
}

// Run executes all checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkExecutable(settings.ExePath),
		c.checkSettingsDir(c.settingsDir),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkExecutable validates the configured transcription tool path.
func (c *Checker) checkExecutable(exePath string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   ItemExecutable,
		Name: "Ejecutable",
	}

	path := strings.TrimSpace(exePath)
	if path == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "La ruta del ejecutable está vacía."
		item.Hint = "Selecciona faster-whisper-xxl en la pestaña de configuración o usa Buscar automáticamente."
		return item
	}

	info, err := c.stat(path)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		if errors.Is(err, os.ErrNotExist) {
			item.Message = fmt.Sprintf("El ejecutable no existe: %s", path)
		} else {
			item.Message = fmt.Sprintf("No se puede acceder al ejecutable: %s", path)
		}
		item.Hint = "Comprueba la ruta o vuelve a descargar faster-whisper-xxl."
		return item
	}

	if info.IsDir() {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("La ruta apunta a una carpeta: %s", path)
		item.Hint = "Selecciona el archivo ejecutable dentro de la carpeta."
		return item
	}

	if c.goos != "windows" && info.Mode().Perm()&0o111 == 0 {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("El archivo no tiene permiso de ejecución: %s", path)
		item.Hint = "Ejecuta chmod +x sobre el archivo."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Ejecutable encontrado: %s", path)
	return item
}

// checkSettingsDir validates that the settings file can be written.
func (c *Checker) checkSettingsDir(dir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   ItemSettingsDir,
		Name: "Carpeta de configuración",
	}

	if strings.TrimSpace(dir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "No se pudo determinar la carpeta de configuración."
		item.Hint = "Comprueba que la variable HOME del usuario esté definida."
		return item
	}

	if err := c.mkdirAll(dir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("No se puede crear la carpeta: %s", dir)
		item.Hint = "Ajusta los permisos del directorio personal."
		return item
	}

	tmpFile, err := c.createTemp(dir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("La carpeta no admite escritura: %s", dir)
		item.Hint = "Los cambios de configuración no se podrán guardar."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Carpeta con permiso de escritura: %s", dir)
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	settingsDir string,
	goos string,
	stat func(string) (os.FileInfo, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		settingsDir: settingsDir,
		goos:        goos,
		stat:        stat,
		mkdirAll:    mkdirAll,
		createTemp:  createTemp,
		remove:      remove,
	}
}
