package transcribe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"whisper-xxl-gui/internal/domain"
)

// Validator checks job requests against the filesystem.
type Validator struct {
	stat func(name string) (os.FileInfo, error)
}

// NewValidator builds a validator backed by os.Stat.
func NewValidator() *Validator {
	return &Validator{stat: os.Stat}
}

// NewValidatorForTests builds a validator with an injected stat function.
func NewValidatorForTests(stat func(name string) (os.FileInfo, error)) *Validator {
	return &Validator{stat: stat}
}

// Prepare validates req and returns the normalized request plus the full
// argument vector, program first. Nothing is spawned here.
func (v *Validator) Prepare(req domain.JobRequest) (domain.JobRequest, []string, error) {
	req.ExePath = strings.TrimSpace(req.ExePath)
	req.InputPath = strings.TrimSpace(req.InputPath)
	req.OutputDir = strings.TrimSpace(req.OutputDir)

	if err := v.checkExecutable(req.ExePath); err != nil {
		return domain.JobRequest{}, nil, err
	}
	if req.InputPath == "" {
		return domain.JobRequest{}, nil, &RequestError{
			Kind:    ErrInput,
			Field:   "inputPath",
			Message: "Selecciona un archivo de audio.",
		}
	}
	if req.OutputDir == "" {
		req.OutputDir = filepath.Dir(req.InputPath)
	}

	argv, err := BuildArgs(req)
	if err != nil {
		return domain.JobRequest{}, nil, err
	}
	return req, argv, nil
}

// checkExecutable requires a non-empty path to an existing regular file.
func (v *Validator) checkExecutable(path string) error {
	if path == "" {
		return &RequestError{
			Kind:    ErrConfiguration,
			Field:   "exePath",
			Message: "Configura la ruta del ejecutable.",
		}
	}

	info, err := v.stat(path)
	if err != nil {
		return &RequestError{
			Kind:    ErrConfiguration,
			Field:   "exePath",
			Message: fmt.Sprintf("No se encuentra el ejecutable: %s", path),
			Err:     err,
		}
	}
	if info.IsDir() {
		return &RequestError{
			Kind:    ErrConfiguration,
			Field:   "exePath",
			Message: fmt.Sprintf("La ruta del ejecutable es una carpeta: %s", path),
		}
	}
	return nil
}

// BuildArgs maps form labels to tool tokens and returns the argument vector.
// The bare input path precedes all flags.
func BuildArgs(req domain.JobRequest) ([]string, error) {
	language, err := lookupToken(Languages, req.Language)
	if err != nil {
		return nil, err
	}
	task, err := lookupToken(Tasks, req.Task)
	if err != nil {
		return nil, err
	}
	format, err := lookupToken(Formats, req.Format)
	if err != nil {
		return nil, err
	}
	model, err := lookupToken(Models, req.Model)
	if err != nil {
		return nil, err
	}

	return []string{
		req.ExePath,
		req.InputPath,
		Languages.Flag, language,
		Tasks.Flag, task,
		"--output_dir", req.OutputDir,
		Formats.Flag, format,
		Models.Flag, model,
	}, nil
}

// lookupToken resolves a label, falling back to the menu default when blank.
func lookupToken(set domain.OptionSet, label string) (string, error) {
	if strings.TrimSpace(label) == "" {
		label = set.Default
	}
	token, ok := set.Token(label)
	if !ok {
		return "", &RequestError{
			Kind:    ErrInput,
			Field:   set.Name,
			Message: fmt.Sprintf("Opción desconocida para %s: %q", set.Name, label),
		}
	}
	return token, nil
}
