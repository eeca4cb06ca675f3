package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"whisper-xxl-gui/internal/config"
	"whisper-xxl-gui/internal/diagnostics"
	"whisper-xxl-gui/internal/domain"
	"whisper-xxl-gui/internal/jobs"
	"whisper-xxl-gui/internal/logging"
	"whisper-xxl-gui/internal/session"
	"whisper-xxl-gui/internal/transcribe"

	wailslogger "github.com/wailsapp/wails/v2/pkg/logger"
	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

var audioDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Audios",
		Pattern:     "*.mp3;*.wav;*.m4a;*.flac;*.webm;*.opus;*.ogg",
	},
	{
		DisplayName: "Todos los archivos",
		Pattern:     "*",
	},
}

// App wires configuration, jobs, the process runner, and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Jobs        *jobs.Manager
	Runner      processRunner
	Validator   requestPreparer
	Console     *session.Console
	Diagnostics domain.DiagnosticReport
	Logger      *slog.Logger
	assets      fs.FS
	checker     *diagnostics.Checker
	clipboard   func(text string) error
	appDir      string

	// consoleMu pairs console mutations with their events; taken before mu.
	consoleMu sync.Mutex

	mu          sync.Mutex
	activeJobID string
	cancel      context.CancelFunc
	events      *jobs.EventBus
	runtimeCtx  context.Context
}

// processRunner isolates child process execution behind an interface.
type processRunner interface {
	Run(ctx context.Context, req transcribe.Request) (transcribe.Result, error)
}

// requestPreparer validates a job request and builds its argument vector.
type requestPreparer interface {
	Prepare(req domain.JobRequest) (domain.JobRequest, []string, error)
}

// New builds the application with persisted settings and diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	logger := logging.FromEnv()

	settingsPath, err := config.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("resolve settings path: %w", err)
	}

	appDir := config.AppDir()
	store := config.NewJSONStore(settingsPath, appDir, logger)
	settings := store.Load()

	checker := diagnostics.NewChecker(filepath.Dir(settingsPath))
	report := checker.Run(settings)

	logger.Info("settings loaded",
		slog.String("path", store.Path()),
		slog.String("exe_path", settings.ExePath),
		slog.Bool("diagnostic_failures", report.HasFailures))

	return &App{
		Settings:    settings,
		Store:       store,
		Jobs:        jobs.NewManager(),
		Runner:      transcribe.NewRunner(),
		Validator:   transcribe.NewValidator(),
		Console:     session.NewConsole(),
		Diagnostics: report,
		Logger:      logger,
		assets:      assets,
		checker:     checker,
		appDir:      appDir,
		events:      jobs.NewEventBus(5000),
	}, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "Faster Whisper GUI",
		Width:       700,
		Height:      560,
		AssetServer: assetOptions,
		Logger:      logging.NewWailsLogger(a.logger()),
		LogLevel:    wailslogger.INFO,
		OnStartup:   a.Startup,
		OnShutdown:  a.Shutdown,
		Bind:        []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events and dialogs.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// Shutdown tears down a running child process when the window closes.
func (a *App) Shutdown(ctx context.Context) {
	a.mu.Lock()
	cancel := a.cancel
	a.runtimeCtx = nil
	a.mu.Unlock()

	if cancel != nil {
		a.logger().Info("window closed with active job, terminating child process")
		cancel()
	}
}

// GetSettings returns the in-memory settings loaded at startup or last saved.
func (a *App) GetSettings() domain.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Settings
}

// SaveSettings normalizes and persists settings, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		a.logger().Error("save settings failed", logging.Err(err))
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.refreshDiagnosticsFromSettings(normalized)
	a.logger().Info("settings saved", slog.String("exe_path", normalized.ExePath))
	return normalized, nil
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// RefreshDiagnostics reruns checks against the current settings.
func (a *App) RefreshDiagnostics() domain.DiagnosticReport {
	return a.refreshDiagnosticsFromSettings(a.GetSettings())
}

func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings)
	}
	return a.Diagnostics
}

// PickInputFile opens a native file dialog for audio selection.
func (a *App) PickInputFile() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Seleccionar archivo",
		Filters: audioDialogFilter,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// PickOutputDirectory opens a native directory picker for tool output.
func (a *App) PickOutputDirectory() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: "Seleccionar carpeta de salida",
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// PickExecutable opens a native file dialog for the transcription tool.
func (a *App) PickExecutable() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Seleccionar ejecutable",
		Filters: executableDialogFilter(),
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// OpenOutputFolder opens the given folder (or a file's folder) in the file manager.
func (a *App) OpenOutputFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		return fmt.Errorf("output path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// StartTranscription validates the form, then launches the tool asynchronously.
// Validation failures are returned before any state changes.
func (a *App) StartTranscription(form domain.JobForm) (domain.Job, error) {
	settings := a.GetSettings()
	req, argv, err := a.Validator.Prepare(domain.NewJobRequest(settings, form))
	if err != nil {
		a.logger().Warn("job rejected", logging.Err(err))
		return domain.Job{}, err
	}

	a.mu.Lock()
	if a.cancel != nil {
		a.mu.Unlock()
		return domain.Job{}, jobs.ErrJobAlreadyRunning
	}
	jobID := uuid.NewString()
	if err := a.Jobs.Start(jobID); err != nil {
		a.mu.Unlock()
		return domain.Job{}, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.activeJobID = jobID
	a.cancel = cancel
	a.mu.Unlock()

	a.consoleMu.Lock()
	a.Console.BeginRun()
	a.publishEvent(jobs.Event{
		JobID:     jobID,
		Type:      jobs.EventTypeStatus,
		Status:    domain.JobStatusLaunching,
		Message:   "Iniciando proceso",
		Command:   argv[0],
		Args:      argv[1:],
		OutputDir: req.OutputDir,
	})
	a.consoleMu.Unlock()
	a.logger().Info("job started",
		slog.String("job_id", jobID),
		slog.String("input", req.InputPath),
		slog.String("output_dir", req.OutputDir))

	go a.runTranscriptionJob(ctx, jobID, req, argv)
	return a.Jobs.Current(), nil
}

// CancelTranscription terminates the running child process, if any.
func (a *App) CancelTranscription() error {
	a.mu.Lock()
	cancel := a.cancel
	activeJobID := a.activeJobID
	a.mu.Unlock()

	if cancel == nil {
		return jobs.ErrNoRunningJob
	}

	// The job may have finished while its handles were still held.
	if err := a.Jobs.Cancel(); err != nil {
		return err
	}
	cancel()

	a.publishStatus(activeJobID, domain.JobStatusCancelled, "Cancelación solicitada")
	a.logger().Info("job cancel requested", slog.String("job_id", activeJobID))
	return nil
}

// CurrentJob returns current job metadata and status.
func (a *App) CurrentJob() domain.Job {
	return a.Jobs.Current()
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// ConsoleState is the console snapshot plus the event cursor it reflects.
type ConsoleState struct {
	session.Snapshot
	Job     domain.Job `json:"job"`
	LastSeq int64      `json:"lastSeq"`
}

// GetConsoleState returns the output buffer and trigger for a full redraw.
// LastSeq is the newest event already reflected in the snapshot.
func (a *App) GetConsoleState() ConsoleState {
	a.consoleMu.Lock()
	defer a.consoleMu.Unlock()
	return ConsoleState{
		Snapshot: a.Console.Snapshot(),
		Job:      a.Jobs.Current(),
		LastSeq:  a.events.LastSeq(),
	}
}

// ClearConsole empties the output of a finished job and returns to idle.
func (a *App) ClearConsole() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	// A cancelled job holds the slot until its process has drained.
	if a.cancel != nil {
		return jobs.ErrJobAlreadyRunning
	}

	a.Console.Clear()
	a.Jobs.Reset()
	return nil
}

// CopyTranscript extracts clean transcript text from the console output and
// writes it to the clipboard.
func (a *App) CopyTranscript(profileID string) (string, error) {
	profile := transcribe.LookupProfile(profileID)
	text := transcribe.ExtractTranscript(a.Console.Output(), profile)

	if err := a.writeClipboard(text); err != nil {
		return "", fmt.Errorf("write clipboard: %w", err)
	}

	a.logger().Debug("transcript copied",
		slog.String("profile", profile.ID),
		slog.Int("chars", len(text)))
	return text, nil
}

// runTranscriptionJob runs the child process and maps outcomes to job events.
func (a *App) runTranscriptionJob(ctx context.Context, jobID string, req domain.JobRequest, argv []string) {
	result, err := a.Runner.Run(ctx, transcribe.Request{
		Argv: argv,
		OnStarted: func(pid int) {
			if err := a.Jobs.MarkRunning(pid); err == nil {
				a.publishStatus(jobID, domain.JobStatusRunning, fmt.Sprintf("Proceso en ejecución (pid %d)", pid))
			}
		},
		OnOutput: func(text string) {
			a.consoleMu.Lock()
			defer a.consoleMu.Unlock()
			a.Console.Append(text)
			a.publishEvent(jobs.Event{
				JobID: jobID,
				Type:  jobs.EventTypeOutput,
				Text:  text,
			})
		},
	})

	defer a.finishJob(jobID, result.ExitCode)

	switch {
	case errors.Is(err, context.Canceled):
		a.finishStatus(jobID, domain.JobStatusCancelled, result.ExitCode, true)
		a.publishStatus(jobID, domain.JobStatusCancelled, "Trabajo cancelado")
		a.logger().Info("job cancelled", slog.String("job_id", jobID))

	case err != nil:
		var processErr *transcribe.ProcessError
		incomplete := errors.As(err, &processErr) && processErr.Stage == transcribe.StageRunning
		a.finishStatus(jobID, domain.JobStatusFailed, result.ExitCode, incomplete)
		a.publishStatus(jobID, domain.JobStatusFailed, "Trabajo fallido")

		event := jobs.Event{
			JobID:      jobID,
			Type:       jobs.EventTypeError,
			Status:     domain.JobStatusFailed,
			Message:    failureMessage(err, result.ExitCode, incomplete),
			ExitCode:   result.ExitCode,
			Incomplete: incomplete,
		}
		if processErr != nil {
			event.Command = processErr.Command
			event.Args = processErr.Args
		}
		a.publishEvent(event)
		a.logger().Error("job failed",
			slog.String("job_id", jobID),
			slog.Int("exit_code", result.ExitCode),
			logging.Err(err))

	default:
		a.finishStatus(jobID, domain.JobStatusDone, result.ExitCode, false)
		a.publishStatus(jobID, domain.JobStatusDone, "Trabajo completado")
		a.publishEvent(jobs.Event{
			JobID:     jobID,
			Type:      jobs.EventTypeResult,
			Status:    domain.JobStatusDone,
			Message:   "Archivos generados",
			OutputDir: req.OutputDir,
		})
		a.logger().Info("job completed", slog.String("job_id", jobID))
	}
}

// finishJob runs once per job on every exit path: trigger restored, exit
// event published, cancellation handles released.
func (a *App) finishJob(jobID string, exitCode int) {
	a.consoleMu.Lock()
	a.Console.EndRun()
	a.publishEvent(jobs.Event{
		JobID:    jobID,
		Type:     jobs.EventTypeExit,
		Status:   a.Jobs.Current().Status,
		ExitCode: exitCode,
	})
	a.consoleMu.Unlock()
	a.clearActiveJob(jobID)
}

// finishStatus records the terminal state of the job.
func (a *App) finishStatus(jobID string, status domain.JobStatus, exitCode int, incomplete bool) {
	if err := a.Jobs.Finish(status, exitCode, incomplete); err != nil {
		a.logger().Error("record job outcome",
			slog.String("job_id", jobID),
			slog.String("status", string(status)),
			logging.Err(err))
	}
}

// failureMessage builds the user-facing text for a failed job.
func failureMessage(err error, exitCode int, incomplete bool) string {
	if incomplete {
		return fmt.Sprintf("El proceso terminó con código %d; la salida puede estar incompleta.", exitCode)
	}
	return fmt.Sprintf("No se pudo iniciar el proceso: %v", err)
}

// publishStatus sends a normalized status event.
func (a *App) publishStatus(jobID string, status domain.JobStatus, message string) {
	a.publishEvent(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeStatus,
		Status:  status,
		Message: message,
	})
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event jobs.Event) {
	published := a.events.Publish(event)

	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "job:event", published)
	}
}

// clearActiveJob clears cancellation handles for completed job IDs.
func (a *App) clearActiveJob(jobID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.activeJobID == jobID {
		if a.cancel != nil {
			a.cancel()
		}
		a.activeJobID = ""
		a.cancel = nil
	}
}

// writeClipboard uses the injected clipboard or the Wails runtime.
func (a *App) writeClipboard(text string) error {
	if a.clipboard != nil {
		return a.clipboard(text)
	}
	ctx, err := a.runtimeContext()
	if err != nil {
		return err
	}
	return wailsruntime.ClipboardSetText(ctx, text)
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

// normalizeSettings trims user inputs.
func normalizeSettings(settings domain.Settings) domain.Settings {
	settings.ExePath = strings.TrimSpace(settings.ExePath)
	return settings
}

// executableDialogFilter limits the picker to .exe files on Windows.
func executableDialogFilter() []wailsruntime.FileFilter {
	if goruntime.GOOS == "windows" {
		return []wailsruntime.FileFilter{{DisplayName: "Ejecutables", Pattern: "*.exe"}}
	}
	return []wailsruntime.FileFilter{{DisplayName: "Todos los archivos", Pattern: "*"}}
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
