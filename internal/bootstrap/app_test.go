package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"whisper-xxl-gui/internal/domain"
	"whisper-xxl-gui/internal/jobs"
	"whisper-xxl-gui/internal/session"
	"whisper-xxl-gui/internal/transcribe"
)

// fakeStore keeps settings in memory for App tests.
type fakeStore struct {
	mu       sync.Mutex
	settings domain.Settings
	saveErr  error
	saves    int
}

// Load returns preconfigured settings.
func (s *fakeStore) Load() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Save records settings unless a failure is configured.
func (s *fakeStore) Save(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.settings = settings
	return nil
}

// fakeRunner allows injecting custom run behavior per test.
type fakeRunner struct {
	mu    sync.Mutex
	calls int
	argv  []string
	run   func(ctx context.Context, req transcribe.Request) (transcribe.Result, error)
}

// Run records the call and delegates to the injected function.
func (r *fakeRunner) Run(ctx context.Context, req transcribe.Request) (transcribe.Result, error) {
	r.mu.Lock()
	r.calls++
	r.argv = append([]string(nil), req.Argv...)
	r.mu.Unlock()
	if r.run == nil {
		return transcribe.Result{}, nil
	}
	return r.run(ctx, req)
}

func (r *fakeRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// newTestApp builds an App with a real validator and an existing executable.
func newTestApp(t *testing.T, runner *fakeRunner) (*App, *fakeStore) {
	t.Helper()
	exe := filepath.Join(t.TempDir(), "faster-whisper-xxl")
	if err := os.WriteFile(exe, []byte("bin"), 0o755); err != nil {
		t.Fatalf("write exe: %v", err)
	}

	store := &fakeStore{settings: domain.Settings{ExePath: exe}}
	return &App{
		Settings:  store.settings,
		Store:     store,
		Jobs:      jobs.NewManager(),
		Runner:    runner,
		Validator: transcribe.NewValidator(),
		Console:   session.NewConsole(),
		events:    jobs.NewEventBus(100),
	}, store
}

func testForm(root string) domain.JobForm {
	return domain.JobForm{
		InputPath: filepath.Join(root, "clip.mp3"),
		Language:  "Japonés",
		Model:     "Mediano",
		Format:    "srt",
		Task:      "Transcribir",
	}
}

// TestStartTranscriptionRejectsInvalidRequests checks no process is spawned.
func TestStartTranscriptionRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name    string
		exePath string
		input   string
		want    error
	}{
		{name: "empty executable", exePath: "", input: "/a.mp3", want: transcribe.ErrConfiguration},
		{name: "missing executable", exePath: "/no/such/tool", input: "/a.mp3", want: transcribe.ErrConfiguration},
		{name: "missing input", exePath: "keep", input: "", want: transcribe.ErrInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			app, _ := newTestApp(t, runner)
			if tt.exePath != "keep" {
				app.Settings.ExePath = tt.exePath
			}
			before := app.Console.Trigger()

			_, err := app.StartTranscription(domain.JobForm{InputPath: tt.input})
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if runner.Calls() != 0 {
				t.Fatalf("runner calls = %d, want 0", runner.Calls())
			}
			if got := app.Console.Trigger(); got != before {
				t.Fatalf("trigger = %+v, want %+v", got, before)
			}
			if got := app.CurrentJob().Status; got != domain.JobStatusIdle {
				t.Fatalf("status = %s, want idle", got)
			}
			if events := app.JobEvents(0); len(events) != 0 {
				t.Fatalf("events = %+v, want none", events)
			}
		})
	}
}

// TestStartTranscriptionEnforcesSingleRunningJob checks single-job guard.
func TestStartTranscriptionEnforcesSingleRunningJob(t *testing.T) {
	runner := &fakeRunner{run: func(ctx context.Context, req transcribe.Request) (transcribe.Result, error) {
		req.OnStarted(100)
		<-ctx.Done()
		return transcribe.Result{ExitCode: -1}, ctx.Err()
	}}
	app, _ := newTestApp(t, runner)
	root := t.TempDir()

	if _, err := app.StartTranscription(testForm(root)); err != nil {
		t.Fatalf("start first job: %v", err)
	}
	if _, err := app.StartTranscription(testForm(root)); !errors.Is(err, jobs.ErrJobAlreadyRunning) {
		t.Fatalf("second start error = %v, want %v", err, jobs.ErrJobAlreadyRunning)
	}

	if err := app.CancelTranscription(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	waitForStatus(t, app, domain.JobStatusCancelled)
	waitForIdle(t, app)

	trigger := app.Console.Trigger()
	if !trigger.Enabled || trigger.Label != session.IdleLabel {
		t.Fatalf("trigger = %+v after cancel", trigger)
	}
	if runner.Calls() != 1 {
		t.Fatalf("runner calls = %d, want 1", runner.Calls())
	}
}

// TestStartTranscriptionStreamsOutput checks argv, streaming, events and copy.
func TestStartTranscriptionStreamsOutput(t *testing.T) {
	runner := &fakeRunner{run: func(ctx context.Context, req transcribe.Request) (transcribe.Result, error) {
		req.OnStarted(42)
		req.OnOutput("[00:01.000 --> 00:02.500] Hello world\n")
		req.OnOutput("こんにち")
		req.OnOutput("は\nnoise")
		return transcribe.Result{PID: 42, ExitCode: 0}, nil
	}}
	app, _ := newTestApp(t, runner)
	var copied string
	app.clipboard = func(text string) error {
		copied = text
		return nil
	}
	root := t.TempDir()
	before := app.Console.Trigger()

	if _, err := app.StartTranscription(testForm(root)); err != nil {
		t.Fatalf("start job: %v", err)
	}
	waitForStatus(t, app, domain.JobStatusDone)
	waitForIdle(t, app)

	wantArgv := []string{
		app.Settings.ExePath, filepath.Join(root, "clip.mp3"),
		"--language", "Japanese",
		"--task", "transcribe",
		"--output_dir", root,
		"--output_format", "srt",
		"--model", "medium",
	}
	if !reflect.DeepEqual(runner.argv, wantArgv) {
		t.Fatalf("argv = %v\nwant %v", runner.argv, wantArgv)
	}

	state := app.GetConsoleState()
	if want := "[00:01.000 --> 00:02.500] Hello world\nこんにちは\nnoise"; state.Output != want {
		t.Fatalf("output = %q, want %q", state.Output, want)
	}
	if state.Trigger != before {
		t.Fatalf("trigger = %+v, want %+v", state.Trigger, before)
	}

	events := app.JobEvents(0)
	assertEventTypeExists(t, events, jobs.EventTypeStatus)
	assertEventTypeExists(t, events, jobs.EventTypeOutput)
	assertEventTypeExists(t, events, jobs.EventTypeResult)
	if exits := countEvents(events, jobs.EventTypeExit); exits != 1 {
		t.Fatalf("exit events = %d, want 1", exits)
	}
	if state.LastSeq != events[len(events)-1].Seq {
		t.Fatalf("last seq = %d, want %d", state.LastSeq, events[len(events)-1].Seq)
	}

	text, err := app.CopyTranscript("")
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if want := "Hello world\nこんにちは"; text != want || copied != want {
		t.Fatalf("copied = %q / %q, want %q", text, copied, want)
	}
}

// TestStartTranscriptionNonzeroExit checks failure reporting with kept output.
func TestStartTranscriptionNonzeroExit(t *testing.T) {
	runner := &fakeRunner{run: func(ctx context.Context, req transcribe.Request) (transcribe.Result, error) {
		req.OnStarted(7)
		req.OnOutput("partial output")
		return transcribe.Result{ExitCode: 2}, &transcribe.ProcessError{
			Stage:    transcribe.StageRunning,
			Message:  "process exited with code 2",
			Command:  req.Argv[0],
			Args:     req.Argv[1:],
			ExitCode: 2,
			Err:      errors.New("exit status 2"),
		}
	}}
	app, _ := newTestApp(t, runner)

	if _, err := app.StartTranscription(testForm(t.TempDir())); err != nil {
		t.Fatalf("start job: %v", err)
	}
	waitForStatus(t, app, domain.JobStatusFailed)
	waitForIdle(t, app)

	job := app.CurrentJob()
	if job.ExitCode != 2 || !job.Incomplete {
		t.Fatalf("job = %+v, want exit 2 incomplete", job)
	}
	if got := app.Console.Output(); got != "partial output" {
		t.Fatalf("output = %q", got)
	}

	events := app.JobEvents(0)
	errEvent, ok := findEvent(events, jobs.EventTypeError)
	if !ok || !errEvent.Incomplete || errEvent.ExitCode != 2 || errEvent.Command == "" {
		t.Fatalf("error event = %+v", errEvent)
	}
	if trigger := app.Console.Trigger(); !trigger.Enabled || trigger.Label != session.IdleLabel {
		t.Fatalf("trigger = %+v", trigger)
	}
}

// TestStartTranscriptionSpawnFailure checks launch errors end in failed state.
func TestStartTranscriptionSpawnFailure(t *testing.T) {
	runner := &fakeRunner{run: func(ctx context.Context, req transcribe.Request) (transcribe.Result, error) {
		return transcribe.Result{ExitCode: -1}, &transcribe.ProcessError{
			Stage:    transcribe.StageLaunching,
			Message:  "failed to start process",
			Command:  req.Argv[0],
			ExitCode: -1,
			Err:      errors.New("exec format error"),
		}
	}}
	app, _ := newTestApp(t, runner)

	if _, err := app.StartTranscription(testForm(t.TempDir())); err != nil {
		t.Fatalf("start job: %v", err)
	}
	waitForStatus(t, app, domain.JobStatusFailed)
	waitForIdle(t, app)

	if job := app.CurrentJob(); job.Incomplete {
		t.Fatalf("job = %+v, spawn failure is not incomplete output", job)
	}
	assertEventTypeExists(t, app.JobEvents(0), jobs.EventTypeError)
	if !app.Console.Trigger().Enabled {
		t.Fatal("trigger must be re-enabled after spawn failure")
	}

	// A new job may start once the failed one is finished.
	runner.run = nil
	if _, err := app.StartTranscription(testForm(t.TempDir())); err != nil {
		t.Fatalf("restart: %v", err)
	}
	waitForStatus(t, app, domain.JobStatusDone)
}

// blockingRunner holds the job until cancelled, then until release is closed,
// and writes a last chunk while draining.
func blockingRunner(release <-chan struct{}) *fakeRunner {
	return &fakeRunner{run: func(ctx context.Context, req transcribe.Request) (transcribe.Result, error) {
		req.OnStarted(100)
		<-ctx.Done()
		<-release
		req.OnOutput("late output\n")
		return transcribe.Result{PID: 100, ExitCode: -1}, ctx.Err()
	}}
}

// TestCancelTranscriptionEndsCancelled checks the full cancel path of an active job.
func TestCancelTranscriptionEndsCancelled(t *testing.T) {
	release := make(chan struct{})
	runner := blockingRunner(release)
	app, _ := newTestApp(t, runner)
	root := t.TempDir()

	if _, err := app.StartTranscription(testForm(root)); err != nil {
		t.Fatalf("start job: %v", err)
	}
	if err := app.CancelTranscription(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	waitForStatus(t, app, domain.JobStatusCancelled)

	if _, err := app.StartTranscription(testForm(root)); !errors.Is(err, jobs.ErrJobAlreadyRunning) {
		t.Fatalf("start while draining error = %v, want %v", err, jobs.ErrJobAlreadyRunning)
	}

	close(release)
	waitForIdle(t, app)

	job := app.CurrentJob()
	if job.Status != domain.JobStatusCancelled || job.FinishedAt.IsZero() {
		t.Fatalf("job = %+v, want cancelled and finished", job)
	}
	want := session.Trigger{Enabled: true, Label: session.IdleLabel}
	if got := app.Console.Trigger(); got != want {
		t.Fatalf("trigger = %+v, want %+v", got, want)
	}

	events := app.JobEvents(0)
	if exits := countEvents(events, jobs.EventTypeExit); exits != 1 {
		t.Fatalf("exit events = %d, want 1", exits)
	}
	exit, _ := findEvent(events, jobs.EventTypeExit)
	if exit.Status != domain.JobStatusCancelled {
		t.Fatalf("exit status = %s, want cancelled", exit.Status)
	}
	if runner.Calls() != 1 {
		t.Fatalf("runner calls = %d, want 1", runner.Calls())
	}
}

// TestClearConsoleWaitsForCancelledJob checks a draining job cannot be wiped.
func TestClearConsoleWaitsForCancelledJob(t *testing.T) {
	release := make(chan struct{})
	app, _ := newTestApp(t, blockingRunner(release))

	if _, err := app.StartTranscription(testForm(t.TempDir())); err != nil {
		t.Fatalf("start job: %v", err)
	}
	if err := app.CancelTranscription(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	waitForStatus(t, app, domain.JobStatusCancelled)

	if err := app.ClearConsole(); !errors.Is(err, jobs.ErrJobAlreadyRunning) {
		t.Fatalf("clear while draining error = %v, want %v", err, jobs.ErrJobAlreadyRunning)
	}

	close(release)
	waitForIdle(t, app)

	job := app.CurrentJob()
	if job.ID == "" || job.Status != domain.JobStatusCancelled || job.FinishedAt.IsZero() {
		t.Fatalf("job = %+v, want recorded cancelled job", job)
	}
	exit, ok := findEvent(app.JobEvents(0), jobs.EventTypeExit)
	if !ok || exit.Status != domain.JobStatusCancelled {
		t.Fatalf("exit event = %+v, want cancelled", exit)
	}
	if got := app.Console.Output(); got != "late output\n" {
		t.Fatalf("output = %q", got)
	}

	if err := app.ClearConsole(); err != nil {
		t.Fatalf("clear after drain: %v", err)
	}
	if app.Console.Output() != "" || app.CurrentJob().Status != domain.JobStatusIdle {
		t.Fatalf("state = %+v", app.GetConsoleState())
	}
}

// TestCancelTranscriptionAfterFinish checks a finished job with handles still
// held is not reported as cancelled.
func TestCancelTranscriptionAfterFinish(t *testing.T) {
	app, _ := newTestApp(t, &fakeRunner{})
	if err := app.Jobs.Start("job-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	_ = app.Jobs.MarkRunning(1)
	_ = app.Jobs.Finish(domain.JobStatusDone, 0, false)

	cancelled := false
	app.activeJobID = "job-1"
	app.cancel = func() { cancelled = true }

	if err := app.CancelTranscription(); !errors.Is(err, jobs.ErrNoRunningJob) {
		t.Fatalf("cancel error = %v, want %v", err, jobs.ErrNoRunningJob)
	}
	if cancelled {
		t.Fatal("cancel func must not run for a finished job")
	}
	if events := app.JobEvents(0); len(events) != 0 {
		t.Fatalf("events = %+v, want none", events)
	}
	if got := app.CurrentJob().Status; got != domain.JobStatusDone {
		t.Fatalf("status = %s, want done", got)
	}
}

// TestGetConsoleStateMatchesEventCursor checks the snapshot holds exactly the
// output events up to LastSeq while output is streaming.
func TestGetConsoleStateMatchesEventCursor(t *testing.T) {
	const chunks = 200
	runner := &fakeRunner{run: func(ctx context.Context, req transcribe.Request) (transcribe.Result, error) {
		req.OnStarted(1)
		for i := 0; i < chunks; i++ {
			req.OnOutput("x")
		}
		return transcribe.Result{}, nil
	}}
	app, _ := newTestApp(t, runner)
	app.events = jobs.NewEventBus(10 * chunks)

	if _, err := app.StartTranscription(testForm(t.TempDir())); err != nil {
		t.Fatalf("start job: %v", err)
	}

	check := func() bool {
		state := app.GetConsoleState()
		var sb strings.Builder
		for _, event := range app.JobEvents(0) {
			if event.Seq > state.LastSeq {
				break
			}
			if event.Type == jobs.EventTypeOutput {
				sb.WriteString(event.Text)
			}
		}
		if sb.String() != state.Output {
			t.Fatalf("snapshot output %d bytes, events up to seq %d carry %d bytes",
				len(state.Output), state.LastSeq, sb.Len())
		}
		return state.Trigger.Enabled
	}

	deadline := time.Now().Add(2 * time.Second)
	for !check() {
		if time.Now().After(deadline) {
			t.Fatal("job did not finish")
		}
	}
	waitForIdle(t, app)
	if got := app.Console.Output(); got != strings.Repeat("x", chunks) {
		t.Fatalf("output length = %d, want %d", len(got), chunks)
	}
}

// TestCancelTranscriptionWithoutJob checks idle cancel.
func TestCancelTranscriptionWithoutJob(t *testing.T) {
	app, _ := newTestApp(t, &fakeRunner{})
	if err := app.CancelTranscription(); !errors.Is(err, jobs.ErrNoRunningJob) {
		t.Fatalf("cancel error = %v, want %v", err, jobs.ErrNoRunningJob)
	}
}

// TestShutdownTerminatesActiveJob checks window close tears down the child.
func TestShutdownTerminatesActiveJob(t *testing.T) {
	runner := &fakeRunner{run: func(ctx context.Context, req transcribe.Request) (transcribe.Result, error) {
		req.OnStarted(1)
		<-ctx.Done()
		return transcribe.Result{ExitCode: -1}, ctx.Err()
	}}
	app, _ := newTestApp(t, runner)

	if _, err := app.StartTranscription(testForm(t.TempDir())); err != nil {
		t.Fatalf("start job: %v", err)
	}
	app.Shutdown(context.Background())
	waitForIdle(t, app)

	if got := app.CurrentJob().Status; got != domain.JobStatusCancelled {
		t.Fatalf("status = %s, want cancelled", got)
	}
}

// TestSaveSettingsSurfacesErrors checks write failures reach the caller.
func TestSaveSettingsSurfacesErrors(t *testing.T) {
	app, store := newTestApp(t, &fakeRunner{})
	original := app.GetSettings()
	store.saveErr = errors.New("disk full")

	if _, err := app.SaveSettings(domain.Settings{ExePath: "/new/tool"}); err == nil {
		t.Fatal("expected save error")
	}
	if got := app.GetSettings(); got != original {
		t.Fatalf("settings = %+v, want unchanged %+v", got, original)
	}
}

// TestSaveSettingsNormalizesAndApplies checks trimmed paths are used for the next job.
func TestSaveSettingsNormalizesAndApplies(t *testing.T) {
	app, store := newTestApp(t, &fakeRunner{})

	saved, err := app.SaveSettings(domain.Settings{ExePath: "  /opt/tool  "})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ExePath != "/opt/tool" || store.Load().ExePath != "/opt/tool" {
		t.Fatalf("saved = %+v, store = %+v", saved, store.Load())
	}
	if app.GetSettings().ExePath != "/opt/tool" {
		t.Fatalf("in-memory settings = %+v", app.GetSettings())
	}
}

// TestCopyTranscriptClipboardError checks clipboard failures are returned.
func TestCopyTranscriptClipboardError(t *testing.T) {
	app, _ := newTestApp(t, &fakeRunner{})
	app.clipboard = func(string) error { return errors.New("no clipboard") }
	if _, err := app.CopyTranscript("japanese"); err == nil {
		t.Fatal("expected clipboard error")
	}
}

// TestCopyTranscriptWithoutRuntime checks the runtime clipboard needs a window.
func TestCopyTranscriptWithoutRuntime(t *testing.T) {
	app, _ := newTestApp(t, &fakeRunner{})
	if _, err := app.CopyTranscript(""); err == nil {
		t.Fatal("expected runtime context error")
	}
}

// TestClearConsole resets a finished job.
func TestClearConsole(t *testing.T) {
	runner := &fakeRunner{run: func(ctx context.Context, req transcribe.Request) (transcribe.Result, error) {
		req.OnStarted(1)
		req.OnOutput("text")
		return transcribe.Result{}, nil
	}}
	app, _ := newTestApp(t, runner)
	if _, err := app.StartTranscription(testForm(t.TempDir())); err != nil {
		t.Fatalf("start job: %v", err)
	}
	waitForStatus(t, app, domain.JobStatusDone)
	waitForIdle(t, app)

	if err := app.ClearConsole(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if app.Console.Output() != "" || app.CurrentJob().Status != domain.JobStatusIdle {
		t.Fatalf("state = %+v", app.GetConsoleState())
	}
}

// waitForStatus polls until job reaches desired status or times out.
func waitForStatus(t *testing.T, app *App, want domain.JobStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if app.CurrentJob().Status == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("status = %s, want %s", app.CurrentJob().Status, want)
}

// waitForIdle polls until the job goroutine has released the active job.
func waitForIdle(t *testing.T, app *App) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		app.mu.Lock()
		released := app.cancel == nil
		app.mu.Unlock()
		if released && app.Console.Trigger().Enabled {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job was not released")
}

// assertEventTypeExists verifies at least one event of given type exists.
func assertEventTypeExists(t *testing.T, events []jobs.Event, want jobs.EventType) {
	t.Helper()
	if _, ok := findEvent(events, want); !ok {
		t.Fatalf("event type %s not found", want)
	}
}

func findEvent(events []jobs.Event, want jobs.EventType) (jobs.Event, bool) {
	for _, event := range events {
		if event.Type == want {
			return event, true
		}
	}
	return jobs.Event{}, false
}

func countEvents(events []jobs.Event, want jobs.EventType) int {
	n := 0
	for _, event := range events {
		if event.Type == want {
			n++
		}
	}
	return n
}
