package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Request describes one child process run.
type Request struct {
	Argv      []string
	OnStarted func(pid int)
	OnOutput  func(text string)
}

// Result summarizes a finished child process.
type Result struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	PID      int      `json:"pid"`
	ExitCode int      `json:"exitCode"`
}

// process is a started child process.
type process interface {
	PID() int
	Wait() (int, error)
}

// launcher abstracts process creation for testability.
type launcher interface {
	Launch(ctx context.Context, argv []string, output io.Writer) (process, error)
}

// execLauncher starts processes via os/exec.
type execLauncher struct {
	waitDelay time.Duration
}

// Launch starts argv with stdout and stderr merged into output.
func (l *execLauncher) Launch(ctx context.Context, argv []string, output io.Writer) (process, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	// A single comparable writer makes exec share one pipe for both streams.
	cmd.Stdout = output
	cmd.Stderr = output
	cmd.WaitDelay = l.waitDelay
	configureCommand(cmd)

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd}, nil
}

// execProcess wraps a started exec.Cmd.
type execProcess struct {
	cmd *exec.Cmd
}

// PID returns the OS process id.
func (p *execProcess) PID() int {
	return p.cmd.Process.Pid
}

// Wait blocks until the process exits and its output is drained.
func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	code := -1
	if p.cmd.ProcessState != nil {
		code = p.cmd.ProcessState.ExitCode()
	}
	return code, err
}

// Runner launches the transcription tool and streams its merged output.
type Runner struct {
	launcher launcher
}

// NewRunner constructs the production runner.
func NewRunner() *Runner {
	return &Runner{
		launcher: &execLauncher{waitDelay: 5 * time.Second},
	}
}

// NewRunnerForTests constructs a runner with an injected launcher.
func NewRunnerForTests(l launcher) *Runner {
	return &Runner{launcher: l}
}

// Run starts the process and blocks until it exits. OnOutput receives decoded
// text in arrival order and always finishes before Run returns.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	if len(req.Argv) == 0 || req.Argv[0] == "" {
		return Result{ExitCode: -1}, &ProcessError{
			Stage:    StageLaunching,
			Message:  "command is empty",
			ExitCode: -1,
		}
	}

	result := Result{
		Command:  req.Argv[0],
		Args:     append([]string(nil), req.Argv[1:]...),
		ExitCode: -1,
	}

	out := newOutputWriter(req.OnOutput)
	proc, err := r.launcher.Launch(ctx, req.Argv, out)
	if err != nil {
		return result, &ProcessError{
			Stage:    StageLaunching,
			Message:  "failed to start process",
			Command:  result.Command,
			Args:     result.Args,
			ExitCode: -1,
			Err:      err,
		}
	}

	result.PID = proc.PID()
	if req.OnStarted != nil {
		req.OnStarted(result.PID)
	}

	code, waitErr := proc.Wait()
	_ = out.Close()
	result.ExitCode = code

	if waitErr != nil && code == 0 && errors.Is(waitErr, exec.ErrWaitDelay) {
		// A grandchild kept the pipe open after a clean exit.
		waitErr = nil
	}
	if waitErr == nil {
		return result, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("run %s: %w", result.Command, ctxErr)
	}

	return result, &ProcessError{
		Stage:    StageRunning,
		Message:  fmt.Sprintf("process exited with code %d", code),
		Command:  result.Command,
		Args:     result.Args,
		ExitCode: code,
		Err:      waitErr,
	}
}

// outputWriter decodes raw process bytes as UTF-8. Sequences split across
// writes are held back until complete; invalid bytes become U+FFFD.
type outputWriter struct {
	w *transform.Writer
}

func newOutputWriter(onOutput func(text string)) *outputWriter {
	return &outputWriter{
		w: transform.NewWriter(textSink(onOutput), unicode.UTF8.NewDecoder()),
	}
}

// Write implements io.Writer.
func (o *outputWriter) Write(p []byte) (int, error) {
	return o.w.Write(p)
}

// Close flushes a trailing incomplete sequence.
func (o *outputWriter) Close() error {
	return o.w.Close()
}

// textSink forwards non-empty decoded text.
type textSink func(text string)

func (f textSink) Write(p []byte) (int, error) {
	if f != nil && len(p) > 0 {
		f(string(p))
	}
	return len(p), nil
}
