package jobs

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"whisper-xxl-gui/internal/domain"
)

// ErrJobAlreadyRunning is returned when starting a second active job.
var ErrJobAlreadyRunning = errors.New("job already running")

// ErrNoRunningJob is returned when cancel is requested for idle state.
var ErrNoRunningJob = errors.New("no running job")

// transitions lists the states reachable from each state. Terminal states
// may start a new run or be cleared back to idle.
var transitions = map[domain.JobStatus][]domain.JobStatus{
	domain.JobStatusIdle:      {domain.JobStatusLaunching},
	domain.JobStatusLaunching: {domain.JobStatusRunning, domain.JobStatusFailed, domain.JobStatusCancelled},
	domain.JobStatusRunning:   {domain.JobStatusDone, domain.JobStatusFailed, domain.JobStatusCancelled},
	domain.JobStatusDone:      {domain.JobStatusLaunching, domain.JobStatusIdle},
	domain.JobStatusFailed:    {domain.JobStatusLaunching, domain.JobStatusIdle},
	domain.JobStatusCancelled: {domain.JobStatusLaunching, domain.JobStatusIdle},
}

// Manager owns the single job slot. Every read and write of the current job
// goes through its lock.
type Manager struct {
	mu      sync.RWMutex
	current domain.Job
	now     func() time.Time
}

// NewManager creates a manager in idle state.
func NewManager() *Manager {
	return &Manager{
		current: domain.Job{Status: domain.JobStatusIdle},
		now:     time.Now,
	}
}

// Start claims the slot for a new job in launching state.
func (m *Manager) Start(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if isRunning(m.current.Status) {
		return ErrJobAlreadyRunning
	}
	if err := m.advanceLocked(domain.JobStatusLaunching); err != nil {
		return err
	}

	m.current = domain.Job{
		ID:        jobID,
		Status:    domain.JobStatusLaunching,
		StartedAt: m.now(),
	}
	return nil
}

// MarkRunning records the child PID once the process has been spawned.
func (m *Manager) MarkRunning(pid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.ID == "" {
		return fmt.Errorf("cannot mark running without an active job")
	}
	if err := m.advanceLocked(domain.JobStatusRunning); err != nil {
		return err
	}
	m.current.PID = pid
	return nil
}

// Finish records the exit code and moves the job to a terminal state.
// A job already cancelled keeps its cancelled status.
func (m *Manager) Finish(status domain.JobStatus, exitCode int, incomplete bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.ID == "" {
		return fmt.Errorf("cannot finish without an active job")
	}
	m.current.ExitCode = exitCode
	m.current.Incomplete = incomplete
	m.current.FinishedAt = m.now()
	if m.current.Status == domain.JobStatusCancelled {
		return nil
	}
	return m.advanceLocked(status)
}

// Cancel moves an active job to cancelled state.
func (m *Manager) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !isRunning(m.current.Status) {
		return ErrNoRunningJob
	}
	m.current.Status = domain.JobStatusCancelled
	return nil
}

// Current returns a snapshot of the current job.
func (m *Manager) Current() domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Reset clears job metadata and returns manager to idle.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = domain.Job{Status: domain.JobStatusIdle}
}

// IsRunning reports whether a child process is being launched or is alive.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return isRunning(m.current.Status)
}

// advanceLocked applies one edge of the state machine. Callers hold mu.
func (m *Manager) advanceLocked(to domain.JobStatus) error {
	from := m.current.Status
	if from == to {
		return nil
	}
	if !slices.Contains(transitions[from], to) {
		return fmt.Errorf("invalid transition: %s -> %s", from, to)
	}
	m.current.Status = to
	return nil
}

func isRunning(status domain.JobStatus) bool {
	return status == domain.JobStatusLaunching || status == domain.JobStatusRunning
}
