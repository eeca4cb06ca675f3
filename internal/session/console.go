// Package session holds the run form's display state: the append-only output
// buffer and the run trigger. The frontend renders snapshots of it.
package session

import (
	"strings"
	"sync"
)

// Trigger labels shown on the run button.
const (
	IdleLabel = "Ejecutar"
	BusyLabel = "Procesando..."
)

// Trigger is the run button's state.
type Trigger struct {
	Enabled bool   `json:"enabled"`
	Label   string `json:"label"`
	Busy    bool   `json:"busy"`
}

// Snapshot is a consistent copy of the console.
type Snapshot struct {
	Output  string  `json:"output"`
	Trigger Trigger `json:"trigger"`
}

// Console owns the display buffer and trigger. All mutations are serialized
// so callbacks from the process goroutine and UI calls may interleave freely.
type Console struct {
	mu        sync.Mutex
	output    strings.Builder
	trigger   Trigger
	idleLabel string
	busyLabel string
}

// NewConsole creates an empty console with an enabled trigger.
func NewConsole() *Console {
	return NewConsoleWithLabels(IdleLabel, BusyLabel)
}

// NewConsoleWithLabels creates a console with custom trigger labels.
func NewConsoleWithLabels(idle, busy string) *Console {
	return &Console{
		trigger:   Trigger{Enabled: true, Label: idle},
		idleLabel: idle,
		busyLabel: busy,
	}
}

// BeginRun clears the previous output and disables the trigger.
func (c *Console) BeginRun() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.output.Reset()
	c.trigger = Trigger{Enabled: false, Label: c.busyLabel, Busy: true}
}

// Append adds text verbatim to the end of the buffer.
func (c *Console) Append(text string) {
	if text == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.output.WriteString(text)
}

// EndRun re-enables the trigger and restores its idle label.
func (c *Console) EndRun() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trigger = Trigger{Enabled: true, Label: c.idleLabel}
}

// Clear empties the buffer without touching the trigger.
func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.output.Reset()
}

// Output returns the buffered text.
func (c *Console) Output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.output.String()
}

// Trigger returns the run button state.
func (c *Console) Trigger() Trigger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trigger
}

// Snapshot returns output and trigger together.
func (c *Console) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{Output: c.output.String(), Trigger: c.trigger}
}
