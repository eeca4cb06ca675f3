package jobs

import (
	"slices"
	"sync"
	"time"

	"whisper-xxl-gui/internal/domain"
)

// EventType classifies messages emitted during job execution.
type EventType string

const (
	EventTypeStatus EventType = "status"
	EventTypeOutput EventType = "output"
	EventTypeExit   EventType = "exit"
	EventTypeError  EventType = "error"
	EventTypeResult EventType = "result"
)

// Event is a sequenced payload consumed by UI subscribers.
type Event struct {
	Seq        int64            `json:"seq"`
	Timestamp  time.Time        `json:"timestamp"`
	JobID      string           `json:"jobId"`
	Type       EventType        `json:"type"`
	Status     domain.JobStatus `json:"status,omitempty"`
	Message    string           `json:"message,omitempty"`
	Text       string           `json:"text,omitempty"`
	Command    string           `json:"command,omitempty"`
	Args       []string         `json:"args,omitempty"`
	ExitCode   int              `json:"exitCode"`
	Incomplete bool             `json:"incomplete,omitempty"`
	OutputDir  string           `json:"outputDir,omitempty"`
}

// EventBus stores recent events in sequence order and provides incremental
// reads. When full it sheds output chunks before lifecycle events.
type EventBus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
}

// NewEventBus creates a bounded in-memory event buffer.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// Publish appends one event and assigns sequence and timestamp.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		b.evictLocked()
	}

	return event
}

// evictLocked drops the oldest output event, or the oldest event when the
// history holds no output. Output is recoverable from the console snapshot;
// status, error and exit events are not.
func (b *EventBus) evictLocked() {
	drop := slices.IndexFunc(b.events, func(e Event) bool {
		return e.Type == EventTypeOutput
	})
	if drop < 0 {
		drop = 0
	}
	b.events = slices.Delete(b.events, drop, drop+1)
}

// Since returns events with sequence strictly greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}

// LastSeq returns the sequence of the newest published event.
func (b *EventBus) LastSeq() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.nextSeq
}
