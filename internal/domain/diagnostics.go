package domain

import "time"

// DiagnosticStatus indicates whether a single check passed.
type DiagnosticStatus string

const (
	DiagnosticStatusPass DiagnosticStatus = "pass"
	DiagnosticStatusFail DiagnosticStatus = "fail"
)

// DiagnosticItem is one check result with optional hint.
type DiagnosticItem struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Status  DiagnosticStatus `json:"status"`
	Message string           `json:"message"`
	Hint    string           `json:"hint,omitempty"`
}

// DiagnosticReport aggregates the executable and settings-folder checks shown
// in the settings tab.
type DiagnosticReport struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	HasFailures bool             `json:"hasFailures"`
	Items       []DiagnosticItem `json:"items"`
}

// Item returns the check with the given id.
func (r DiagnosticReport) Item(id string) (DiagnosticItem, bool) {
	for _, item := range r.Items {
		if item.ID == id {
			return item, true
		}
	}
	return DiagnosticItem{}, false
}

// ItemFailed reports whether the check with the given id ran and failed.
func (r DiagnosticReport) ItemFailed(id string) bool {
	item, ok := r.Item(id)
	return ok && item.Status == DiagnosticStatusFail
}
