package storage

import "time"

// EventWriter is the interface for writing safety decision events.
// Write() must NEVER block the caller.
type EventWriter interface {
	Write(event *DecisionEvent)
	Close()
}

// DecisionEvent records one safety decision: an operation that was allowed,
// denied, parked for confirmation, or a mode toggle.
type DecisionEvent struct {
	RequestID      string
	Timestamp      time.Time
	Surface        string // "database", "api"
	Kind           string // "query", "api_request", "confirmation", "mode_change"
	Operation      string // SQL text or "METHOD /path", truncated
	Risk           string
	Mode           string
	Verdict        string // "allowed", "denied", "needs_confirmation", "error"
	Reason         string
	ConfirmationID string
	HadConfirm     bool
	LatencyMs      float32
}
