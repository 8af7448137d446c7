package domain

import "time"

// TickOutcome classifies how a scheduled tick ended. Errors inside a tick
// surface here and in logs, never as a stopped schedule.
type TickOutcome string

const (
	TickOK      TickOutcome = "ok"
	TickSkipped TickOutcome = "skipped"
	TickFailed  TickOutcome = "failed"
)

// TickResult records the outcome of one scheduler tick.
type TickResult struct {
	Task     string      `json:"task"`
	Outcome  TickOutcome `json:"outcome"`
	Reason   string      `json:"reason,omitempty"`
	Started  time.Time   `json:"started"`
	Duration int64       `json:"duration_ms"`
}
