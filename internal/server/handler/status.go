package handler

import (
	"net/http"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// EngineState exposes the live flags the status endpoint reports.
type EngineState interface {
	Halted() bool
	Discrepancy() float64
}

// OrderSource exposes the ids of currently resting spot orders.
type OrderSource interface {
	OpenOrderIDs() map[string]int64
}

// TickSource exposes the most recent result per scheduled task.
type TickSource interface {
	LastResults() map[string]domain.TickResult
}

// SampleSource exposes the most recent appended equity sample.
type SampleSource interface {
	Last() (domain.EquitySample, bool)
}

// StatusHandler serves the live engine state for dashboards and operators.
type StatusHandler struct {
	mode     string
	instance int
	asset    string
	engine   EngineState
	orders   OrderSource
	ticks    TickSource
	samples  SampleSource
}

// NewStatusHandler creates a StatusHandler over the given sources.
func NewStatusHandler(mode string, instance int, asset string, engine EngineState, orders OrderSource, ticks TickSource, samples SampleSource) *StatusHandler {
	return &StatusHandler{
		mode:     mode,
		instance: instance,
		asset:    asset,
		engine:   engine,
		orders:   orders,
		ticks:    ticks,
		samples:  samples,
	}
}

// GetStatus responds with the engine's current state.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"mode":     h.mode,
		"instance": h.instance,
		"asset":    h.asset,
	}
	if h.engine != nil {
		body["halted"] = h.engine.Halted()
		body["discrepancy"] = h.engine.Discrepancy()
	}
	if h.orders != nil {
		body["orders"] = h.orders.OpenOrderIDs()
	}
	if h.ticks != nil {
		body["ticks"] = h.ticks.LastResults()
	}
	if h.samples != nil {
		if sample, ok := h.samples.Last(); ok {
			body["last_sample"] = sample
		}
	}
	writeJSON(w, http.StatusOK, body)
}
