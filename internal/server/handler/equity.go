package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// EquityHandler serves the recorded equity history from the mirror store.
type EquityHandler struct {
	store    domain.EquityStore
	instance int
	asset    string
	logger   *slog.Logger
}

// NewEquityHandler creates an EquityHandler for one stream.
func NewEquityHandler(store domain.EquityStore, instance int, asset string, logger *slog.Logger) *EquityHandler {
	return &EquityHandler{
		store:    store,
		instance: instance,
		asset:    asset,
		logger:   logger.With(slog.String("handler", "equity")),
	}
}

// ListRecent responds with up to ?limit= samples, newest first.
// GET /api/equity
func (h *EquityHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 100, 1000)

	samples, err := h.store.ListRecent(r.Context(), h.instance, h.asset, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list equity samples",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list equity samples")
		return
	}
	if samples == nil {
		samples = []domain.EquitySample{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"samples": samples})
}
