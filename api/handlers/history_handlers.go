package handlers

import (
	"net/http"

	"stocwatch/core/store"
	"stocwatch/core/utils"
)

type HistoryHandler struct {
	history store.HistoryStore
	logger  *utils.Logger
}

func NewHistoryHandler(hs store.HistoryStore, logger *utils.Logger) *HistoryHandler {
	return &HistoryHandler{history: hs, logger: logger}
}

// ListEdits returns the append-only edit log, newest first. Each entry holds
// the pre-edit values of the mutated record.
func (h *HistoryHandler) ListEdits(w http.ResponseWriter, r *http.Request) {
	party, ok := pathParty(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "unknown party")
		return
	}
	items, err := h.history.ListEdits(r.Context(), party)
	if err != nil {
		h.serverError(w, "list edit history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *HistoryHandler) ListDeletions(w http.ResponseWriter, r *http.Request) {
	party, ok := pathParty(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "unknown party")
		return
	}
	items, err := h.history.ListDeletions(r.Context(), party)
	if err != nil {
		h.serverError(w, "list delete history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// ClearDeletions wipes a party's tombstone log on demand, ahead of the
// retention sweeper. Administrative, unconditional.
func (h *HistoryHandler) ClearDeletions(w http.ResponseWriter, r *http.Request) {
	party, ok := pathParty(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "unknown party")
		return
	}
	if err := h.history.ClearDeletions(r.Context(), party); err != nil {
		h.serverError(w, "clear delete history", err)
		return
	}
	writeMessage(w, http.StatusOK, "all deleted incident history records have been permanently removed")
}

func (h *HistoryHandler) serverError(w http.ResponseWriter, op string, err error) {
	if h.logger != nil {
		h.logger.Errorf("%s: %v", op, err)
	}
	writeMessage(w, http.StatusInternalServerError, "internal server error")
}
