package handlers

import (
	"errors"
	"net/http"
	"strings"

	"stocwatch/core/notify"
	"stocwatch/core/store"
	"stocwatch/core/utils"
)

type DetectionsHandler struct {
	store    store.DetectionsStore
	notifier notify.Notifier
	logger   *utils.Logger
}

func NewDetectionsHandler(ds store.DetectionsStore, notifier notify.Notifier, logger *utils.Logger) *DetectionsHandler {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &DetectionsHandler{store: ds, notifier: notifier, logger: logger}
}

// ListSTOC serves the oversight view with the full filter set: free-text
// search plus location/threat-level/type sets.
func (h *DetectionsHandler) ListSTOC(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.DetectionFilter{
		Search:       q.Get("search"),
		Locations:    splitCSV(q.Get("searchLocations")),
		ThreatLevels: splitCSV(q.Get("searchThreatLevels")),
		Types:        splitCSV(q.Get("searchType")),
	}
	items, err := h.store.List(r.Context(), store.PartySTOC, filter)
	if err != nil {
		h.serverError(w, "list stoc detections", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// ListStore serves one store's own incident history. Low-threat rows never
// appear on this path; the exclusion lives in the query builder, not here.
func (h *DetectionsHandler) ListStore(w http.ResponseWriter, r *http.Request) {
	storeID, ok := pathID(r, "storeID")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "missing storeID parameter")
		return
	}
	filter := store.DetectionFilter{
		StoreID: storeID,
		Search:  r.URL.Query().Get("search"),
	}
	items, err := h.store.List(r.Context(), store.PartyStore, filter)
	if err != nil {
		h.serverError(w, "list store detections", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *DetectionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	party, ok := pathParty(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "unknown party")
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	d, err := h.store.Get(r.Context(), party, id)
	if err != nil {
		h.serverError(w, "get detection", err)
		return
	}
	if d == nil {
		writeMessage(w, http.StatusNotFound, "record not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DetectionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	party, ok := pathParty(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "unknown party")
		return
	}
	var d store.Detection
	if err := decodeBody(r, &d); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(d.Date) == "" || strings.TrimSpace(d.Time) == "" ||
		strings.TrimSpace(d.ThreatLevel) == "" || strings.TrimSpace(d.DetectionType) == "" {
		writeMessage(w, http.StatusBadRequest, "date, time, threat_level and detection_type are required")
		return
	}
	id, err := h.store.Create(r.Context(), party, &d)
	if err != nil {
		h.serverError(w, "create detection", err)
		return
	}
	h.notifier.Changed()
	writeJSON(w, http.StatusCreated, map[string]any{"detection_id": id, "shared_detection_id": d.SharedDetectionID})
}

func (h *DetectionsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	party, ok := pathParty(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "unknown party")
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var fields store.DetectionFields
	if err := decodeBody(r, &fields); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(fields.Date) == "" || strings.TrimSpace(fields.Time) == "" ||
		strings.TrimSpace(fields.ThreatLevel) == "" || strings.TrimSpace(fields.DetectionType) == "" {
		writeMessage(w, http.StatusBadRequest, "date, time, threat_level and detection_type are required")
		return
	}
	err := h.store.Edit(r.Context(), party, id, fields)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "incident not found")
		return
	case errors.Is(err, store.ErrNoChanges):
		writeMessage(w, http.StatusBadRequest, "no changes made to the record")
		return
	case err != nil:
		h.serverError(w, "edit detection", err)
		return
	}
	h.notifier.Changed()
	writeMessage(w, http.StatusOK, "incident updated and logged")
}

func (h *DetectionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	party, ok := pathParty(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "unknown party")
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	err := h.store.Delete(r.Context(), party, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "record not found")
		return
	case err != nil:
		h.serverError(w, "delete detection", err)
		return
	}
	h.notifier.Changed()
	writeMessage(w, http.StatusOK, "record deleted")
}

func (h *DetectionsHandler) CountSTOC(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.Count(r.Context(), store.PartySTOC, 0)
	if err != nil {
		h.serverError(w, "count stoc detections", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (h *DetectionsHandler) CountStore(w http.ResponseWriter, r *http.Request) {
	storeID, ok := pathID(r, "storeID")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "missing storeID parameter")
		return
	}
	n, err := h.store.Count(r.Context(), store.PartyStore, storeID)
	if err != nil {
		h.serverError(w, "count store detections", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (h *DetectionsHandler) ReportsByMonth(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.CountByMonth(r.Context(), store.PartySTOC, 0, utils.NowUTC().Year())
	if err != nil {
		h.serverError(w, "reports by month", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": counts})
}

func (h *DetectionsHandler) ReportsByLocation(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.CountByLocation(r.Context(), store.PartySTOC, utils.NowUTC().Year())
	if err != nil {
		h.serverError(w, "reports by location", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": counts})
}

func (h *DetectionsHandler) StoreReportsByMonth(w http.ResponseWriter, r *http.Request) {
	storeID, ok := pathID(r, "storeID")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "missing storeID parameter")
		return
	}
	counts, err := h.store.CountByMonth(r.Context(), store.PartyStore, storeID, utils.NowUTC().Year())
	if err != nil {
		h.serverError(w, "store reports by month", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": counts})
}

func (h *DetectionsHandler) LatestSTOC(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.Latest(r.Context(), store.PartySTOC, 0, 2)
	if err != nil {
		h.serverError(w, "latest stoc reports", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *DetectionsHandler) LatestStore(w http.ResponseWriter, r *http.Request) {
	storeID, ok := pathID(r, "storeID")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "missing storeID parameter")
		return
	}
	items, err := h.store.Latest(r.Context(), store.PartyStore, storeID, 2)
	if err != nil {
		h.serverError(w, "latest store reports", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// CoverReports returns the newest "Cover" detection for a store, the signal
// the store dashboard watches for concealment events.
func (h *DetectionsHandler) CoverReports(w http.ResponseWriter, r *http.Request) {
	storeID, ok := pathID(r, "storeID")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "missing storeID parameter")
		return
	}
	d, err := h.store.LatestCover(r.Context(), storeID)
	if err != nil {
		h.serverError(w, "cover reports", err)
		return
	}
	if d == nil {
		writeMessage(w, http.StatusNotFound, "no cover reports found for this store")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DetectionsHandler) serverError(w http.ResponseWriter, op string, err error) {
	if h.logger != nil {
		h.logger.Errorf("%s: %v", op, err)
	}
	writeMessage(w, http.StatusInternalServerError, "internal server error")
}
