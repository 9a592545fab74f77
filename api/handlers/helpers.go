package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"stocwatch/core/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func urlParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func pathID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(urlParam(r, key)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func pathParty(r *http.Request) (store.Party, bool) {
	return store.ParseParty(strings.ToLower(strings.TrimSpace(urlParam(r, "party"))))
}

// splitCSV turns a comma-separated query value into its non-empty elements.
// An absent parameter yields nil, which the filter layer treats as a no-op.
func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
