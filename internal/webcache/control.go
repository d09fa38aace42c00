package webcache

import (
	"encoding/json"
	"net/http"
)

// Control endpoints let the hosting page manage upgrades: activate the
// current version's buckets (reclaiming prior versions), purge every
// bucket, and read the active version string.
const (
	controlActivate = "/_cache/activate"
	controlPurge    = "/_cache/purge"
	controlVersion  = "/_cache/version"
)

func (h *Handler) handleControl(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case controlVersion:
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"version": h.version})

	case controlActivate:
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := h.Activate(r.Context()); err != nil {
			h.logger.Error().Err(err).Msg("activation via control channel failed")
			http.Error(w, "activation failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case controlPurge:
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := h.buckets.DeleteAll(); err != nil {
			h.logger.Error().Err(err).Msg("purge via control channel failed")
			http.Error(w, "purge failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.NotFound(w, r)
	}
}
