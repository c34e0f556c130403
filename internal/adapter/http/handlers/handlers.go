package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang/snappy"

	"github.com/hivedesk/hivecache/internal/cache"
	"github.com/hivedesk/hivecache/internal/invalidation"
)

// Handlers carries the dependencies of the ops endpoints.
type Handlers struct {
	Registry    *cache.Registry
	Invalidator *invalidation.Invalidator
	Logger      *log.Logger
}

func New(registry *cache.Registry, invalidator *invalidation.Invalidator, logger *log.Logger) *Handlers {
	return &Handlers{Registry: registry, Invalidator: invalidator, Logger: logger}
}

// HandleHealth reports liveness and the configured namespaces.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"timestamp":  time.Now().Unix(),
		"namespaces": h.Registry.Namespaces(),
	})
}

// HandleStats returns one namespace's snapshot (?namespace=) or the
// full namespace → snapshot map.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	if ns := r.URL.Query().Get("namespace"); ns != "" {
		st, ok := h.Registry.StatsFor(ns)
		if !ok {
			http.Error(w, "unknown namespace", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"namespace": ns,
			"stats":     st,
		})
		return
	}

	all := h.Registry.StatsAll()
	writeJSON(w, http.StatusOK, map[string]any{
		"namespaces": len(all),
		"stats":      all,
	})
}

type invalidateRequest struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Tenant string `json:"tenant"`
}

// HandleInvalidate drops everything related to one entity in one tenant.
func (h *Handlers) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Kind == "" || req.Tenant == "" {
		http.Error(w, "kind and tenant are required", http.StatusBadRequest)
		return
	}

	removed := h.Invalidator.Invalidate(req.Kind, req.ID, req.Tenant)
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

// HandleDump streams a snappy-framed gob listing of the live entries in
// one namespace (?namespace=, default namespace otherwise). Metadata
// only; values never leave the process.
func (h *Handlers) HandleDump(w http.ResponseWriter, r *http.Request) {
	store := h.Registry.Store(r.URL.Query().Get("namespace"))

	w.Header().Set("Content-Type", "application/octet-stream")
	sw := snappy.NewBufferedWriter(w)
	if err := store.DumpTo(sw); err != nil {
		h.Logger.Error("http: dump failed", "err", err)
		return
	}
	if err := sw.Close(); err != nil {
		h.Logger.Error("http: dump flush failed", "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
