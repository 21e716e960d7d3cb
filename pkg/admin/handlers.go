package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"veridian-hq/cerberus/pkg/audit"
	"veridian-hq/cerberus/pkg/guard/breaker"
	"veridian-hq/cerberus/pkg/guard/killswitch"
)

// ActorHeader carries the operator identity for audited mutations.
const ActorHeader = "X-Actor"

// Handler serves the operator API under /admin.
type Handler struct {
	switches *killswitch.Manager
	breakers *breaker.Registry
	audits   audit.Store
	logger   *slog.Logger
}

// NewHandler builds the admin handler.
func NewHandler(switches *killswitch.Manager, breakers *breaker.Registry, audits audit.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		switches: switches,
		breakers: breakers,
		audits:   audits,
		logger:   logger.With("component", "admin"),
	}
}

// Register mounts the admin routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/admin/switches", h.handleSwitches)
	mux.HandleFunc("/admin/switches/", h.handleSetSwitch)
	mux.HandleFunc("/admin/breakers", h.handleBreakers)
	mux.HandleFunc("/admin/breakers/reset", h.handleBreakersReset)
	mux.HandleFunc("/admin/audit", h.handleAudit)
}

// handleSwitches returns the currently enabled switches.
func (h *Handler) handleSwitches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled": h.switches.GetAll(),
	})
}

type setSwitchRequest struct {
	Enabled bool   `json:"enabled"`
	Actor   string `json:"actor,omitempty"`
}

// handleSetSwitch flips a single switch: POST /admin/switches/{name}.
func (h *Handler) handleSetSwitch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/admin/switches/")
	if name == "" || strings.Contains(name, "/") {
		http.Error(w, "Invalid switch name", http.StatusBadRequest)
		return
	}

	var req setSwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	actor := r.Header.Get(ActorHeader)
	if actor == "" {
		actor = req.Actor
	}
	if actor == "" {
		http.Error(w, "Actor required", http.StatusBadRequest)
		return
	}

	change, err := h.switches.SetSwitch(r.Context(), name, req.Enabled, actor)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, change)
}

// handleBreakers returns the per-dependency breaker snapshots.
func (h *Handler) handleBreakers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"breakers": h.breakers.Snapshots(),
	})
}

// handleBreakersReset forces every breaker closed.
func (h *Handler) handleBreakersReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	n := h.breakers.ResetAll()
	h.logger.Warn("circuit breakers reset",
		"count", n,
		"actor", r.Header.Get(ActorHeader))
	writeJSON(w, http.StatusOK, map[string]any{"reset": n})
}

// handleAudit returns the most recent audit records, newest first.
// The limit query parameter caps the result; it defaults to 100.
func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := h.audits.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list audit records", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []audit.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
