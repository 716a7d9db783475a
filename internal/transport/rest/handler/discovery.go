package handler

import (
	"net/http"
	"strings"

	"classbattle/internal/service"
	"classbattle/internal/transport/rest/middleware"
)

// DiscoveryHandler answers "which live session should I be in" queries
type DiscoveryHandler struct {
	discoverySvc *service.DiscoveryService
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(discoverySvc *service.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{discoverySvc: discoverySvc}
}

// Discover handles GET /v1/sessions/discover?classIds=a,b,c
// With no classIds it resolves the caller's class membership; with neither
// it falls back to all live sessions.
func (h *DiscoveryHandler) Discover(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("classIds")

	var classIDs []string
	for _, id := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			classIDs = append(classIDs, trimmed)
		}
	}

	if len(classIDs) == 0 {
		if userID := middleware.GetParticipantID(r.Context()); userID != "" {
			sessions, err := h.discoverySvc.FindForUser(r.Context(), userID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
			return
		}
	}

	sessions, err := h.discoverySvc.FindLiveSessions(r.Context(), classIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// Active handles GET /v1/sessions/active?classIds=a,b,c — the single most
// recently started live session, or 204 when none match.
func (h *DiscoveryHandler) Active(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("classIds")

	var classIDs []string
	for _, id := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			classIDs = append(classIDs, trimmed)
		}
	}

	session, err := h.discoverySvc.ActiveSession(r.Context(), classIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if session == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, session)
}
