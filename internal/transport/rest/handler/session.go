package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"classbattle/internal/model"
	"classbattle/internal/service"
	"classbattle/internal/store"
	"classbattle/internal/transport/rest/middleware"
)

// SessionHandler handles session lifecycle and membership endpoints
type SessionHandler struct {
	sessionSvc    *service.SessionService
	membershipSvc *service.MembershipService
	presenceSvc   *service.PresenceService
	authSvc       *service.AuthService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService, membershipSvc *service.MembershipService, presenceSvc *service.PresenceService, authSvc *service.AuthService) *SessionHandler {
	return &SessionHandler{
		sessionSvc:    sessionSvc,
		membershipSvc: membershipSvc,
		presenceSvc:   presenceSvc,
		authSvc:       authSvc,
	}
}

// CreateSessionRequest is the request body for opening a session
type CreateSessionRequest struct {
	ClassID   string `json:"classId"`
	ClassName string `json:"className"`
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	hostID := middleware.GetHostID(r.Context())
	if hostID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ClassID == "" {
		writeError(w, http.StatusBadRequest, "classId is required")
		return
	}

	session, err := h.sessionSvc.Create(r.Context(), req.ClassID, req.ClassName, hostID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := h.sessionSvc.Get(r.Context(), sessionID)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// JoinRequest is the request body for joining a session
type JoinRequest struct {
	ParticipantID string `json:"participantId"`
	Name          string `json:"name"`
	Avatar        string `json:"avatar"`
	Level         int    `json:"level"`
	Currency      int    `json:"currency"`
}

// JoinResponse is returned after a successful join
type JoinResponse struct {
	Session *model.Session `json:"session"`
	Token   string         `json:"token"`
}

// Join handles POST /v1/sessions/{id}/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	participant := model.Participant{
		ID:       req.ParticipantID,
		Name:     req.Name,
		Avatar:   req.Avatar,
		Level:    req.Level,
		Currency: req.Currency,
	}

	session, err := h.membershipSvc.Join(r.Context(), sessionID, participant)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	token, err := h.authSvc.GenerateParticipantToken(sessionID, participant.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, JoinResponse{Session: session, Token: token})
}

// Leave handles POST /v1/sessions/{id}/leave
func (h *SessionHandler) Leave(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	participantID := middleware.GetParticipantID(r.Context())

	if err := h.membershipSvc.Leave(r.Context(), sessionID, participantID); err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// End handles POST /v1/sessions/{id}/end
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	hostID := middleware.GetHostID(r.Context())
	email := middleware.GetHostEmail(r.Context())
	name := middleware.GetHostName(r.Context())

	session, err := h.sessionSvc.End(r.Context(), sessionID, hostID, email, name)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Heartbeat handles POST /v1/sessions/{id}/heartbeat
func (h *SessionHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	participantID := middleware.GetParticipantID(r.Context())

	h.presenceSvc.Heartbeat(r.Context(), sessionID, participantID)
	w.WriteHeader(http.StatusNoContent)
}

// Offline handles POST /v1/sessions/{id}/offline
func (h *SessionHandler) Offline(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	participantID := middleware.GetParticipantID(r.Context())

	h.presenceSvc.MarkOffline(r.Context(), sessionID, participantID)
	w.WriteHeader(http.StatusNoContent)
}

// Presence handles GET /v1/sessions/{id}/presence
func (h *SessionHandler) Presence(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	views, err := h.presenceSvc.Snapshot(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"presence": views})
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, service.ErrSessionNotLive):
		writeError(w, http.StatusConflict, "session is not live")
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "not authorized")
	case errors.Is(err, model.ErrInvalidParticipant):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
