package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"classbattle/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler handles WebSocket connections
type Handler struct {
	hub       *Hub
	authSvc   *service.AuthService
	presence  *service.PresenceService
	discovery *service.DiscoveryService
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authSvc *service.AuthService, presence *service.PresenceService, discovery *service.DiscoveryService) *Handler {
	return &Handler{
		hub:       hub,
		authSvc:   authSvc,
		presence:  presence,
		discovery: discovery,
	}
}

// HostWS handles GET /v1/ws/sessions/{id}/host
func (h *Handler) HostWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateHostToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		SessionID: sessionID,
		IsHost:    true,
		Send:      make(chan []byte, 256),
		Hub:       h.hub,
	}

	h.hub.Register(conn)

	log.Printf("Host %s connected to session %s via WebSocket", claims.HostID, sessionID)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

// ParticipantWS handles GET /v1/ws/sessions/{id}/participant
func (h *Handler) ParticipantWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateParticipantToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if claims.SessionID != sessionID {
		http.Error(w, "token not valid for this session", http.StatusForbidden)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		SessionID:     sessionID,
		ParticipantID: claims.ParticipantID,
		IsHost:        false,
		Send:          make(chan []byte, 256),
		Hub:           h.hub,
	}

	h.hub.Register(conn)

	log.Printf("Participant %s connected to session %s via WebSocket", claims.ParticipantID, sessionID)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

// DiscoverWS handles GET /v1/ws/discover?classIds=a,b,c
// Streams live-session snapshots as discovery_update messages while the
// connection is open. Each message carries the full current result set.
func (h *Handler) DiscoverWS(w http.ResponseWriter, r *http.Request) {
	var classIDs []string
	for _, id := range strings.Split(r.URL.Query().Get("classIds"), ",") {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			classIDs = append(classIDs, trimmed)
		}
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	watcher := h.discovery.Watch(classIDs)

	// Reader only observes the close; inbound frames are ignored.
	go func() {
		defer watcher.Stop()
		wsConn.SetReadLimit(maxMessageSize)
		for {
			if _, _, err := wsConn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case sessions, ok := <-watcher.Updates():
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := json.Marshal(map[string]interface{}{"sessions": sessions})
			if err != nil {
				continue
			}
			data, err := json.Marshal(&Message{Type: MsgDiscoveryUpdate, Payload: payload})
			if err != nil {
				continue
			}
			if err := wsConn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		if !conn.IsHost {
			h.presence.MarkOffline(context.Background(), conn.SessionID, conn.ParticipantID)
		}
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		// Any inbound frame from a participant doubles as a heartbeat.
		if !conn.IsHost {
			h.presence.Heartbeat(context.Background(), conn.SessionID, conn.ParticipantID)
		}
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
