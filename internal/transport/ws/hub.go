package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Host message types
const (
	MsgParticipantJoined MessageType = "participant_joined"
	MsgParticipantLeft   MessageType = "participant_left"
	MsgPresenceUpdate    MessageType = "presence_update"
	MsgSessionEnded      MessageType = "session_ended"
)

// Participant message types
const (
	MsgRosterUpdate    MessageType = "roster_update"
	MsgDiscoveryUpdate MessageType = "discovery_update"
	MsgError           MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections per session
type Hub struct {
	hostConns        map[string]*Connection
	participantConns map[string]map[string]*Connection // sessionID -> participantID -> conn

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents a WebSocket connection
type Connection struct {
	SessionID     string
	ParticipantID string // Empty for host connections
	IsHost        bool
	Send          chan []byte
	Hub           *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	SessionID     string
	ToHost        bool
	ToParticipant string // Empty means all participants
	Message       *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		hostConns:        make(map[string]*Connection),
		participantConns: make(map[string]map[string]*Connection),
		register:         make(chan *Connection),
		unregister:       make(chan *Connection),
		broadcast:        make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if conn.IsHost {
				h.hostConns[conn.SessionID] = conn
				log.Printf("Host connected to session %s", conn.SessionID)
			} else {
				if h.participantConns[conn.SessionID] == nil {
					h.participantConns[conn.SessionID] = make(map[string]*Connection)
				}
				h.participantConns[conn.SessionID][conn.ParticipantID] = conn
				log.Printf("Participant %s connected to session %s", conn.ParticipantID, conn.SessionID)
			}
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if conn.IsHost {
				if existing, ok := h.hostConns[conn.SessionID]; ok && existing == conn {
					delete(h.hostConns, conn.SessionID)
					close(conn.Send)
					log.Printf("Host disconnected from session %s", conn.SessionID)
				}
			} else {
				if participants, ok := h.participantConns[conn.SessionID]; ok {
					if existing, ok := participants[conn.ParticipantID]; ok && existing == conn {
						delete(participants, conn.ParticipantID)
						close(conn.Send)
						log.Printf("Participant %s disconnected from session %s", conn.ParticipantID, conn.SessionID)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)

			if msg.ToHost {
				if conn, ok := h.hostConns[msg.SessionID]; ok {
					select {
					case conn.Send <- data:
					default:
						// Drop message if buffer full
					}
				}
			} else if msg.ToParticipant != "" {
				if participants, ok := h.participantConns[msg.SessionID]; ok {
					if conn, ok := participants[msg.ToParticipant]; ok {
						select {
						case conn.Send <- data:
						default:
						}
					}
				}
			} else {
				if participants, ok := h.participantConns[msg.SessionID]; ok {
					for _, conn := range participants {
						select {
						case conn.Send <- data:
						default:
						}
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToHost sends a message to the session host (implements service.Broadcaster)
func (h *Hub) BroadcastToHost(sessionID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		SessionID: sessionID,
		ToHost:    true,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// BroadcastToParticipant sends a message to one participant (implements service.Broadcaster)
func (h *Hub) BroadcastToParticipant(sessionID, participantID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		SessionID:     sessionID,
		ToParticipant: participantID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// BroadcastToAllParticipants sends a message to every participant in a session (implements service.Broadcaster)
func (h *Hub) BroadcastToAllParticipants(sessionID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		SessionID:     sessionID,
		ToParticipant: "", // Empty means all
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// DisconnectSession drops every connection for an ended session (implements service.Broadcaster)
func (h *Hub) DisconnectSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, ok := h.hostConns[sessionID]; ok {
		delete(h.hostConns, sessionID)
		close(conn.Send)
	}
	if participants, ok := h.participantConns[sessionID]; ok {
		for _, conn := range participants {
			close(conn.Send)
		}
		delete(h.participantConns, sessionID)
	}
	log.Printf("Session %s connections closed", sessionID)
}
