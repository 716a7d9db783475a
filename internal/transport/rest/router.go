package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"classbattle/internal/service"
	"classbattle/internal/transport/rest/handler"
	"classbattle/internal/transport/rest/middleware"
	"classbattle/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService       *service.AuthService
	SessionService    *service.SessionService
	MembershipService *service.MembershipService
	PresenceService   *service.PresenceService
	DiscoveryService  *service.DiscoveryService
	WSHub             *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	sessionHandler := handler.NewSessionHandler(c.SessionService, c.MembershipService, c.PresenceService, c.AuthService)
	discoveryHandler := handler.NewDiscoveryHandler(c.DiscoveryService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.PresenceService, c.DiscoveryService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// Discovery routes: anonymous callers see all live sessions, identified
	// participants get membership-filtered results. Registered before
	// /sessions/{id} so "discover" and "active" are not captured as ids.
	discoverRoutes := v1.NewRoute().Subrouter()
	discoverRoutes.Use(authMW.OptionalParticipant)

	discoverRoutes.HandleFunc("/sessions/discover", discoveryHandler.Discover).Methods("GET", "OPTIONS")
	discoverRoutes.HandleFunc("/sessions/active", discoveryHandler.Active).Methods("GET", "OPTIONS")

	v1.HandleFunc("/sessions/{id}/join", sessionHandler.Join).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/presence", sessionHandler.Presence).Methods("GET", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/sessions/{id}/host", wsHandler.HostWS).Methods("GET")
	v1.HandleFunc("/ws/sessions/{id}/participant", wsHandler.ParticipantWS).Methods("GET")
	v1.HandleFunc("/ws/discover", wsHandler.DiscoverWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Host routes (require host auth)
	hostRoutes := v1.NewRoute().Subrouter()
	hostRoutes.Use(authMW.RequireHost)

	hostRoutes.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/sessions/{id}/end", sessionHandler.End).Methods("POST", "OPTIONS")

	// Participant routes (require participant auth)
	participantRoutes := v1.NewRoute().Subrouter()
	participantRoutes.Use(authMW.RequireParticipant)

	participantRoutes.HandleFunc("/sessions/{id}/heartbeat", sessionHandler.Heartbeat).Methods("POST", "OPTIONS")
	participantRoutes.HandleFunc("/sessions/{id}/offline", sessionHandler.Offline).Methods("POST", "OPTIONS")
	participantRoutes.HandleFunc("/sessions/{id}/leave", sessionHandler.Leave).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
