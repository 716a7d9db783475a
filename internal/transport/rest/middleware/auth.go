package middleware

import (
	"context"
	"net/http"
	"strings"

	"classbattle/internal/service"
)

type contextKey string

const (
	HostIDKey        contextKey = "hostId"
	HostEmailKey     contextKey = "hostEmail"
	HostNameKey      contextKey = "hostName"
	ParticipantIDKey contextKey = "participantId"
	SessionIDKey     contextKey = "sessionId"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authSvc *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireHost validates host JWT from Authorization header
func (m *AuthMiddleware) RequireHost(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.authSvc.ValidateHostToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, HostIDKey, claims.HostID)
		ctx = context.WithValue(ctx, HostEmailKey, claims.Email)
		ctx = context.WithValue(ctx, HostNameKey, claims.Name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireParticipant validates participant JWT from Authorization header or query param
func (m *AuthMiddleware) RequireParticipant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			// Try query param for WebSocket
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			http.Error(w, `{"error":"missing authorization"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.authSvc.ValidateParticipantToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, ParticipantIDKey, claims.ParticipantID)
		ctx = context.WithValue(ctx, SessionIDKey, claims.SessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalParticipant populates participant claims when a valid token is
// present but lets anonymous requests through. Used on discovery routes,
// which filter by the caller's classes when identified and show all live
// sessions otherwise.
func (m *AuthMiddleware) OptionalParticipant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token != "" {
			if claims, err := m.authSvc.ValidateParticipantToken(token); err == nil {
				ctx := r.Context()
				ctx = context.WithValue(ctx, ParticipantIDKey, claims.ParticipantID)
				ctx = context.WithValue(ctx, SessionIDKey, claims.SessionID)
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// GetHostID extracts host ID from context
func GetHostID(ctx context.Context) string {
	if v := ctx.Value(HostIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetHostEmail extracts host email from context
func GetHostEmail(ctx context.Context) string {
	if v := ctx.Value(HostEmailKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetHostName extracts host display name from context
func GetHostName(ctx context.Context) string {
	if v := ctx.Value(HostNameKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetParticipantID extracts participant ID from context
func GetParticipantID(ctx context.Context) string {
	if v := ctx.Value(ParticipantIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetSessionID extracts session ID from context
func GetSessionID(ctx context.Context) string {
	if v := ctx.Value(SessionIDKey); v != nil {
		return v.(string)
	}
	return ""
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
