package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"classbattle/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService handles host and participant authentication.
type AuthService struct {
	hostUsername string
	hostPassword string
	jwtSecret    []byte
}

// NewAuthService creates a new auth service.
func NewAuthService(hostUsername, hostPassword, jwtSecret string) *AuthService {
	return &AuthService{
		hostUsername: hostUsername,
		hostPassword: hostPassword,
		jwtSecret:    []byte(jwtSecret),
	}
}

// Login validates host credentials and returns a host token.
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	if username != s.hostUsername || password != s.hostPassword {
		return nil, ErrInvalidCredentials
	}

	hostID := "host_" + uuid.New().String()[:8]

	claims := &model.HostClaims{
		HostID: hostID,
		Name:   username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:  tokenString,
		HostID: hostID,
	}, nil
}

// ValidateHostToken validates a host JWT and returns claims.
func (s *AuthService) ValidateHostToken(tokenString string) (*model.HostClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.HostClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.HostClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GenerateParticipantToken creates a session-scoped token for a participant.
func (s *AuthService) GenerateParticipantToken(sessionID, participantID string) (string, error) {
	claims := &model.ParticipantClaims{
		SessionID:     sessionID,
		ParticipantID: participantID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateParticipantToken validates a participant JWT and returns claims.
func (s *AuthService) ValidateParticipantToken(tokenString string) (*model.ParticipantClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.ParticipantClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.ParticipantClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
