package model

import "github.com/golang-jwt/jwt/v5"

// HostClaims are JWT claims for teacher/host authentication.
type HostClaims struct {
	HostID string `json:"hostId"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ParticipantClaims are session-scoped JWT claims issued to a student on join.
type ParticipantClaims struct {
	SessionID     string `json:"sessionId"`
	ParticipantID string `json:"participantId"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for host login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	HostID string `json:"hostId"`
}
