package service

import "errors"

var (
	// ErrSessionNotLive is returned by mutating calls against a session
	// that has already ended.
	ErrSessionNotLive = errors.New("session is not live")

	// ErrUnauthorized is returned when the caller may not administrate the
	// session. The message is deliberately generic; which check failed is
	// not surfaced.
	ErrUnauthorized = errors.New("not authorized")
)
