package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// IsTransient classifies store failures that are safe to retry or, for
// advisory operations like heartbeats and polling ticks, to log and drop.
// Callers check error types here instead of pattern-matching message
// strings at every call site.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.HasErrorLabel("TransientTransactionError") ||
			serverErr.HasErrorLabel("UnknownTransactionCommitResult")
	}
	return false
}
