package model

import "time"

// PresenceRecord tracks one participant's connection heartbeat for a
// session. It lives outside the session document so heartbeat churn does not
// contend with roster writes, and it is never deleted while the session is
// live. Going stale is how a killed tab eventually reads as offline.
type PresenceRecord struct {
	ParticipantID string    `json:"participantId"`
	Connected     bool      `json:"connected"`
	LastSeen      time.Time `json:"lastSeen"`
	JoinedAt      time.Time `json:"joinedAt"`
}

// IsStale reports whether the last heartbeat is older than the threshold.
func (r *PresenceRecord) IsStale(now time.Time, threshold time.Duration) bool {
	return now.Sub(r.LastSeen) > threshold
}

// Online reports effective connectivity: a record that still says connected
// but has gone stale counts as offline, covering tabs killed without an
// unload handler firing.
func (r *PresenceRecord) Online(now time.Time, threshold time.Duration) bool {
	return r.Connected && !r.IsStale(now, threshold)
}
