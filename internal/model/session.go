package model

import (
	"strings"
	"time"
)

type SessionStatus string

const (
	SessionLive  SessionStatus = "live"
	SessionEnded SessionStatus = "ended"
)

// NormalizeStatus folds the legacy aliases "open" and "active" into
// SessionLive. Older session records were written with those statuses and
// must keep behaving as live sessions. Anything unrecognized is treated as
// ended so that mutations against a malformed record are rejected rather
// than applied.
func NormalizeStatus(raw string) SessionStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "live", "open", "active":
		return SessionLive
	case "ended":
		return SessionEnded
	default:
		return SessionEnded
	}
}

// Session is the root record for one classroom battle. The roster and event
// log are embedded so that every mutation goes through a single
// read-modify-write transaction on this document.
type Session struct {
	ID        string        `json:"id" bson:"_id,omitempty"`
	ClassID   string        `json:"classId" bson:"classId"`
	ClassName string        `json:"className" bson:"className"`
	HostID    string        `json:"hostId" bson:"hostId"`
	Status    SessionStatus `json:"status" bson:"status"`
	Roster    []Participant `json:"roster" bson:"roster"`
	EventLog  []string      `json:"eventLog" bson:"eventLog"`
	CreatedAt time.Time     `json:"createdAt" bson:"createdAt"`
	StartedAt time.Time     `json:"startedAt" bson:"startedAt"`
	EndedAt   *time.Time    `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
}

// IsLive reports whether the session accepts mutations, normalizing legacy
// status aliases first.
func (s *Session) IsLive() bool {
	return NormalizeStatus(string(s.Status)) == SessionLive
}

// FindParticipant returns a pointer into the roster for the given
// participant id, or nil if the participant has not joined.
func (s *Session) FindParticipant(id string) *Participant {
	for i := range s.Roster {
		if s.Roster[i].ID == id {
			return &s.Roster[i]
		}
	}
	return nil
}

// ParticipantIDs returns the roster ids in join order.
func (s *Session) ParticipantIDs() []string {
	ids := make([]string, 0, len(s.Roster))
	for i := range s.Roster {
		ids = append(ids, s.Roster[i].ID)
	}
	return ids
}
