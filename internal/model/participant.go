package model

import (
	"errors"
	"strings"
	"time"
)

// Starting gauge values for a freshly joined participant.
const (
	StartingHP     = 100
	StartingShield = 0
)

// ErrInvalidParticipant is returned when a join request carries a malformed
// participant snapshot (missing id or blank display name).
var ErrInvalidParticipant = errors.New("participant must have an id and a non-empty name")

// Participant is one roster entry embedded in a Session. Profile-snapshot
// fields (Name, Avatar, Level, Currency) are refreshed on every join; the
// battle gauges and counters are owned by the combat subsystem and are never
// overwritten by a rejoin.
type Participant struct {
	ID            string    `json:"id" bson:"id"`
	Name          string    `json:"name" bson:"name"`
	Avatar        string    `json:"avatar" bson:"avatar"`
	Level         int       `json:"level" bson:"level"`
	Currency      int       `json:"currency" bson:"currency"`
	Eliminated    bool      `json:"eliminated" bson:"eliminated"`
	HP            int       `json:"hp" bson:"hp"`
	Shield        int       `json:"shield" bson:"shield"`
	Participation int       `json:"participation" bson:"participation"`
	MovesEarned   int       `json:"movesEarned" bson:"movesEarned"`
	JoinedAt      time.Time `json:"joinedAt" bson:"joinedAt"`
}

// Validate checks that the snapshot is well-formed enough to join a roster.
func (p *Participant) Validate() error {
	if p.ID == "" || strings.TrimSpace(p.Name) == "" {
		return ErrInvalidParticipant
	}
	return nil
}

// ApplyProfile merges the incoming profile snapshot into an existing roster
// entry in place. Only profile fields are touched; elimination state, gauges
// and counters stay as the combat subsystem left them.
func (p *Participant) ApplyProfile(incoming Participant) {
	p.Name = strings.TrimSpace(incoming.Name)
	p.Avatar = incoming.Avatar
	p.Level = incoming.Level
	p.Currency = incoming.Currency
}
