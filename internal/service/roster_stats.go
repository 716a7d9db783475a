package service

import (
	"context"

	"classbattle/internal/model"
	"classbattle/internal/store"
)

// rosterStats is a CombatStats implementation that reads a participant's
// counters straight off the session roster, where the combat subsystem
// accumulates them. Initialization is a no-op because Join seeds the roster
// entry's counters inside the same transaction that appends it.
type rosterStats struct {
	sessions store.SessionStore
}

// NewRosterStats creates a roster-backed combat stats reader.
func NewRosterStats(sessions store.SessionStore) CombatStats {
	return &rosterStats{sessions: sessions}
}

func (r *rosterStats) InitializeParticipantStats(ctx context.Context, sessionID, participantID, displayName string, startingCurrency int) error {
	return nil
}

func (r *rosterStats) ParticipantStats(ctx context.Context, sessionID, participantID string) (*model.ParticipantSummary, error) {
	session, err := r.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, store.ErrSessionNotFound
	}
	p := session.FindParticipant(participantID)
	if p == nil {
		return nil, nil
	}
	return &model.ParticipantSummary{
		ParticipantID: p.ID,
		Name:          p.Name,
		Participation: p.Participation,
		MovesEarned:   p.MovesEarned,
		Currency:      p.Currency,
		Eliminated:    p.Eliminated,
	}, nil
}
