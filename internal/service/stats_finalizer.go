package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"classbattle/internal/model"
	"classbattle/internal/store"
)

// CombatStats is the combat-subsystem collaborator owning per-participant
// in-session counters. The coordinator only initializes and reads them.
type CombatStats interface {
	InitializeParticipantStats(ctx context.Context, sessionID, participantID, displayName string, startingCurrency int) error
	ParticipantStats(ctx context.Context, sessionID, participantID string) (*model.ParticipantSummary, error)
}

// StatsFinalizer computes the one-time closing summary for a session. It is
// best-effort end to end: a participant whose stats cannot be read is left
// out and the summary is marked partial, and a summary that already exists
// makes a repeat finalization a no-op.
type StatsFinalizer struct {
	combat    CombatStats
	summaries store.SummaryStore
}

// NewStatsFinalizer creates a stats finalizer.
func NewStatsFinalizer(combat CombatStats, summaries store.SummaryStore) *StatsFinalizer {
	return &StatsFinalizer{combat: combat, summaries: summaries}
}

// Finalize reads each participant's accumulated counters and writes one
// immutable summary record. Safe to call with an empty or partial
// participant list.
func (f *StatsFinalizer) Finalize(ctx context.Context, session *model.Session, participantIDs []string) (*model.SessionSummary, error) {
	summary := &model.SessionSummary{
		SessionID:    session.ID,
		ClassID:      session.ClassID,
		Participants: make([]model.ParticipantSummary, 0, len(participantIDs)),
		FinalizedAt:  time.Now(),
	}

	for _, id := range participantIDs {
		stats, err := f.combat.ParticipantStats(ctx, session.ID, id)
		if err != nil || stats == nil {
			log.Printf("finalize: no stats for participant %s in session %s: %v", id, session.ID, err)
			summary.Partial = true
			continue
		}
		summary.Participants = append(summary.Participants, *stats)
	}

	if err := f.summaries.Insert(ctx, summary); err != nil {
		if errors.Is(err, store.ErrAlreadyFinalized) {
			// Another end request got here first; its summary stands.
			return f.summaries.GetBySessionID(ctx, session.ID)
		}
		return nil, fmt.Errorf("write summary for session %s: %w", session.ID, err)
	}
	return summary, nil
}
