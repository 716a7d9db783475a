package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"classbattle/internal/model"
	"classbattle/internal/store"
)

// MembershipService handles joining and leaving a session roster. Every
// roster mutation runs through the store's transaction primitive, which is
// what makes join idempotent under retries and concurrent taps.
type MembershipService struct {
	sessions    store.SessionStore
	presence    *PresenceService
	combat      CombatStats
	broadcaster Broadcaster
}

// NewMembershipService creates a membership manager.
func NewMembershipService(sessions store.SessionStore, presence *PresenceService, combat CombatStats) *MembershipService {
	return &MembershipService{
		sessions: sessions,
		presence: presence,
		combat:   combat,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events.
func (s *MembershipService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Join adds the participant to the session roster, or refreshes the profile
// snapshot of an existing entry. Calling it N times with the same
// participant id never produces more than one roster entry: the
// read-modify-write transaction serializes concurrent joins to the same
// session. Presence and combat-stat initialization happen after commit and
// are best-effort.
func (s *MembershipService) Join(ctx context.Context, sessionID string, incoming model.Participant) (*model.Session, error) {
	if err := incoming.Validate(); err != nil {
		return nil, err
	}
	incoming.Name = strings.TrimSpace(incoming.Name)

	var firstJoin bool
	session, err := s.sessions.Mutate(ctx, sessionID, func(sess *model.Session) error {
		if !sess.IsLive() {
			return ErrSessionNotLive
		}

		if existing := sess.FindParticipant(incoming.ID); existing != nil {
			// Rejoin after refresh: refresh the profile snapshot in place,
			// leave combat-owned state alone, append nothing to the log.
			existing.ApplyProfile(incoming)
			return nil
		}

		firstJoin = true
		entry := incoming
		entry.Eliminated = false
		entry.HP = model.StartingHP
		entry.Shield = model.StartingShield
		entry.Participation = 0
		entry.MovesEarned = 0
		entry.JoinedAt = time.Now()
		sess.Roster = append(sess.Roster, entry)
		sess.EventLog = append(sess.EventLog, fmt.Sprintf("%s joined the battle", entry.Name))
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Outside the transaction: not required for correctness, never fatal.
	s.presence.EnsureRecord(ctx, sessionID, incoming.ID)
	if firstJoin {
		if s.combat != nil {
			if err := s.combat.InitializeParticipantStats(ctx, sessionID, incoming.ID, incoming.Name, incoming.Currency); err != nil {
				log.Printf("init stats for %s in session %s: %v", incoming.ID, sessionID, err)
			}
		}
		if s.broadcaster != nil {
			s.broadcaster.BroadcastToHost(sessionID, "participant_joined", map[string]interface{}{
				"participantId": incoming.ID,
				"name":          incoming.Name,
				"rosterSize":    len(session.Roster),
			})
			s.broadcaster.BroadcastToAllParticipants(sessionID, "roster_update", map[string]interface{}{
				"roster": session.Roster,
			})
		}
	}

	return session, nil
}

// Leave records the departure and marks the participant offline. The roster
// entry stays: the roster is the record of everyone who was ever in the
// battle, which finalization needs. Leaving an already-ended session is a
// no-op.
func (s *MembershipService) Leave(ctx context.Context, sessionID, participantID string) error {
	s.presence.MarkOffline(ctx, sessionID, participantID)

	var left bool
	var name string
	_, err := s.sessions.Mutate(ctx, sessionID, func(sess *model.Session) error {
		if !sess.IsLive() {
			return ErrSessionNotLive
		}
		p := sess.FindParticipant(participantID)
		if p == nil {
			return nil
		}
		left = true
		name = p.Name
		sess.EventLog = append(sess.EventLog, fmt.Sprintf("%s left the battle", p.Name))
		return nil
	})
	if err == ErrSessionNotLive || err == store.ErrSessionNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	if left && s.broadcaster != nil {
		s.broadcaster.BroadcastToHost(sessionID, "participant_left", map[string]interface{}{
			"participantId": participantID,
			"name":          name,
		})
		// Targeted frame so the participant's other open tabs leave the
		// battle view too.
		s.broadcaster.BroadcastToParticipant(sessionID, participantID, "participant_left", map[string]interface{}{
			"participantId": participantID,
		})
	}
	return nil
}
