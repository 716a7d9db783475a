package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"classbattle/internal/cache"
	"classbattle/internal/model"
)

// PresenceView is a presence record with effective connectivity computed
// against the staleness threshold.
type PresenceView struct {
	model.PresenceRecord
	Online bool `json:"online"`
}

// PresenceService tracks per-participant heartbeats. All of its write paths
// are advisory: a Redis blip must never take down a join or a page, so
// failures are logged and swallowed and the staleness timeout covers the
// gap.
type PresenceService struct {
	presence       cache.PresenceCache
	staleThreshold time.Duration
	now            func() time.Time
	broadcaster    Broadcaster
}

// NewPresenceService creates a presence tracker. staleThreshold should be at
// least twice the client heartbeat interval; config validation enforces it.
func NewPresenceService(presence cache.PresenceCache, staleThreshold time.Duration) *PresenceService {
	return &PresenceService{
		presence:       presence,
		staleThreshold: staleThreshold,
		now:            time.Now,
	}
}

// SetBroadcaster sets the WebSocket broadcaster (called after hub init)
func (s *PresenceService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Heartbeat upserts the participant's presence record with a fresh lastSeen.
// Called once on join and on a fixed interval while the client is viewing
// the session.
func (s *PresenceService) Heartbeat(ctx context.Context, sessionID, participantID string) {
	now := s.now()
	record, err := s.presence.Get(ctx, sessionID, participantID)
	if err != nil {
		// Skip the beat rather than rebuild the record blind: an upsert here
		// would reset joinedAt, and the stale threshold absorbs the miss.
		log.Printf("presence: read %s/%s: %v", sessionID, participantID, err)
		return
	}
	if record == nil {
		record = &model.PresenceRecord{
			ParticipantID: participantID,
			JoinedAt:      now,
		}
	}
	wasOnline := record.Online(now, s.staleThreshold)
	record.Connected = true
	record.LastSeen = now

	if err := s.presence.Upsert(ctx, sessionID, record); err != nil {
		log.Printf("presence: heartbeat %s/%s: %v", sessionID, participantID, err)
		return
	}
	// Only transitions are worth a push; steady heartbeats are not.
	if !wasOnline && s.broadcaster != nil {
		s.broadcaster.BroadcastToHost(sessionID, "presence_update", map[string]interface{}{
			"participantId": participantID,
			"online":        true,
		})
	}
}

// MarkOffline flags the participant as disconnected on unload/navigate-away.
// Fire-and-forget; if it never lands, staleness reports the same state.
func (s *PresenceService) MarkOffline(ctx context.Context, sessionID, participantID string) {
	record, err := s.presence.Get(ctx, sessionID, participantID)
	if err != nil || record == nil {
		return
	}
	record.Connected = false
	if err := s.presence.Upsert(ctx, sessionID, record); err != nil {
		log.Printf("presence: mark offline %s/%s: %v", sessionID, participantID, err)
		return
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToHost(sessionID, "presence_update", map[string]interface{}{
			"participantId": participantID,
			"online":        false,
		})
	}
}

// EnsureRecord creates a presence record if one does not exist yet. Join
// calls this after its transaction commits; presence and roster updates are
// not atomic together.
func (s *PresenceService) EnsureRecord(ctx context.Context, sessionID, participantID string) {
	record, err := s.presence.Get(ctx, sessionID, participantID)
	if err != nil {
		log.Printf("presence: read %s/%s: %v", sessionID, participantID, err)
		return
	}
	if record != nil {
		return
	}
	s.Heartbeat(ctx, sessionID, participantID)
}

// Snapshot returns every presence record for the session with effective
// connectivity computed. Unlike the write paths this is load-bearing for
// the caller's view, so errors propagate.
func (s *PresenceService) Snapshot(ctx context.Context, sessionID string) (map[string]PresenceView, error) {
	records, err := s.presence.List(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list presence for session %s: %w", sessionID, err)
	}
	now := s.now()
	views := make(map[string]PresenceView, len(records))
	for id, record := range records {
		views[id] = PresenceView{
			PresenceRecord: *record,
			Online:         record.Online(now, s.staleThreshold),
		}
	}
	return views, nil
}

// IsStale reports whether a record's last heartbeat exceeds the configured
// threshold.
func (s *PresenceService) IsStale(record *model.PresenceRecord, now time.Time) bool {
	return record.IsStale(now, s.staleThreshold)
}
