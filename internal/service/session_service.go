package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"classbattle/internal/model"
	"classbattle/internal/store"
)

// SessionService owns the session lifecycle: sessions are created directly
// into live and the only transition out is the terminal live → ended.
type SessionService struct {
	sessions    store.SessionStore
	authority   *HostAuthority
	finalizer   *StatsFinalizer
	broadcaster Broadcaster
}

// NewSessionService creates a session lifecycle service.
func NewSessionService(sessions store.SessionStore, authority *HostAuthority, finalizer *StatsFinalizer) *SessionService {
	return &SessionService{
		sessions:  sessions,
		authority: authority,
		finalizer: finalizer,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events.
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Create opens a live session for the class. At most one session should be
// live per class, checked best-effort: if a live one already exists it is
// returned instead of creating a duplicate. The check is not linearizable,
// so a racing pair of creates can still both land; that is an accepted rare
// outcome, and discovery's latest-startedAt tie-break picks the winner.
func (s *SessionService) Create(ctx context.Context, classID, className, hostID string) (*model.Session, error) {
	existing, err := s.sessions.FindLiveByClasses(ctx, []string{classID})
	if err != nil {
		log.Printf("live-session check for class %s: %v", classID, err)
	} else if len(existing) > 0 {
		return existing[0], nil
	}

	now := time.Now()
	session := &model.Session{
		ID:        uuid.New().String(),
		ClassID:   classID,
		ClassName: className,
		HostID:    hostID,
		Status:    model.SessionLive,
		Roster:    []model.Participant{},
		EventLog:  []string{fmt.Sprintf("battle opened for %s", className)},
		CreatedAt: now,
		StartedAt: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session for class %s: %w", classID, err)
	}
	return session, nil
}

// Get retrieves a session by id.
func (s *SessionService) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, store.ErrSessionNotFound
	}
	return session, nil
}

// End closes the session. Order matters: authority is checked before any
// state changes, finalization runs best-effort before the transition (a
// failed summary must not leave students stuck in a live session), and the
// transition itself is transactional and idempotent — ending an
// already-ended session succeeds without touching endedAt.
func (s *SessionService) End(ctx context.Context, sessionID, callerID, callerEmail, callerName string) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, store.ErrSessionNotFound
	}
	if !session.IsLive() {
		return session, nil
	}

	if !s.authority.CanEnd(ctx, session, callerID, callerEmail, callerName) {
		return nil, ErrUnauthorized
	}

	if _, err := s.finalizer.Finalize(ctx, session, session.ParticipantIDs()); err != nil {
		log.Printf("finalize session %s: %v", sessionID, err)
	}

	ended, err := s.sessions.Mutate(ctx, sessionID, func(sess *model.Session) error {
		if !sess.IsLive() {
			// A racing end request won; keep its endedAt.
			return nil
		}
		now := time.Now()
		sess.Status = model.SessionEnded
		sess.EndedAt = &now
		sess.EventLog = append(sess.EventLog, "battle ended")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("end session %s: %w", sessionID, err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToAllParticipants(sessionID, "session_ended", map[string]interface{}{
			"sessionId": sessionID,
		})
		s.broadcaster.BroadcastToHost(sessionID, "session_ended", map[string]interface{}{
			"sessionId": sessionID,
		})
		s.broadcaster.DisconnectSession(sessionID)
	}

	return ended, nil
}
