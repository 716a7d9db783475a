package service

import (
	"context"
	"log"
	"sort"
	"time"

	"classbattle/internal/cache"
	"classbattle/internal/model"
	"classbattle/internal/store"
)

// DiscoveryChunkSize bounds how many class ids go into a single store
// query's "$in" filter.
const DiscoveryChunkSize = 10

// DiscoveryService answers "the live session, if any, for classes I belong
// to". Class-id sets are chunked to respect the store's query-parameter
// limit, results are merged and de-duplicated by session id, and missing or
// empty membership data degrades to showing all live sessions rather than
// none.
type DiscoveryService struct {
	sessions     store.SessionStore
	classrooms   store.ClassroomStore
	classCache   cache.ClassroomCache
	pollInterval time.Duration
}

// NewDiscoveryService creates a discovery service.
func NewDiscoveryService(sessions store.SessionStore, classrooms store.ClassroomStore, classCache cache.ClassroomCache, pollInterval time.Duration) *DiscoveryService {
	return &DiscoveryService{
		sessions:     sessions,
		classrooms:   classrooms,
		classCache:   classCache,
		pollInterval: pollInterval,
	}
}

// ChunkClassIDs splits a class-id set into store-sized query batches.
func ChunkClassIDs(classIDs []string, size int) [][]string {
	if size <= 0 {
		size = DiscoveryChunkSize
	}
	var chunks [][]string
	for start := 0; start < len(classIDs); start += size {
		end := start + size
		if end > len(classIDs) {
			end = len(classIDs)
		}
		chunks = append(chunks, classIDs[start:end])
	}
	return chunks
}

// FindLiveSessions queries live sessions for the given classes, one query
// per chunk, merged and de-duplicated by session id. A later chunk's
// snapshot of a session id replaces an earlier one, so the freshest read
// wins. An empty class set returns every live session. Results come back
// newest started first.
func (s *DiscoveryService) FindLiveSessions(ctx context.Context, classIDs []string) ([]*model.Session, error) {
	if len(classIDs) == 0 {
		return s.sessions.FindLiveByClasses(ctx, nil)
	}

	merged := make(map[string]*model.Session)
	for _, chunk := range ChunkClassIDs(classIDs, DiscoveryChunkSize) {
		sessions, err := s.sessions.FindLiveByClasses(ctx, chunk)
		if err != nil {
			return nil, err
		}
		for _, session := range sessions {
			merged[session.ID] = session
		}
	}

	out := make([]*model.Session, 0, len(merged))
	for _, session := range merged {
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

// ActiveSession picks "the" live session when several match: most recent
// startedAt wins.
func (s *DiscoveryService) ActiveSession(ctx context.Context, classIDs []string) (*model.Session, error) {
	sessions, err := s.FindLiveSessions(ctx, classIDs)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return sessions[0], nil
}

// FindForUser resolves the user's class membership (cache first, then the
// classroom store) and returns their live sessions. Stale or empty
// membership data falls back to all live sessions — showing something beats
// showing nothing, and strict filtering was seen to cause false negatives.
func (s *DiscoveryService) FindForUser(ctx context.Context, userID string) ([]*model.Session, error) {
	classIDs := s.classIDsForUser(ctx, userID)
	return s.FindLiveSessions(ctx, classIDs)
}

func (s *DiscoveryService) classIDsForUser(ctx context.Context, userID string) []string {
	if s.classCache != nil {
		cached, err := s.classCache.GetClasses(ctx, userID)
		if err != nil {
			log.Printf("discovery: class cache read for %s: %v", userID, err)
		} else if len(cached) > 0 {
			return cached
		}
	}

	if s.classrooms == nil {
		return nil
	}
	classrooms, err := s.classrooms.ListForMember(ctx, userID)
	if err != nil {
		log.Printf("discovery: classroom lookup for %s: %v", userID, err)
		return nil
	}
	classIDs := make([]string, 0, len(classrooms))
	for _, c := range classrooms {
		classIDs = append(classIDs, c.ID)
	}
	if s.classCache != nil && len(classIDs) > 0 {
		if err := s.classCache.SetClasses(ctx, userID, classIDs); err != nil {
			log.Printf("discovery: class cache write for %s: %v", userID, err)
		}
	}
	return classIDs
}

// Watcher polls discovery on a fixed interval and publishes full snapshot
// replacements. Polling replaced push subscriptions here because push
// delivery proved unreliable for this workload; each tick re-evaluates the
// whole result set so sessions that stop matching are pruned, not just
// additively merged.
type Watcher struct {
	svc      *DiscoveryService
	classIDs []string
	updates  chan []*model.Session
	stop     chan struct{}
}

// Watch starts a polling watcher for the given classes. The caller owns the
// watcher's lifecycle and must call Stop.
func (s *DiscoveryService) Watch(classIDs []string) *Watcher {
	w := &Watcher{
		svc:      s,
		classIDs: classIDs,
		updates:  make(chan []*model.Session, 1),
		stop:     make(chan struct{}),
	}
	go w.run()
	return w
}

// Updates delivers the latest snapshot. Only the newest snapshot is kept if
// the consumer falls behind.
func (w *Watcher) Updates() <-chan []*model.Session {
	return w.updates
}

// Stop terminates the polling loop.
func (w *Watcher) Stop() {
	close(w.stop)
}

func (w *Watcher) run() {
	ticker := time.NewTicker(w.svc.pollInterval)
	defer ticker.Stop()
	defer close(w.updates)

	w.poll()
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			// Polls run synchronously in this loop, so at most one is in
			// flight; a slow store response skips ticks instead of stacking
			// overlapping queries.
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), w.svc.pollInterval*3)
	defer cancel()

	sessions, err := w.svc.FindLiveSessions(ctx, w.classIDs)
	if err != nil {
		// Advisory tick: keep the previous snapshot on transient trouble.
		if store.IsTransient(err) {
			log.Printf("discovery poll (transient): %v", err)
		} else {
			log.Printf("discovery poll: %v", err)
		}
		return
	}

	// Replace, never merge: drop a stale pending snapshot if the consumer
	// has not drained it yet.
	select {
	case <-w.updates:
	default:
	}
	select {
	case w.updates <- sessions:
	case <-w.stop:
	}
}
