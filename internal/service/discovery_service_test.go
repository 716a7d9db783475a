package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classbattle/internal/model"
)

func TestChunkClassIDs(t *testing.T) {
	ids := make([]string, 23)
	for i := range ids {
		ids[i] = fmt.Sprintf("class-%d", i)
	}

	chunks := ChunkClassIDs(ids, 10)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 10)
	assert.Len(t, chunks[1], 10)
	assert.Len(t, chunks[2], 3)

	assert.Nil(t, ChunkClassIDs(nil, 10))
	assert.Len(t, ChunkClassIDs([]string{"a"}, 10), 1)
}

func discoveryFixture() (*DiscoveryService, *memSessionStore) {
	sessions := newMemSessionStore()
	return NewDiscoveryService(sessions, nil, nil, 10*time.Millisecond), sessions
}

func seedLive(t *testing.T, sessions *memSessionStore, id, classID string, startedAt time.Time) {
	t.Helper()
	require.NoError(t, sessions.Create(context.Background(), &model.Session{
		ID:        id,
		ClassID:   classID,
		Status:    model.SessionLive,
		StartedAt: startedAt,
	}))
}

func TestFindLiveSessions_ChunkedMergeDeduplicates(t *testing.T) {
	svc, sessions := discoveryFixture()
	now := time.Now()

	// 23 classes spread across 3 chunks, 2 of them with live sessions.
	classIDs := make([]string, 23)
	for i := range classIDs {
		classIDs[i] = fmt.Sprintf("class-%d", i)
	}
	seedLive(t, sessions, "sA", "class-2", now.Add(-time.Minute))
	seedLive(t, sessions, "sB", "class-20", now)

	got, err := svc.FindLiveSessions(context.Background(), classIDs)
	require.NoError(t, err)
	require.Len(t, got, 2)

	seen := map[string]int{}
	for _, s := range got {
		seen[s.ID]++
	}
	assert.Equal(t, 1, seen["sA"])
	assert.Equal(t, 1, seen["sB"])
	assert.Equal(t, "sB", got[0].ID, "newest started first")
}

func TestFindLiveSessions_ExcludesEndedAndOtherClasses(t *testing.T) {
	svc, sessions := discoveryFixture()
	now := time.Now()

	seedLive(t, sessions, "sA", "class-1", now)
	require.NoError(t, sessions.Create(context.Background(), &model.Session{
		ID: "sEnded", ClassID: "class-1", Status: model.SessionEnded, StartedAt: now,
	}))
	seedLive(t, sessions, "sOther", "class-9", now)

	got, err := svc.FindLiveSessions(context.Background(), []string{"class-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sA", got[0].ID)
}

func TestFindLiveSessions_EmptyClassSetFallsBackToAll(t *testing.T) {
	svc, sessions := discoveryFixture()
	now := time.Now()
	seedLive(t, sessions, "sA", "class-1", now)
	seedLive(t, sessions, "sB", "class-2", now)

	got, err := svc.FindLiveSessions(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, got, 2, "no membership data means show everything, not nothing")
}

func TestActiveSession_LatestStartedWins(t *testing.T) {
	svc, sessions := discoveryFixture()
	now := time.Now()
	seedLive(t, sessions, "sOld", "class-1", now.Add(-time.Hour))
	seedLive(t, sessions, "sNew", "class-1", now)

	got, err := svc.ActiveSession(context.Background(), []string{"class-1"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sNew", got.ID)
}

func TestActiveSession_NoneLive(t *testing.T) {
	svc, _ := discoveryFixture()

	got, err := svc.ActiveSession(context.Background(), []string{"class-1"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func membershipFixture() (*DiscoveryService, *memSessionStore, *memClassroomStore, *memClassroomCache) {
	sessions := newMemSessionStore()
	classrooms := newMemClassroomStore()
	classCache := newMemClassroomCache()
	svc := NewDiscoveryService(sessions, classrooms, classCache, 10*time.Millisecond)
	return svc, sessions, classrooms, classCache
}

func TestFindForUser_CacheHitSkipsStore(t *testing.T) {
	svc, sessions, classrooms, classCache := membershipFixture()
	now := time.Now()
	seedLive(t, sessions, "sMine", "class-1", now)
	seedLive(t, sessions, "sOther", "class-9", now)

	require.NoError(t, classCache.SetClasses(context.Background(), "user-1", []string{"class-1"}))

	got, err := svc.FindForUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sMine", got[0].ID)
	assert.Zero(t, classrooms.listCalls, "cached membership must not hit the classroom store")
}

func TestFindForUser_StoreFallbackPopulatesCache(t *testing.T) {
	svc, sessions, classrooms, classCache := membershipFixture()
	now := time.Now()
	seedLive(t, sessions, "sMine", "class-1", now)
	seedLive(t, sessions, "sOther", "class-9", now)

	require.NoError(t, classrooms.Create(context.Background(), &model.Classroom{
		ID:        "class-1",
		MemberIDs: []string{"user-1"},
	}))

	got, err := svc.FindForUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sMine", got[0].ID)
	assert.Equal(t, 1, classrooms.listCalls)

	cached, err := classCache.GetClasses(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"class-1"}, cached, "resolved membership gets cached")
}

func TestFindForUser_TeacherMembership(t *testing.T) {
	svc, sessions, classrooms, _ := membershipFixture()
	now := time.Now()
	seedLive(t, sessions, "sMine", "class-1", now)

	require.NoError(t, classrooms.Create(context.Background(), &model.Classroom{
		ID:        "class-1",
		TeacherID: "host-1",
	}))

	got, err := svc.FindForUser(context.Background(), "host-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sMine", got[0].ID)
}

func TestFindForUser_NoMembershipFallsBackToAllLive(t *testing.T) {
	svc, sessions, _, _ := membershipFixture()
	now := time.Now()
	seedLive(t, sessions, "sA", "class-1", now)
	seedLive(t, sessions, "sB", "class-2", now)

	got, err := svc.FindForUser(context.Background(), "stranger")
	require.NoError(t, err)
	assert.Len(t, got, 2, "unresolvable membership degrades to all live sessions")
}

func TestFindForUser_LookupErrorsFallBackToAllLive(t *testing.T) {
	svc, sessions, classrooms, classCache := membershipFixture()
	now := time.Now()
	seedLive(t, sessions, "sA", "class-1", now)

	classCache.getErr = fmt.Errorf("redis down")
	classrooms.listErr = fmt.Errorf("mongo down")

	got, err := svc.FindForUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, got, 1, "membership lookup failure must not hide live sessions")
}

func TestWatcher_ReplacesSnapshotAndPrunesEndedSessions(t *testing.T) {
	svc, sessions := discoveryFixture()
	now := time.Now()
	seedLive(t, sessions, "sA", "class-1", now)

	w := svc.Watch([]string{"class-1"})
	defer w.Stop()

	first := <-w.Updates()
	require.Len(t, first, 1)

	// Session ends between polls; the next snapshot must prune it.
	_, err := sessions.Mutate(context.Background(), "sA", func(s *model.Session) error {
		s.Status = model.SessionEnded
		return nil
	})
	require.NoError(t, err)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snapshot, ok := <-w.Updates():
			require.True(t, ok)
			if len(snapshot) == 0 {
				return // pruned
			}
		case <-deadline:
			t.Fatal("watcher never pruned the ended session")
		}
	}
}

func TestWatcher_StopClosesUpdates(t *testing.T) {
	svc, _ := discoveryFixture()

	w := svc.Watch(nil)
	<-w.Updates()
	w.Stop()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-w.Updates():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("updates channel not closed after Stop")
		}
	}
}
