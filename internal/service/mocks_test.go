package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"classbattle/internal/model"
	"classbattle/internal/store"
)

// memSessionStore is an in-memory SessionStore whose Mutate serializes
// read-modify-write cycles under one mutex, mirroring the transaction
// guarantee the real adapter gets from the document store.
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	findErr  error
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]*model.Session)}
}

func cloneSession(s *model.Session) *model.Session {
	c := *s
	c.Roster = append([]model.Participant(nil), s.Roster...)
	c.EventLog = append([]string(nil), s.EventLog...)
	if s.EndedAt != nil {
		t := *s.EndedAt
		c.EndedAt = &t
	}
	return &c
}

func (m *memSessionStore) Create(ctx context.Context, session *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = cloneSession(session)
	return nil
}

func (m *memSessionStore) GetByID(ctx context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return cloneSession(s), nil
}

func (m *memSessionStore) Mutate(ctx context.Context, id string, fn func(*model.Session) error) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	working := cloneSession(s)
	working.Status = model.NormalizeStatus(string(working.Status))
	if err := fn(working); err != nil {
		return nil, err
	}
	m.sessions[id] = working
	return cloneSession(working), nil
}

func (m *memSessionStore) FindLiveByClasses(ctx context.Context, classIDs []string) ([]*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	classSet := make(map[string]bool, len(classIDs))
	for _, id := range classIDs {
		classSet[id] = true
	}
	var out []*model.Session
	for _, s := range m.sessions {
		if !s.IsLive() {
			continue
		}
		if len(classIDs) > 0 && !classSet[s.ClassID] {
			continue
		}
		out = append(out, cloneSession(s))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

// memPresenceCache is an in-memory cache.PresenceCache.
type memPresenceCache struct {
	mu      sync.Mutex
	records map[string]map[string]*model.PresenceRecord
	err     error
}

func newMemPresenceCache() *memPresenceCache {
	return &memPresenceCache{records: make(map[string]map[string]*model.PresenceRecord)}
}

func (m *memPresenceCache) Upsert(ctx context.Context, sessionID string, record *model.PresenceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.records[sessionID] == nil {
		m.records[sessionID] = make(map[string]*model.PresenceRecord)
	}
	copied := *record
	m.records[sessionID][record.ParticipantID] = &copied
	return nil
}

func (m *memPresenceCache) Get(ctx context.Context, sessionID, participantID string) (*model.PresenceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	rec, ok := m.records[sessionID][participantID]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (m *memPresenceCache) List(ctx context.Context, sessionID string) (map[string]*model.PresenceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]*model.PresenceRecord, len(m.records[sessionID]))
	for id, rec := range m.records[sessionID] {
		copied := *rec
		out[id] = &copied
	}
	return out, nil
}

// memSummaryStore is an in-memory store.SummaryStore enforcing the
// insert-once rule.
type memSummaryStore struct {
	mu        sync.Mutex
	summaries map[string]*model.SessionSummary
	insertErr error
}

func newMemSummaryStore() *memSummaryStore {
	return &memSummaryStore{summaries: make(map[string]*model.SessionSummary)}
}

func (m *memSummaryStore) Insert(ctx context.Context, summary *model.SessionSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, ok := m.summaries[summary.SessionID]; ok {
		return store.ErrAlreadyFinalized
	}
	copied := *summary
	m.summaries[summary.SessionID] = &copied
	return nil
}

func (m *memSummaryStore) GetBySessionID(ctx context.Context, sessionID string) (*model.SessionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.summaries[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

// mockCombat is a CombatStats collaborator with scriptable failures.
type mockCombat struct {
	mu        sync.Mutex
	initCalls []string
	failFor   map[string]bool
	stats     map[string]*model.ParticipantSummary
}

func newMockCombat() *mockCombat {
	return &mockCombat{
		failFor: make(map[string]bool),
		stats:   make(map[string]*model.ParticipantSummary),
	}
}

func (m *mockCombat) InitializeParticipantStats(ctx context.Context, sessionID, participantID, displayName string, startingCurrency int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initCalls = append(m.initCalls, participantID)
	m.stats[participantID] = &model.ParticipantSummary{
		ParticipantID: participantID,
		Name:          displayName,
		Currency:      startingCurrency,
	}
	return nil
}

func (m *mockCombat) ParticipantStats(ctx context.Context, sessionID, participantID string) (*model.ParticipantSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[participantID] {
		return nil, errors.New("stats read failed")
	}
	if s, ok := m.stats[participantID]; ok {
		copied := *s
		return &copied, nil
	}
	return &model.ParticipantSummary{ParticipantID: participantID}, nil
}

// memClassroomStore is an in-memory store.ClassroomStore.
type memClassroomStore struct {
	mu         sync.Mutex
	classrooms map[string]*model.Classroom
	listErr    error
	listCalls  int
}

func newMemClassroomStore() *memClassroomStore {
	return &memClassroomStore{classrooms: make(map[string]*model.Classroom)}
}

func (m *memClassroomStore) Create(ctx context.Context, classroom *model.Classroom) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *classroom
	m.classrooms[classroom.ID] = &copied
	return nil
}

func (m *memClassroomStore) GetByID(ctx context.Context, id string) (*model.Classroom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.classrooms[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (m *memClassroomStore) ListForMember(ctx context.Context, userID string) ([]*model.Classroom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.Classroom
	for _, c := range m.classrooms {
		if c.TeacherID == userID {
			copied := *c
			out = append(out, &copied)
			continue
		}
		for _, member := range c.MemberIDs {
			if member == userID {
				copied := *c
				out = append(out, &copied)
				break
			}
		}
	}
	return out, nil
}

// memClassroomCache is an in-memory cache.ClassroomCache.
type memClassroomCache struct {
	mu      sync.Mutex
	classes map[string][]string
	getErr  error
}

func newMemClassroomCache() *memClassroomCache {
	return &memClassroomCache{classes: make(map[string][]string)}
}

func (m *memClassroomCache) SetClasses(ctx context.Context, userID string, classIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classes[userID] = append([]string(nil), classIDs...)
	return nil
}

func (m *memClassroomCache) GetClasses(ctx context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return append([]string(nil), m.classes[userID]...), nil
}

// mockBroadcaster records every broadcast for assertion.
type mockBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

type broadcastCall struct {
	target        string // "host", "participant", "all", "disconnect"
	sessionID     string
	participantID string
	msgType       string
}

func (m *mockBroadcaster) BroadcastToHost(sessionID string, msgType string, payload interface{}) {
	m.record(broadcastCall{target: "host", sessionID: sessionID, msgType: msgType})
}

func (m *mockBroadcaster) BroadcastToParticipant(sessionID, participantID string, msgType string, payload interface{}) {
	m.record(broadcastCall{target: "participant", sessionID: sessionID, participantID: participantID, msgType: msgType})
}

func (m *mockBroadcaster) BroadcastToAllParticipants(sessionID string, msgType string, payload interface{}) {
	m.record(broadcastCall{target: "all", sessionID: sessionID, msgType: msgType})
}

func (m *mockBroadcaster) DisconnectSession(sessionID string) {
	m.record(broadcastCall{target: "disconnect", sessionID: sessionID})
}

func (m *mockBroadcaster) record(c broadcastCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}

func (m *mockBroadcaster) find(target, msgType string) *broadcastCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.calls {
		if m.calls[i].target == target && m.calls[i].msgType == msgType {
			return &m.calls[i]
		}
	}
	return nil
}

// mockRoles is a scriptable RoleLookup.
type mockRoles struct {
	admins map[string]bool
	err    error
}

func (m *mockRoles) IsAdministrator(ctx context.Context, userID, email string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.admins[userID] || m.admins[email], nil
}
