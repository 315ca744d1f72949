package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

var referenceTime = time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC) // a Monday

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequenceIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%02d", prefix, n)
	}
}

func intPtr(v int) *int { return &v }

func stringPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

// sessionRepositoryStub is an in-memory SessionRepository that mirrors the
// single-active-session index of the SQLite store.
type sessionRepositoryStub struct {
	mu        sync.Mutex
	sessions  map[string]Session
	createErr error
	listErr   error
	updateErr error
	queries   []SessionQuery
}

func newSessionRepositoryStub(sessions ...Session) *sessionRepositoryStub {
	stub := &sessionRepositoryStub{sessions: make(map[string]Session)}
	for _, session := range sessions {
		stub.sessions[session.ID] = session
	}
	return stub
}

func (s *sessionRepositoryStub) CreateSession(_ context.Context, session Session) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return Session{}, s.createErr
	}
	if _, exists := s.sessions[session.ID]; exists {
		return Session{}, ErrAlreadyExists
	}
	if session.Status == SessionStatusActive {
		for _, existing := range s.sessions {
			if existing.UserID == session.UserID && existing.Status == SessionStatusActive {
				return Session{}, ErrActiveSessionExists
			}
		}
	}
	s.sessions[session.ID] = session
	return session, nil
}

func (s *sessionRepositoryStub) GetSession(_ context.Context, id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

func (s *sessionRepositoryStub) UpdateSession(_ context.Context, session Session) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return Session{}, s.updateErr
	}
	if _, ok := s.sessions[session.ID]; !ok {
		return Session{}, ErrNotFound
	}
	s.sessions[session.ID] = session
	return session, nil
}

func (s *sessionRepositoryStub) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *sessionRepositoryStub) ListSessions(_ context.Context, query SessionQuery) ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if s.listErr != nil {
		return nil, s.listErr
	}

	out := make([]Session, 0)
	for _, session := range s.sessions {
		if query.UserID != "" && session.UserID != query.UserID {
			continue
		}
		if len(query.Statuses) > 0 && !containsStatus(query.Statuses, session.Status) {
			continue
		}
		if len(query.Types) > 0 && !containsType(query.Types, session.Type) {
			continue
		}
		if query.StartedFrom != nil && session.StartedAt.Before(*query.StartedFrom) {
			continue
		}
		if query.StartedBefore != nil && !session.StartedAt.Before(*query.StartedBefore) {
			continue
		}
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			if query.Ascending {
				return out[i].ID < out[j].ID
			}
			return out[i].ID > out[j].ID
		}
		if query.Ascending {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (s *sessionRepositoryStub) activeCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, session := range s.sessions {
		if session.UserID == userID && session.Status == SessionStatusActive {
			count++
		}
	}
	return count
}

func containsStatus(statuses []SessionStatus, status SessionStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

func containsType(types []SessionType, sessionType SessionType) bool {
	for _, candidate := range types {
		if candidate == sessionType {
			return true
		}
	}
	return false
}

type blocklistRepositoryStub struct {
	mu      sync.Mutex
	items   map[string]BlocklistItem
	listErr error
}

func newBlocklistRepositoryStub(items ...BlocklistItem) *blocklistRepositoryStub {
	stub := &blocklistRepositoryStub{items: make(map[string]BlocklistItem)}
	for _, item := range items {
		stub.items[item.ID] = item
	}
	return stub
}

func (s *blocklistRepositoryStub) CreateBlocklistItem(_ context.Context, item BlocklistItem) (BlocklistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[item.ID]; exists {
		return BlocklistItem{}, ErrAlreadyExists
	}
	s.items[item.ID] = item
	return item, nil
}

func (s *blocklistRepositoryStub) GetBlocklistItem(_ context.Context, id string) (BlocklistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return BlocklistItem{}, ErrNotFound
	}
	return item, nil
}

func (s *blocklistRepositoryStub) UpdateBlocklistItem(_ context.Context, item BlocklistItem) (BlocklistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; !ok {
		return BlocklistItem{}, ErrNotFound
	}
	s.items[item.ID] = item
	return item, nil
}

func (s *blocklistRepositoryStub) DeleteBlocklistItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *blocklistRepositoryStub) ListBlocklistItems(_ context.Context, userID string, activeOnly bool) ([]BlocklistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]BlocklistItem, 0)
	for _, item := range s.items {
		if item.UserID != userID || (activeOnly && !item.IsActive) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

type userRepositoryStub struct {
	mu     sync.Mutex
	users  map[string]User
	hashes map[string]string
}

func newUserRepositoryStub(users ...User) *userRepositoryStub {
	stub := &userRepositoryStub{users: make(map[string]User), hashes: make(map[string]string)}
	for _, user := range users {
		stub.users[user.ID] = user
	}
	return stub
}

func (s *userRepositoryStub) CreateUser(_ context.Context, user User, passwordHash string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return User{}, ErrAlreadyExists
		}
	}
	s.users[user.ID] = user
	s.hashes[user.ID] = passwordHash
	return user, nil
}

func (s *userRepositoryStub) GetUser(_ context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (s *userRepositoryStub) UpdateUser(_ context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return User{}, ErrNotFound
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *userRepositoryStub) GetUserCredentialsByEmail(_ context.Context, email string) (UserCredentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, user := range s.users {
		if user.Email == email {
			return UserCredentials{User: user, PasswordHash: s.hashes[id]}, nil
		}
	}
	return UserCredentials{}, ErrNotFound
}

type tokenRepositoryStub struct {
	mu          sync.Mutex
	tokens      map[string]AuthToken
	createErr   error
	deleteErr   error
	deleteCalls []time.Time
}

func newTokenRepositoryStub() *tokenRepositoryStub {
	return &tokenRepositoryStub{tokens: make(map[string]AuthToken)}
}

func (s *tokenRepositoryStub) CreateToken(_ context.Context, token AuthToken) (AuthToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return AuthToken{}, s.createErr
	}
	s.tokens[token.Token] = token
	return token, nil
}

func (s *tokenRepositoryStub) GetToken(_ context.Context, token string) (AuthToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tokens[token]
	if !ok {
		return AuthToken{}, ErrNotFound
	}
	return stored, nil
}

func (s *tokenRepositoryStub) RevokeToken(_ context.Context, token string, revokedAt time.Time) (AuthToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tokens[token]
	if !ok {
		return AuthToken{}, ErrNotFound
	}
	if stored.RevokedAt == nil {
		stored.RevokedAt = &revokedAt
	}
	s.tokens[token] = stored
	return stored, nil
}

func (s *tokenRepositoryStub) DeleteExpiredTokens(_ context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls = append(s.deleteCalls, reference)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for key, token := range s.tokens {
		if !token.ExpiresAt.After(reference) {
			delete(s.tokens, key)
		}
	}
	return nil
}

type settingsProviderStub struct {
	settings Settings
	err      error
}

func (s settingsProviderStub) GetSettings(context.Context, string) (Settings, error) {
	return s.settings, s.err
}

type metricsRecorder struct {
	mu      sync.Mutex
	started []string
	ended   []string
	checks  []bool
}

func (m *metricsRecorder) SessionStarted(_ context.Context, sessionType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, sessionType)
}

func (m *metricsRecorder) SessionEnded(_ context.Context, sessionType, status string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ended = append(m.ended, sessionType+":"+status)
}

func (m *metricsRecorder) URLChecked(_ context.Context, blocked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks = append(m.checks, blocked)
}

func completedSession(id, userID string, sessionType SessionType, startedAt time.Time, seconds int) Session {
	completedAt := startedAt.Add(time.Duration(seconds) * time.Second)
	return Session{
		ID:              id,
		UserID:          userID,
		Type:            sessionType,
		Status:          SessionStatusCompleted,
		PlannedDuration: seconds,
		ActualDuration:  intPtr(seconds),
		StartedAt:       startedAt,
		CompletedAt:     &completedAt,
		UpdatedAt:       completedAt,
	}
}

func sessionWithStatus(id, userID string, sessionType SessionType, status SessionStatus, startedAt time.Time) Session {
	return Session{
		ID:              id,
		UserID:          userID,
		Type:            sessionType,
		Status:          status,
		PlannedDuration: 1500,
		StartedAt:       startedAt,
		UpdatedAt:       startedAt,
	}
}

func websiteItem(id, userID, identifier string, active bool, createdAt time.Time) BlocklistItem {
	return BlocklistItem{
		ID:         id,
		UserID:     userID,
		Type:       BlockTypeWebsite,
		Name:       identifier,
		Identifier: identifier,
		IsActive:   active,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}
