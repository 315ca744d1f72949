package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/focusflow/internal/application"
	"github.com/example/focusflow/internal/persistence"
)

var (
	userCounter      uint64
	sessionCounter   uint64
	blocklistCounter uint64
)

// referenceTime is a Monday morning so week-based views start on the same day.
var referenceTime = time.Date(2024, time.March, 4, 9, 30, 0, 0, time.UTC)

// ReferenceTime returns the baseline timestamp used by fixtures and NewClock.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture is a deterministic account.
type UserFixture struct {
	ID           string
	Email        string
	Password     string
	PasswordHash string
	FirstName    *string
	LastName     *string
	Settings     application.Settings
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures a UserFixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a user with default settings and unique identifiers.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		Password:     "correct-horse-battery",
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		Settings:     application.DefaultSettings(),
		CreatedAt:    referenceTime,
		UpdatedAt:    referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithUserID(id string) UserOption {
	return func(f *UserFixture) { f.ID = id }
}

func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) { f.Email = email }
}

// WithUserName sets both name parts.
func WithUserName(first, last string) UserOption {
	return func(f *UserFixture) {
		f.FirstName = &first
		f.LastName = &last
	}
}

func WithUserPassword(password string) UserOption {
	return func(f *UserFixture) { f.Password = password }
}

func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) { f.PasswordHash = hash }
}

func WithUserSettings(settings application.Settings) UserOption {
	return func(f *UserFixture) { f.Settings = settings }
}

func (f UserFixture) Application() application.User {
	return application.User{
		ID:        f.ID,
		Email:     f.Email,
		FirstName: copyStringPtr(f.FirstName),
		LastName:  copyStringPtr(f.LastName),
		Settings:  f.Settings,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{User: f.Application(), PasswordHash: f.PasswordHash}
}

func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Email: f.Email}
}

// SignUp returns registration parameters carrying the plain password.
func (f UserFixture) SignUp() application.SignUpParams {
	return application.SignUpParams{
		Email:     f.Email,
		Password:  f.Password,
		FirstName: copyStringPtr(f.FirstName),
		LastName:  copyStringPtr(f.LastName),
	}
}

func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:                     f.ID,
		Email:                  f.Email,
		PasswordHash:           f.PasswordHash,
		FirstName:              copyStringPtr(f.FirstName),
		LastName:               copyStringPtr(f.LastName),
		WorkDuration:           f.Settings.WorkDuration,
		ShortBreakDuration:     f.Settings.ShortBreakDuration,
		LongBreakDuration:      f.Settings.LongBreakDuration,
		SessionsUntilLongBreak: f.Settings.SessionsUntilLongBreak,
		SoundEnabled:           f.Settings.SoundEnabled,
		SoundVolume:            f.Settings.SoundVolume,
		NotificationsEnabled:   f.Settings.NotificationsEnabled,
		CreatedAt:              f.CreatedAt,
		UpdatedAt:              f.UpdatedAt,
	}
}

// ---------------------------- Session fixtures ---------------------------

// SessionFixture is a deterministic timer session. Durations are seconds.
type SessionFixture struct {
	ID                 string
	UserID             string
	Type               application.SessionType
	Status             application.SessionStatus
	PlannedDuration    int
	ActualDuration     *int
	InterruptionReason *string
	InterruptionCount  int
	StartedAt          time.Time
	CompletedAt        *time.Time
}

// SessionOption configures a SessionFixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a completed 25 minute work session that started
// at the reference time.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	planned := 25 * 60
	fixture := SessionFixture{
		ID:              fmt.Sprintf("session-%03d", idx),
		UserID:          "user-001",
		Type:            application.SessionTypeWork,
		Status:          application.SessionStatusCompleted,
		PlannedDuration: planned,
		StartedAt:       referenceTime,
	}
	fixture.ActualDuration = &planned
	completed := referenceTime.Add(time.Duration(planned) * time.Second)
	fixture.CompletedAt = &completed
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithSessionID(id string) SessionOption {
	return func(f *SessionFixture) { f.ID = id }
}

func WithSessionUserID(id string) SessionOption {
	return func(f *SessionFixture) { f.UserID = id }
}

func WithSessionType(sessionType application.SessionType) SessionOption {
	return func(f *SessionFixture) { f.Type = sessionType }
}

// WithSessionStartedAt moves the start and keeps the completion offset.
func WithSessionStartedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		if f.CompletedAt != nil {
			completed := t.Add(f.CompletedAt.Sub(f.StartedAt))
			f.CompletedAt = &completed
		}
		f.StartedAt = t
	}
}

// WithSessionActual ends the session with the given elapsed seconds.
func WithSessionActual(seconds int) SessionOption {
	return func(f *SessionFixture) {
		f.ActualDuration = &seconds
		completed := f.StartedAt.Add(time.Duration(seconds) * time.Second)
		f.CompletedAt = &completed
	}
}

// WithSessionInterrupted marks the session interrupted with reason.
func WithSessionInterrupted(reason string) SessionOption {
	return func(f *SessionFixture) {
		f.Status = application.SessionStatusInterrupted
		f.InterruptionReason = &reason
		f.InterruptionCount++
	}
}

// WithSessionActive leaves the session running.
func WithSessionActive() SessionOption {
	return func(f *SessionFixture) {
		f.Status = application.SessionStatusActive
		f.ActualDuration = nil
		f.CompletedAt = nil
	}
}

func (f SessionFixture) Application() application.Session {
	updated := f.StartedAt
	if f.CompletedAt != nil {
		updated = *f.CompletedAt
	}
	return application.Session{
		ID:                 f.ID,
		UserID:             f.UserID,
		Type:               f.Type,
		Status:             f.Status,
		PlannedDuration:    f.PlannedDuration,
		ActualDuration:     copyIntPtr(f.ActualDuration),
		InterruptionReason: copyStringPtr(f.InterruptionReason),
		InterruptionCount:  f.InterruptionCount,
		StartedAt:          f.StartedAt,
		CompletedAt:        copyTimePtr(f.CompletedAt),
		UpdatedAt:          updated,
	}
}

func (f SessionFixture) Persistence() persistence.Session {
	session := f.Application()
	return persistence.Session{
		ID:                 session.ID,
		UserID:             session.UserID,
		Type:               string(session.Type),
		Status:             string(session.Status),
		PlannedDuration:    session.PlannedDuration,
		ActualDuration:     session.ActualDuration,
		InterruptionReason: session.InterruptionReason,
		InterruptionCount:  session.InterruptionCount,
		StartedAt:          session.StartedAt,
		CompletedAt:        session.CompletedAt,
		UpdatedAt:          session.UpdatedAt,
	}
}

// --------------------------- Blocklist fixtures --------------------------

// BlocklistFixture is a deterministic block rule.
type BlocklistFixture struct {
	ID         string
	UserID     string
	Type       application.BlockType
	Name       string
	Identifier string
	IsActive   bool
	Category   *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BlocklistOption configures a BlocklistFixture.
type BlocklistOption func(*BlocklistFixture)

// NewBlocklistFixture returns an enabled website rule.
func NewBlocklistFixture(opts ...BlocklistOption) BlocklistFixture {
	idx := atomic.AddUint64(&blocklistCounter, 1)
	fixture := BlocklistFixture{
		ID:         fmt.Sprintf("block-%03d", idx),
		UserID:     "user-001",
		Type:       application.BlockTypeWebsite,
		Name:       fmt.Sprintf("Site %03d", idx),
		Identifier: fmt.Sprintf("site%03d.example.com", idx),
		IsActive:   true,
		CreatedAt:  referenceTime.Add(time.Duration(idx) * time.Second),
	}
	fixture.UpdatedAt = fixture.CreatedAt
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithBlocklistID(id string) BlocklistOption {
	return func(f *BlocklistFixture) { f.ID = id }
}

func WithBlocklistUserID(id string) BlocklistOption {
	return func(f *BlocklistFixture) { f.UserID = id }
}

func WithBlocklistIdentifier(identifier string) BlocklistOption {
	return func(f *BlocklistFixture) { f.Identifier = identifier }
}

// WithBlocklistApplication turns the rule into an application rule.
func WithBlocklistApplication(name string) BlocklistOption {
	return func(f *BlocklistFixture) {
		f.Type = application.BlockTypeApplication
		f.Name = name
		f.Identifier = name
	}
}

func WithBlocklistDisabled() BlocklistOption {
	return func(f *BlocklistFixture) { f.IsActive = false }
}

func WithBlocklistCategory(category string) BlocklistOption {
	return func(f *BlocklistFixture) { f.Category = &category }
}

func (f BlocklistFixture) Application() application.BlocklistItem {
	return application.BlocklistItem{
		ID:         f.ID,
		UserID:     f.UserID,
		Type:       f.Type,
		Name:       f.Name,
		Identifier: f.Identifier,
		IsActive:   f.IsActive,
		Category:   copyStringPtr(f.Category),
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

// Input returns the creation payload for the rule.
func (f BlocklistFixture) Input() application.BlocklistInput {
	active := f.IsActive
	return application.BlocklistInput{
		Type:       string(f.Type),
		Name:       f.Name,
		Identifier: f.Identifier,
		IsActive:   &active,
		Category:   copyStringPtr(f.Category),
	}
}

func (f BlocklistFixture) Persistence() persistence.BlocklistItem {
	return persistence.BlocklistItem{
		ID:         f.ID,
		UserID:     f.UserID,
		Type:       string(f.Type),
		Name:       f.Name,
		Identifier: f.Identifier,
		IsActive:   f.IsActive,
		Category:   copyStringPtr(f.Category),
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	v := *src
	return &v
}

func copyIntPtr(src *int) *int {
	if src == nil {
		return nil
	}
	v := *src
	return &v
}

func copyTimePtr(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	v := *src
	return &v
}
