package application

import (
	"strings"
	"time"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Email  string
}

// SessionType identifies what kind of timer interval a session is.
type SessionType string

const (
	SessionTypeWork      SessionType = "work"
	SessionTypeBreak     SessionType = "break"
	SessionTypeLongBreak SessionType = "longBreak"
)

// ParseSessionType accepts the wire values case-insensitively, plus
// "long_break" as an alias of longBreak.
func ParseSessionType(value string) (SessionType, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "work":
		return SessionTypeWork, true
	case "break", "short_break", "shortbreak":
		return SessionTypeBreak, true
	case "longbreak", "long_break":
		return SessionTypeLongBreak, true
	}
	return "", false
}

// SessionStatus tracks where a session is in its lifecycle.
type SessionStatus string

const (
	SessionStatusActive      SessionStatus = "active"
	SessionStatusCompleted   SessionStatus = "completed"
	SessionStatusInterrupted SessionStatus = "interrupted"
	SessionStatusAborted     SessionStatus = "aborted"
)

// ParseSessionStatus accepts the wire values case-insensitively.
func ParseSessionStatus(value string) (SessionStatus, bool) {
	switch SessionStatus(strings.ToLower(strings.TrimSpace(value))) {
	case SessionStatusActive:
		return SessionStatusActive, true
	case SessionStatusCompleted:
		return SessionStatusCompleted, true
	case SessionStatusInterrupted:
		return SessionStatusInterrupted, true
	case SessionStatusAborted:
		return SessionStatusAborted, true
	}
	return "", false
}

// Session is one timed work or break interval.
type Session struct {
	ID                 string
	UserID             string
	Type               SessionType
	Status             SessionStatus
	PlannedDuration    int
	ActualDuration     *int
	InterruptionReason *string
	InterruptionCount  int
	StartedAt          time.Time
	CompletedAt        *time.Time
	UpdatedAt          time.Time
}

// FocusTime returns the seconds a session contributes to focus totals:
// the actual duration when positive, otherwise the planned duration.
func (s Session) FocusTime() int {
	if s.ActualDuration != nil && *s.ActualDuration > 0 {
		return *s.ActualDuration
	}
	if s.PlannedDuration > 0 {
		return s.PlannedDuration
	}
	return 0
}

// SessionInput captures the caller provided fields for creating a session.
// Completed and Duration support back-filling a timer that ran on the client.
type SessionInput struct {
	Type               string
	Status             string
	Completed          bool
	Duration           *int
	PlannedDuration    *int
	ActualDuration     *int
	InterruptionReason *string
	InterruptionCount  *int
	StartedAt          *time.Time
	CompletedAt        *time.Time
}

// SessionPatch lists the session fields a caller may change. Nil fields are left alone.
type SessionPatch struct {
	Type               *string
	Status             *string
	PlannedDuration    *int
	ActualDuration     *int
	InterruptionReason *string
	InterruptionCount  *int
	StartedAt          *time.Time
	CompletedAt        *time.Time
}

// StartSessionResult is returned by StartWorkSession.
type StartSessionResult struct {
	Session      Session
	BlockedItems []BlocklistItem
}

// BlockingStatus reports whether blocking currently applies to a user.
type BlockingStatus struct {
	IsBlocking    bool
	ActiveSession *Session
	BlockedItems  []BlocklistItem
}

// TodayStats summarises the sessions started today.
type TodayStats struct {
	CompletedSessions int
	WorkSessions      int
	TotalFocusTime    int
	Interruptions     int
	SuccessRate       int
	TotalSessions     int
}

// WeekdayStats is one day of the session-scoped seven day view.
type WeekdayStats struct {
	Day               string
	Date              string
	CompletedSessions int
	TotalFocusTime    int
	Interruptions     int
}

// WeekSummary totals the seven day view.
type WeekSummary struct {
	TotalSessions      int
	CompletedSessions  int
	TotalFocusTime     int
	TotalInterruptions int
}

// WeekStats is the session-scoped seven day view.
type WeekStats struct {
	Daily   []WeekdayStats
	Summary WeekSummary
}

// BlockType identifies how a block rule is matched.
type BlockType string

const (
	BlockTypeWebsite     BlockType = "website"
	BlockTypeApplication BlockType = "application"
)

// ParseBlockType accepts the wire values case-insensitively.
func ParseBlockType(value string) (BlockType, bool) {
	switch BlockType(strings.ToLower(strings.TrimSpace(value))) {
	case BlockTypeWebsite:
		return BlockTypeWebsite, true
	case BlockTypeApplication:
		return BlockTypeApplication, true
	}
	return "", false
}

// BlocklistItem is a named block rule owned by a user.
type BlocklistItem struct {
	ID         string
	UserID     string
	Type       BlockType
	Name       string
	Identifier string
	IsActive   bool
	Category   *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BlocklistInput captures caller provided fields for a new block rule.
type BlocklistInput struct {
	Type       string
	Name       string
	Identifier string
	IsActive   *bool
	Category   *string
}

// BlocklistPatch lists the block rule fields a caller may change.
type BlocklistPatch struct {
	Type       *string
	Name       *string
	Identifier *string
	IsActive   *bool
	Category   *string
}

// URLCheck is the result of checking a URL against the active rules.
type URLCheck struct {
	URL          string
	IsBlocked    bool
	ActiveBlocks int
	BlockedItems []BlocklistItem
}

// Settings holds a user's timer preferences. Durations are minutes.
type Settings struct {
	WorkDuration           int
	ShortBreakDuration     int
	LongBreakDuration      int
	SessionsUntilLongBreak int
	SoundEnabled           bool
	SoundVolume            float64
	NotificationsEnabled   bool
}

// DefaultSettings returns the preferences assigned to new accounts.
func DefaultSettings() Settings {
	return Settings{
		WorkDuration:           25,
		ShortBreakDuration:     5,
		LongBreakDuration:      15,
		SessionsUntilLongBreak: 4,
		SoundEnabled:           true,
		SoundVolume:            0.5,
		NotificationsEnabled:   true,
	}
}

// SettingsPatch is a partial settings update. Nil fields are left alone.
type SettingsPatch struct {
	WorkDuration           *int
	ShortBreakDuration     *int
	LongBreakDuration      *int
	SessionsUntilLongBreak *int
	SoundEnabled           *bool
	SoundVolume            *float64
	NotificationsEnabled   *bool
}

// User is a FocusFlow account.
type User struct {
	ID        string
	Email     string
	FirstName *string
	LastName  *string
	Settings  Settings
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserCredentials pairs a user with the stored password hash.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// SignUpParams captures the data required to register an account.
type SignUpParams struct {
	Email     string
	Password  string
	FirstName *string
	LastName  *string
}

// AuthToken is an issued bearer token.
type AuthToken struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthResult captures the outcome of a successful signup or signin.
type AuthResult struct {
	User  User
	Token AuthToken
}

// DailyStats is one calendar day of analytics.
type DailyStats struct {
	Date              string
	TotalFocusTime    int
	CompletedSessions int
	TotalSessions     int
	SuccessRate       int
}

// WeeklyStats is one Monday-start week of analytics.
type WeeklyStats struct {
	Week                 string
	TotalFocusTime       int
	CompletedSessions    int
	AverageSessionLength int
	SuccessRate          int
}

// ProductivityHour aggregates completed sessions by the hour they started.
type ProductivityHour struct {
	Hour                 int
	TotalFocusTime       int
	CompletedSessions    int
	AverageSessionLength int
}

// SessionTypeDistribution is the share of completed sessions of one type.
type SessionTypeDistribution struct {
	Type       string
	Count      int
	TotalTime  int
	Percentage int
}

// AnalyticsInsights summarises recent productivity.
type AnalyticsInsights struct {
	PeakProductivityHour    int
	AverageDailyFocusTime   int
	CurrentStreak           int
	ImprovementFromLastWeek int
	TotalFocusTimeThisWeek  int
	MostProductiveDay       string
	Recommendations         []string
}

// AnalyticsOverview bundles every analytics view for a dashboard.
type AnalyticsOverview struct {
	Daily             []DailyStats
	Weekly            []WeeklyStats
	ProductivityHours []ProductivityHour
	SessionTypes      []SessionTypeDistribution
	Insights          AnalyticsInsights
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
