package persistence

import "time"

// User represents a FocusFlow account together with its timer settings.
type User struct {
	ID                     string
	Email                  string
	PasswordHash           string
	FirstName              *string
	LastName               *string
	WorkDuration           int
	ShortBreakDuration     int
	LongBreakDuration      int
	SessionsUntilLongBreak int
	SoundEnabled           bool
	SoundVolume            float64
	NotificationsEnabled   bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Session represents one stored timer interval.
type Session struct {
	ID                 string
	UserID             string
	Type               string
	Status             string
	PlannedDuration    int
	ActualDuration     *int
	InterruptionReason *string
	InterruptionCount  int
	StartedAt          time.Time
	CompletedAt        *time.Time
	UpdatedAt          time.Time
}

// BlocklistItem represents a stored block rule.
type BlocklistItem struct {
	ID         string
	UserID     string
	Type       string
	Name       string
	Identifier string
	IsActive   bool
	Category   *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AuthToken represents an issued bearer token.
type AuthToken struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}
