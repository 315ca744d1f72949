package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	DeleteUser(ctx context.Context, id string) error
}

// SessionFilter narrows session queries. Zero values disable a predicate.
type SessionFilter struct {
	UserID   string
	Statuses []string
	Types    []string
	// StartedFrom is inclusive.
	StartedFrom *time.Time
	// StartedBefore is exclusive.
	StartedBefore *time.Time
	// Ascending orders by started_at ascending; the default is newest first.
	Ascending bool
	Limit     int
}

// SessionRepository stores timer sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	UpdateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// BlocklistFilter narrows blocklist queries.
type BlocklistFilter struct {
	UserID     string
	ActiveOnly bool
}

// BlocklistRepository stores block rules. Lists are ordered newest first.
type BlocklistRepository interface {
	CreateBlocklistItem(ctx context.Context, item BlocklistItem) error
	UpdateBlocklistItem(ctx context.Context, item BlocklistItem) error
	GetBlocklistItem(ctx context.Context, id string) (BlocklistItem, error)
	ListBlocklistItems(ctx context.Context, filter BlocklistFilter) ([]BlocklistItem, error)
	DeleteBlocklistItem(ctx context.Context, id string) error
}

// AuthTokenRepository stores issued bearer tokens.
type AuthTokenRepository interface {
	CreateToken(ctx context.Context, token AuthToken) (AuthToken, error)
	GetToken(ctx context.Context, token string) (AuthToken, error)
	RevokeToken(ctx context.Context, token string, revokedAt time.Time) (AuthToken, error)
	DeleteExpiredTokens(ctx context.Context, reference time.Time) error
}
