package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/focusflow/internal/persistence"
	"github.com/pkg/errors"
)

// UserRepository implements persistence.UserRepository using SQLite
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const userColumns = `id, email, password_hash, first_name, last_name,
	work_duration, short_break_duration, long_break_duration, sessions_until_long_break,
	sound_enabled, sound_volume, notifications_enabled, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// CreateUser inserts a new user.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		normalizeEmail(user.Email),
		user.PasswordHash,
		nullString(user.FirstName),
		nullString(user.LastName),
		user.WorkDuration,
		user.ShortBreakDuration,
		user.LongBreakDuration,
		user.SessionsUntilLongBreak,
		user.SoundEnabled,
		user.SoundVolume,
		user.NotificationsEnabled,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return r.mapper.Wrap(err, "failed to insert user")
}

// UpdateUser replaces the mutable columns of an existing user.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	result, err := r.helper.Exec(ctx, `UPDATE users
		SET email = ?, password_hash = ?, first_name = ?, last_name = ?,
			work_duration = ?, short_break_duration = ?, long_break_duration = ?,
			sessions_until_long_break = ?, sound_enabled = ?, sound_volume = ?,
			notifications_enabled = ?, updated_at = ?
		WHERE id = ?`,
		normalizeEmail(user.Email),
		user.PasswordHash,
		nullString(user.FirstName),
		nullString(user.LastName),
		user.WorkDuration,
		user.ShortBreakDuration,
		user.LongBreakDuration,
		user.SessionsUntilLongBreak,
		user.SoundEnabled,
		user.SoundVolume,
		user.NotificationsEnabled,
		formatTime(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		return r.mapper.Wrap(err, "failed to update user")
	}
	return requireAffected(result)
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return persistence.User{}, r.mapper.Wrap(err, "failed to load user")
	}
	return user, nil
}

// GetUserByEmail retrieves a user by case-insensitive email address.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalized)
	user, err := scanUser(row)
	if err != nil {
		return persistence.User{}, r.mapper.Wrap(err, "failed to load user by email")
	}
	return user, nil
}

// DeleteUser removes a user. Sessions, tokens and blocklist items cascade.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.helper.Exec(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return r.mapper.Wrap(err, "failed to delete user")
	}
	return requireAffected(result)
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user                 persistence.User
		firstName, lastName  sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&firstName,
		&lastName,
		&user.WorkDuration,
		&user.ShortBreakDuration,
		&user.LongBreakDuration,
		&user.SessionsUntilLongBreak,
		&user.SoundEnabled,
		&user.SoundVolume,
		&user.NotificationsEnabled,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.User{}, err
	}

	user.FirstName = stringPtr(firstName)
	user.LastName = stringPtr(lastName)

	var err error
	if user.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

func requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
