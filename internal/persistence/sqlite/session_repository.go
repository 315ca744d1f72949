package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/focusflow/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository using SQLite.
type SessionRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSessionRepository creates a new SQLite session repository
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const sessionColumns = `id, user_id, type, status, planned_duration, actual_duration,
	interruption_reason, interruption_count, started_at, completed_at, updated_at`

// CreateSession inserts a new session row.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) error {
	if session.ID == "" || session.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx, `INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.Type,
		session.Status,
		session.PlannedDuration,
		nullInt(session.ActualDuration),
		nullString(session.InterruptionReason),
		session.InterruptionCount,
		formatTime(session.StartedAt),
		nullTime(session.CompletedAt),
		formatTime(session.UpdatedAt),
	)
	return r.mapper.Wrap(err, "failed to insert session")
}

// UpdateSession overwrites every mutable column of the session. The owner
// never changes.
func (r *SessionRepository) UpdateSession(ctx context.Context, session persistence.Session) error {
	if session.ID == "" {
		return persistence.ErrConstraintViolation
	}

	result, err := r.helper.Exec(ctx, `UPDATE sessions
		SET type = ?, status = ?, planned_duration = ?, actual_duration = ?,
			interruption_reason = ?, interruption_count = ?, started_at = ?,
			completed_at = ?, updated_at = ?
		WHERE id = ?`,
		session.Type,
		session.Status,
		session.PlannedDuration,
		nullInt(session.ActualDuration),
		nullString(session.InterruptionReason),
		session.InterruptionCount,
		formatTime(session.StartedAt),
		nullTime(session.CompletedAt),
		formatTime(session.UpdatedAt),
		session.ID,
	)
	if err != nil {
		return r.mapper.Wrap(err, "failed to update session")
	}
	return requireAffected(result)
}

// GetSession retrieves a session by ID.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	if id == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if err != nil {
		return persistence.Session{}, r.mapper.Wrap(err, "failed to load session")
	}
	return session, nil
}

// ListSessions returns the sessions matching filter ordered by started_at.
func (r *SessionRepository) ListSessions(ctx context.Context, filter persistence.SessionFilter) ([]persistence.Session, error) {
	query, args := buildSessionQuery(filter)

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.Wrap(err, "failed to query sessions")
	}
	defer rows.Close()

	sessions := make([]persistence.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, r.mapper.Wrap(err, "failed to scan session")
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.Wrap(err, "failed to iterate sessions")
	}
	return sessions, nil
}

// DeleteSession removes a session by ID.
func (r *SessionRepository) DeleteSession(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.helper.Exec(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return r.mapper.Wrap(err, "failed to delete session")
	}
	return requireAffected(result)
}

func buildSessionQuery(filter persistence.SessionFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if len(filter.Statuses) > 0 {
		clauses = append(clauses, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, status := range filter.Statuses {
			args = append(args, status)
		}
	}
	if len(filter.Types) > 0 {
		clauses = append(clauses, "type IN ("+placeholders(len(filter.Types))+")")
		for _, sessionType := range filter.Types {
			args = append(args, sessionType)
		}
	}
	if filter.StartedFrom != nil {
		clauses = append(clauses, "started_at >= ?")
		args = append(args, formatTime(*filter.StartedFrom))
	}
	if filter.StartedBefore != nil {
		clauses = append(clauses, "started_at < ?")
		args = append(args, formatTime(*filter.StartedBefore))
	}

	var builder strings.Builder
	builder.WriteString("SELECT ")
	builder.WriteString(sessionColumns)
	builder.WriteString(" FROM sessions")
	if len(clauses) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(clauses, " AND "))
	}
	if filter.Ascending {
		builder.WriteString(" ORDER BY started_at ASC, id ASC")
	} else {
		builder.WriteString(" ORDER BY started_at DESC, id DESC")
	}
	if filter.Limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}
	return builder.String(), args
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func scanSession(row rowScanner) (persistence.Session, error) {
	var (
		session              persistence.Session
		actualDuration       sql.NullInt64
		interruptionReason   sql.NullString
		completedAt          sql.NullString
		startedAt, updatedAt string
	)
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Type,
		&session.Status,
		&session.PlannedDuration,
		&actualDuration,
		&interruptionReason,
		&session.InterruptionCount,
		&startedAt,
		&completedAt,
		&updatedAt,
	); err != nil {
		return persistence.Session{}, err
	}

	session.ActualDuration = intPtr(actualDuration)
	session.InterruptionReason = stringPtr(interruptionReason)

	var err error
	if session.StartedAt, err = parseTime("started_at", startedAt); err != nil {
		return persistence.Session{}, err
	}
	if session.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Session{}, err
	}
	if session.CompletedAt, err = parseNullTime("completed_at", completedAt); err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}
