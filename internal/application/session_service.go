package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// SessionQuery narrows session listings. Zero values disable a predicate.
type SessionQuery struct {
	UserID   string
	Statuses []SessionStatus
	Types    []SessionType
	// StartedFrom is inclusive.
	StartedFrom *time.Time
	// StartedBefore is exclusive.
	StartedBefore *time.Time
	// Ascending orders by start time ascending; the default is newest first.
	Ascending bool
	Limit     int
}

// SessionRepository captures the persistence operations needed by the session service.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	DeleteSession(ctx context.Context, id string) error
	ListSessions(ctx context.Context, query SessionQuery) ([]Session, error)
}

// SettingsProvider returns a user's timer preferences.
type SettingsProvider interface {
	GetSettings(ctx context.Context, userID string) (Settings, error)
}

// BlockingCoordinator is the slice of the blocklist service used by work sessions.
type BlockingCoordinator interface {
	ActivateBlocking(ctx context.Context, userID string) ([]BlocklistItem, error)
	DeactivateBlocking(ctx context.Context, userID string) error
	GetActiveBlockedItems(ctx context.Context, userID string) ([]BlocklistItem, error)
}

// TimerDefaults are the planned durations used when a user has no settings.
type TimerDefaults struct {
	Work       time.Duration
	ShortBreak time.Duration
	LongBreak  time.Duration
}

// DefaultTimerDefaults returns the classic 25/5/15 minute Pomodoro timings.
func DefaultTimerDefaults() TimerDefaults {
	return TimerDefaults{
		Work:       25 * time.Minute,
		ShortBreak: 5 * time.Minute,
		LongBreak:  15 * time.Minute,
	}
}

func (d TimerDefaults) plannedSeconds(sessionType SessionType) int {
	switch sessionType {
	case SessionTypeWork:
		return int(d.Work / time.Second)
	case SessionTypeBreak:
		return int(d.ShortBreak / time.Second)
	case SessionTypeLongBreak:
		return int(d.LongBreak / time.Second)
	}
	return 0
}

// EndSessionParams captures the data required to finish a running session.
type EndSessionParams struct {
	UserID             string
	SessionID          string
	Completed          bool
	InterruptionReason *string
}

// SessionServiceOption customises a SessionService.
type SessionServiceOption func(*SessionService)

// WithSettingsProvider lets user settings override the timer defaults.
func WithSettingsProvider(provider SettingsProvider) SessionServiceOption {
	return func(s *SessionService) {
		s.settings = provider
	}
}

// WithTimerDefaults replaces the fallback planned durations.
func WithTimerDefaults(defaults TimerDefaults) SessionServiceOption {
	return func(s *SessionService) {
		if defaults.Work > 0 && defaults.ShortBreak > 0 && defaults.LongBreak > 0 {
			s.defaults = defaults
		}
	}
}

// WithSessionMetrics records session starts and ends on m.
func WithSessionMetrics(m Metrics) SessionServiceOption {
	return func(s *SessionService) {
		s.metrics = metricsOrNoop(m)
	}
}

// WithSessionLocation sets the timezone used for day boundaries.
func WithSessionLocation(loc *time.Location) SessionServiceOption {
	return func(s *SessionService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithSessionChangeListener registers fn to run after any session write.
func WithSessionChangeListener(fn func(userID string)) SessionServiceOption {
	return func(s *SessionService) {
		if fn != nil {
			s.listeners = append(s.listeners, fn)
		}
	}
}

// SessionService manages the timer lifecycle and coordinates blocking for work sessions.
type SessionService struct {
	sessions    SessionRepository
	blocking    BlockingCoordinator
	settings    SettingsProvider
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
	metrics     Metrics
	location    *time.Location
	defaults    TimerDefaults
	locks       *userLocks
	listeners   []func(userID string)
}

// NewSessionService wires dependencies for the session service.
func NewSessionService(sessions SessionRepository, blocking BlockingCoordinator, idGenerator func() string, now func() time.Time) *SessionService {
	return NewSessionServiceWithLogger(sessions, blocking, idGenerator, now, nil)
}

// NewSessionServiceWithLogger wires dependencies and a logger for the session service.
func NewSessionServiceWithLogger(sessions SessionRepository, blocking BlockingCoordinator, idGenerator func() string, now func() time.Time, logger *slog.Logger, opts ...SessionServiceOption) *SessionService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	s := &SessionService{
		sessions:    sessions,
		blocking:    blocking,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
		metrics:     noopMetrics{},
		location:    time.UTC,
		defaults:    DefaultTimerDefaults(),
		locks:       newUserLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SessionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SessionService", operation, attrs...)
}

func (s *SessionService) ready() error {
	if s == nil {
		return fmt.Errorf("SessionService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}
	return nil
}

func (s *SessionService) changed(userID string) {
	for _, fn := range s.listeners {
		fn(userID)
	}
}

// StartWorkSession starts a timer of the given type. Work sessions also
// activate blocking and return the rules to enforce.
func (s *SessionService) StartWorkSession(ctx context.Context, userID string, sessionType SessionType) (result StartSessionResult, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "StartWorkSession", "user_id", userID, "session_type", string(sessionType))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to start session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session started",
			"session_id", result.Session.ID,
			"planned_duration", result.Session.PlannedDuration,
			"blocked_items", len(result.BlockedItems),
		)
	}()

	parsed, ok := ParseSessionType(string(sessionType))
	if !ok {
		vErr := &ValidationError{}
		vErr.add("sessionType", "session type must be work, break or longBreak")
		err = vErr
		return
	}
	sessionType = parsed

	unlock := s.locks.lock(userID)
	defer unlock()

	if _, err = s.findActive(ctx, userID); err == nil {
		err = ErrActiveSessionExists
		return
	} else if !errors.Is(err, ErrNoActiveSession) {
		return
	}
	err = nil

	planned, err := s.plannedDuration(ctx, userID, sessionType)
	if err != nil {
		return
	}

	now := s.now()
	session := Session{
		ID:              s.idGenerator(),
		UserID:          userID,
		Type:            sessionType,
		Status:          SessionStatusActive,
		PlannedDuration: planned,
		StartedAt:       now,
		UpdatedAt:       now,
	}
	session, err = s.sessions.CreateSession(ctx, session)
	if err != nil {
		return
	}
	s.metrics.SessionStarted(ctx, string(session.Type))
	s.changed(userID)

	result = StartSessionResult{Session: session, BlockedItems: []BlocklistItem{}}
	if session.Type == SessionTypeWork && s.blocking != nil {
		var items []BlocklistItem
		items, err = s.blocking.ActivateBlocking(ctx, userID)
		if err != nil {
			err = fmt.Errorf("activate blocking: %w", err)
			return
		}
		result.BlockedItems = append(result.BlockedItems, items...)
	}
	return
}

// EndSession finishes an active session as completed or interrupted.
func (s *SessionService) EndSession(ctx context.Context, params EndSessionParams) (session Session, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "EndSession", "user_id", params.UserID, "session_id", params.SessionID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to end session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session ended",
			"status", string(session.Status),
			"actual_duration", *session.ActualDuration,
		)
	}()

	unlock := s.locks.lock(params.UserID)
	defer unlock()

	session, err = s.getOwned(ctx, params.UserID, params.SessionID)
	if err != nil {
		return
	}
	if session.Status != SessionStatusActive {
		err = ErrSessionNotActive
		return
	}

	now := s.now()
	actual := int(now.Sub(session.StartedAt) / time.Second)
	if actual < 0 {
		actual = 0
	}
	session.ActualDuration = &actual
	session.CompletedAt = &now
	session.UpdatedAt = now
	if params.Completed {
		session.Status = SessionStatusCompleted
	} else {
		session.Status = SessionStatusInterrupted
		session.InterruptionCount++
		if reason := normalizeOptional(params.InterruptionReason); reason != nil {
			session.InterruptionReason = reason
		}
	}

	session, err = s.sessions.UpdateSession(ctx, session)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrNotFound
		}
		return
	}
	s.metrics.SessionEnded(ctx, string(session.Type), string(session.Status), actual)
	s.changed(params.UserID)

	if session.Type == SessionTypeWork && s.blocking != nil {
		if derr := s.blocking.DeactivateBlocking(ctx, params.UserID); derr != nil {
			logger.WarnContext(ctx, "failed to deactivate blocking", "error", derr)
		}
	}
	return
}

// GetCurrentActiveSession returns the user's running session or ErrNoActiveSession.
func (s *SessionService) GetCurrentActiveSession(ctx context.Context, userID string) (Session, error) {
	if err := s.ready(); err != nil {
		return Session{}, err
	}
	return s.findActive(ctx, userID)
}

func (s *SessionService) findActive(ctx context.Context, userID string) (Session, error) {
	sessions, err := s.sessions.ListSessions(ctx, SessionQuery{
		UserID:   userID,
		Statuses: []SessionStatus{SessionStatusActive},
		Limit:    1,
	})
	if err != nil {
		return Session{}, fmt.Errorf("find active session: %w", err)
	}
	if len(sessions) == 0 {
		return Session{}, ErrNoActiveSession
	}
	return sessions[0], nil
}

// GetBlockingStatus derives blocking from the active session: only a running
// work session blocks.
func (s *SessionService) GetBlockingStatus(ctx context.Context, userID string) (BlockingStatus, error) {
	status := BlockingStatus{BlockedItems: []BlocklistItem{}}
	active, err := s.GetCurrentActiveSession(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoActiveSession) {
			return status, nil
		}
		return BlockingStatus{}, err
	}
	status.ActiveSession = &active
	if active.Type != SessionTypeWork {
		return status, nil
	}

	status.IsBlocking = true
	if s.blocking != nil {
		items, err := s.blocking.GetActiveBlockedItems(ctx, userID)
		if err != nil {
			return BlockingStatus{}, err
		}
		status.BlockedItems = append(status.BlockedItems, items...)
	}
	return status, nil
}

// CreateSession stores a session supplied by the client. Setting Completed
// back-fills a finished local timer run.
func (s *SessionService) CreateSession(ctx context.Context, userID string, input SessionInput) (session Session, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "CreateSession", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session created", "session_id", session.ID, "status", string(session.Status))
	}()

	session, err = s.buildSession(ctx, userID, input)
	if err != nil {
		return
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	if session.Status == SessionStatusActive {
		if _, err = s.findActive(ctx, userID); err == nil {
			err = ErrActiveSessionExists
			return
		} else if !errors.Is(err, ErrNoActiveSession) {
			return
		}
		err = nil
	}

	session, err = s.sessions.CreateSession(ctx, session)
	if err != nil {
		return
	}
	s.changed(userID)
	return
}

func (s *SessionService) buildSession(ctx context.Context, userID string, input SessionInput) (Session, error) {
	vErr := &ValidationError{}

	sessionType, ok := ParseSessionType(input.Type)
	if !ok {
		vErr.add("type", "type must be work, break or longBreak")
	}

	status := SessionStatusActive
	switch {
	case input.Completed:
		status = SessionStatusCompleted
	case strings.TrimSpace(input.Status) != "":
		parsed, ok := ParseSessionStatus(input.Status)
		if !ok {
			vErr.add("status", "status must be active, completed, interrupted or aborted")
		}
		status = parsed
	}

	var planned *int
	switch {
	case input.Duration != nil:
		planned = cloneInt(input.Duration)
	case input.PlannedDuration != nil:
		planned = cloneInt(input.PlannedDuration)
	}
	if planned != nil && *planned < 0 {
		vErr.add("plannedDuration", "planned duration must not be negative")
	}
	if input.ActualDuration != nil && *input.ActualDuration < 0 {
		vErr.add("actualDuration", "actual duration must not be negative")
	}
	if input.InterruptionCount != nil && *input.InterruptionCount < 0 {
		vErr.add("interruptionCount", "interruption count must not be negative")
	}
	if err := vErr.errOrNil(); err != nil {
		return Session{}, err
	}

	if planned == nil {
		seconds, err := s.plannedDuration(ctx, userID, sessionType)
		if err != nil {
			return Session{}, err
		}
		planned = &seconds
	}

	now := s.now()
	session := Session{
		ID:                 s.idGenerator(),
		UserID:             userID,
		Type:               sessionType,
		Status:             status,
		PlannedDuration:    *planned,
		ActualDuration:     cloneInt(input.ActualDuration),
		InterruptionReason: normalizeOptional(input.InterruptionReason),
		StartedAt:          now,
		CompletedAt:        cloneTime(input.CompletedAt),
		UpdatedAt:          now,
	}
	if input.InterruptionCount != nil {
		session.InterruptionCount = *input.InterruptionCount
	}
	if input.StartedAt != nil {
		session.StartedAt = *input.StartedAt
	}
	if input.Completed && session.ActualDuration == nil {
		session.ActualDuration = cloneInt(planned)
	}
	return session, nil
}

// GetSession returns the session when it belongs to userID.
func (s *SessionService) GetSession(ctx context.Context, userID, sessionID string) (Session, error) {
	if err := s.ready(); err != nil {
		return Session{}, err
	}
	return s.getOwned(ctx, userID, sessionID)
}

func (s *SessionService) getOwned(ctx context.Context, userID, sessionID string) (Session, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	if session.UserID != userID {
		return Session{}, ErrNotFound
	}
	return session, nil
}

// ListSessions returns all of the user's sessions, most recently started first.
func (s *SessionService) ListSessions(ctx context.Context, userID string) ([]Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.sessions.ListSessions(ctx, SessionQuery{UserID: userID})
}

// UpdateSession applies patch to one of the user's sessions.
func (s *SessionService) UpdateSession(ctx context.Context, userID, sessionID string, patch SessionPatch) (session Session, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "UpdateSession", "user_id", userID, "session_id", sessionID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update session", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	unlock := s.locks.lock(userID)
	defer unlock()

	session, err = s.getOwned(ctx, userID, sessionID)
	if err != nil {
		return
	}

	vErr := &ValidationError{}
	if patch.Type != nil {
		if sessionType, ok := ParseSessionType(*patch.Type); ok {
			session.Type = sessionType
		} else {
			vErr.add("type", "type must be work, break or longBreak")
		}
	}
	if patch.Status != nil {
		if status, ok := ParseSessionStatus(*patch.Status); ok {
			session.Status = status
		} else {
			vErr.add("status", "status must be active, completed, interrupted or aborted")
		}
	}
	if patch.PlannedDuration != nil {
		if *patch.PlannedDuration < 0 {
			vErr.add("plannedDuration", "planned duration must not be negative")
		}
		session.PlannedDuration = *patch.PlannedDuration
	}
	if patch.ActualDuration != nil {
		if *patch.ActualDuration < 0 {
			vErr.add("actualDuration", "actual duration must not be negative")
		}
		session.ActualDuration = cloneInt(patch.ActualDuration)
	}
	if patch.InterruptionCount != nil {
		if *patch.InterruptionCount < 0 {
			vErr.add("interruptionCount", "interruption count must not be negative")
		}
		session.InterruptionCount = *patch.InterruptionCount
	}
	if err = vErr.errOrNil(); err != nil {
		return
	}
	if patch.InterruptionReason != nil {
		session.InterruptionReason = normalizeOptional(patch.InterruptionReason)
	}
	if patch.StartedAt != nil {
		session.StartedAt = *patch.StartedAt
	}
	if patch.CompletedAt != nil {
		session.CompletedAt = cloneTime(patch.CompletedAt)
	}
	session.UpdatedAt = s.now()

	session, err = s.sessions.UpdateSession(ctx, session)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrNotFound
		}
		return
	}
	s.changed(userID)
	return
}

// DeleteSession removes one of the user's sessions.
func (s *SessionService) DeleteSession(ctx context.Context, userID, sessionID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	unlock := s.locks.lock(userID)
	defer unlock()

	if _, err := s.getOwned(ctx, userID, sessionID); err != nil {
		return err
	}
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.changed(userID)
	s.loggerWith(ctx, "DeleteSession", "user_id", userID, "session_id", sessionID).InfoContext(ctx, "session deleted")
	return nil
}

// GetTodayStats summarises the sessions started since local midnight.
func (s *SessionService) GetTodayStats(ctx context.Context, userID string) (TodayStats, error) {
	if err := s.ready(); err != nil {
		return TodayStats{}, err
	}
	from := startOfDay(s.now(), s.location)
	to := from.AddDate(0, 0, 1)
	sessions, err := s.sessions.ListSessions(ctx, SessionQuery{
		UserID:        userID,
		StartedFrom:   &from,
		StartedBefore: &to,
		Ascending:     true,
	})
	if err != nil {
		return TodayStats{}, fmt.Errorf("list today's sessions: %w", err)
	}

	const key = "today"
	bucket := aggregateSessions(sessions, []string{key}, func(Session) string { return key })[0]
	return TodayStats{
		CompletedSessions: bucket.Completed,
		WorkSessions:      bucket.WorkCompleted,
		TotalFocusTime:    bucket.WorkFocus,
		Interruptions:     bucket.Interruptions,
		SuccessRate:       bucket.successRate(),
		TotalSessions:     bucket.Total,
	}, nil
}

// GetWeeklyStats summarises the seven calendar days ending today, one entry
// per weekday in chronological order.
func (s *SessionService) GetWeeklyStats(ctx context.Context, userID string) (WeekStats, error) {
	if err := s.ready(); err != nil {
		return WeekStats{}, err
	}
	today := startOfDay(s.now(), s.location)
	from := today.AddDate(0, 0, -6)
	to := today.AddDate(0, 0, 1)
	sessions, err := s.sessions.ListSessions(ctx, SessionQuery{
		UserID:        userID,
		StartedFrom:   &from,
		StartedBefore: &to,
		Ascending:     true,
	})
	if err != nil {
		return WeekStats{}, fmt.Errorf("list weekly sessions: %w", err)
	}

	days := make([]time.Time, 7)
	keys := make([]string, 7)
	for i := range days {
		days[i] = from.AddDate(0, 0, i)
		keys[i] = days[i].Format(dateKeyLayout)
	}

	buckets := aggregateSessions(sessions, keys, dayKey(s.location))
	stats := WeekStats{Daily: make([]WeekdayStats, 0, len(buckets))}
	for i, bucket := range buckets {
		stats.Daily = append(stats.Daily, WeekdayStats{
			Day:               days[i].Weekday().String(),
			Date:              bucket.Key,
			CompletedSessions: bucket.Completed,
			TotalFocusTime:    bucket.WorkFocus,
			Interruptions:     bucket.Interruptions,
		})
		stats.Summary.TotalSessions += bucket.Total
		stats.Summary.CompletedSessions += bucket.Completed
		stats.Summary.TotalFocusTime += bucket.WorkFocus
		stats.Summary.TotalInterruptions += bucket.Interruptions
	}
	return stats, nil
}

// plannedDuration resolves the planned seconds for a new session from the
// user's settings, falling back to the configured defaults.
func (s *SessionService) plannedDuration(ctx context.Context, userID string, sessionType SessionType) (int, error) {
	fallback := s.defaults.plannedSeconds(sessionType)
	if s.settings == nil {
		return fallback, nil
	}
	settings, err := s.settings.GetSettings(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fallback, nil
		}
		return 0, fmt.Errorf("load timer settings: %w", err)
	}

	minutes := 0
	switch sessionType {
	case SessionTypeWork:
		minutes = settings.WorkDuration
	case SessionTypeBreak:
		minutes = settings.ShortBreakDuration
	case SessionTypeLongBreak:
		minutes = settings.LongBreakDuration
	}
	if minutes <= 0 {
		return fallback, nil
	}
	return minutes * 60, nil
}
