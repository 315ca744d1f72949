package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 50
	maxNameLength     = 50
)

// settingRange bounds an integer timer setting.
type settingRange struct {
	min, max int
}

var (
	workDurationRange           = settingRange{1, 120}
	shortBreakDurationRange     = settingRange{1, 60}
	longBreakDurationRange      = settingRange{1, 60}
	sessionsUntilLongBreakRange = settingRange{1, 10}
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
}

// PasswordHasher derives the stored form of a password.
type PasswordHasher func(password string) (string, error)

// UserOption customises a UserService.
type UserOption func(*UserService)

// WithPasswordHasher replaces the argon2id hasher.
func WithPasswordHasher(hasher PasswordHasher) UserOption {
	return func(s *UserService) {
		if hasher != nil {
			s.hashPassword = hasher
		}
	}
}

// UserService manages accounts, profiles and timer settings.
type UserService struct {
	users        UserRepository
	idGenerator  func() string
	now          func() time.Time
	hashPassword PasswordHasher
	logger       *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, idGenerator, now, nil)
}

// NewUserServiceWithLogger wires dependencies and a logger for the user service.
func NewUserServiceWithLogger(users UserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger, opts ...UserOption) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	s := &UserService{
		users:        users,
		idGenerator:  idGenerator,
		now:          now,
		hashPassword: defaultPasswordHasher,
		logger:       defaultLogger(logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultPasswordHasher(password string) (string, error) {
	return CreatePasswordHash(password, DefaultArgon2idParams)
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

func (s *UserService) ready() error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}
	return nil
}

// Register validates the signup data and creates an account with default settings.
func (s *UserService) Register(ctx context.Context, params SignUpParams) (user User, err error) {
	if err = s.ready(); err != nil {
		return
	}
	email := normalizeEmail(params.Email)
	logger := s.loggerWith(ctx, "Register", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	}()

	firstName := normalizeOptional(params.FirstName)
	lastName := normalizeOptional(params.LastName)
	if err = validateSignUp(email, params.Password, firstName, lastName).errOrNil(); err != nil {
		return
	}

	var hash string
	hash, err = s.hashPassword(params.Password)
	if err != nil {
		err = fmt.Errorf("hash password: %w", err)
		return
	}

	now := s.now()
	user = User{
		ID:        s.idGenerator(),
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Settings:  DefaultSettings(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	user, err = s.users.CreateUser(ctx, user, hash)
	return
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateSignUp(email, password string, firstName, lastName *string) *ValidationError {
	vErr := &ValidationError{}

	if email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		vErr.add("email", "email is invalid")
	}

	switch n := utf8.RuneCountInString(password); {
	case n < minPasswordLength:
		vErr.add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	case n > maxPasswordLength:
		vErr.add("password", fmt.Sprintf("password must be at most %d characters", maxPasswordLength))
	}

	if firstName != nil && utf8.RuneCountInString(*firstName) > maxNameLength {
		vErr.add("firstName", fmt.Sprintf("first name must be at most %d characters", maxNameLength))
	}
	if lastName != nil && utf8.RuneCountInString(*lastName) > maxNameLength {
		vErr.add("lastName", fmt.Sprintf("last name must be at most %d characters", maxNameLength))
	}
	return vErr
}

// GetProfile returns the account and its settings.
func (s *UserService) GetProfile(ctx context.Context, userID string) (User, error) {
	if err := s.ready(); err != nil {
		return User{}, err
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// GetSettings returns the user's timer settings.
func (s *UserService) GetSettings(ctx context.Context, userID string) (Settings, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return Settings{}, err
	}
	return user.Settings, nil
}

// UpdateSettings validates and applies a partial settings update.
func (s *UserService) UpdateSettings(ctx context.Context, userID string, patch SettingsPatch) (user User, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "UpdateSettings", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update settings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "settings updated")
	}()

	if err = validateSettingsPatch(patch).errOrNil(); err != nil {
		return
	}

	user, err = s.GetProfile(ctx, userID)
	if err != nil {
		return
	}
	user.Settings = applySettingsPatch(user.Settings, patch)
	user.UpdatedAt = s.now()

	user, err = s.users.UpdateUser(ctx, user)
	if errors.Is(err, ErrNotFound) {
		err = ErrNotFound
	}
	return
}

func validateSettingsPatch(patch SettingsPatch) *ValidationError {
	vErr := &ValidationError{}
	checkRange := func(field string, value *int, bounds settingRange) {
		if value != nil && (*value < bounds.min || *value > bounds.max) {
			vErr.add(field, fmt.Sprintf("%s must be between %d and %d", field, bounds.min, bounds.max))
		}
	}
	checkRange("workDuration", patch.WorkDuration, workDurationRange)
	checkRange("shortBreakDuration", patch.ShortBreakDuration, shortBreakDurationRange)
	checkRange("longBreakDuration", patch.LongBreakDuration, longBreakDurationRange)
	checkRange("sessionsUntilLongBreak", patch.SessionsUntilLongBreak, sessionsUntilLongBreakRange)
	if patch.SoundVolume != nil && (*patch.SoundVolume < 0 || *patch.SoundVolume > 1) {
		vErr.add("soundVolume", "soundVolume must be between 0 and 1")
	}
	return vErr
}

func applySettingsPatch(settings Settings, patch SettingsPatch) Settings {
	if patch.WorkDuration != nil {
		settings.WorkDuration = *patch.WorkDuration
	}
	if patch.ShortBreakDuration != nil {
		settings.ShortBreakDuration = *patch.ShortBreakDuration
	}
	if patch.LongBreakDuration != nil {
		settings.LongBreakDuration = *patch.LongBreakDuration
	}
	if patch.SessionsUntilLongBreak != nil {
		settings.SessionsUntilLongBreak = *patch.SessionsUntilLongBreak
	}
	if patch.SoundEnabled != nil {
		settings.SoundEnabled = *patch.SoundEnabled
	}
	if patch.SoundVolume != nil {
		settings.SoundVolume = *patch.SoundVolume
	}
	if patch.NotificationsEnabled != nil {
		settings.NotificationsEnabled = *patch.NotificationsEnabled
	}
	return settings
}
