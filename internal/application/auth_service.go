package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultTokenTTL is how long an issued bearer token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// CredentialStore exposes user credential lookup operations required by the auth service.
type CredentialStore interface {
	GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
	GetUser(ctx context.Context, id string) (User, error)
}

// TokenRepository captures the persistence interactions for issued bearer tokens.
type TokenRepository interface {
	CreateToken(ctx context.Context, token AuthToken) (AuthToken, error)
	GetToken(ctx context.Context, token string) (AuthToken, error)
	RevokeToken(ctx context.Context, token string, revokedAt time.Time) (AuthToken, error)
	DeleteExpiredTokens(ctx context.Context, reference time.Time) error
}

// Registrar creates accounts. UserService implements it.
type Registrar interface {
	Register(ctx context.Context, params SignUpParams) (User, error)
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService coordinates signup, signin and bearer token validation.
type AuthService struct {
	credentials    CredentialStore
	tokens         TokenRepository
	registrar      Registrar
	verifyPassword PasswordVerifier
	tokenGenerator func() string
	now            func() time.Time
	tokenTTL       time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, tokens TokenRepository, registrar Registrar, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, tokenTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(credentials, tokens, registrar, verify, tokenGenerator, now, tokenTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, tokens TokenRepository, registrar Registrar, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, tokenTTL time.Duration, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &AuthService{
		credentials:    credentials,
		tokens:         tokens,
		registrar:      registrar,
		verifyPassword: verify,
		tokenGenerator: tokenGenerator,
		now:            now,
		tokenTTL:       tokenTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// SignUp registers an account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, params SignUpParams) (AuthResult, error) {
	if s == nil {
		return AuthResult{}, fmt.Errorf("AuthService is nil")
	}
	if s.registrar == nil {
		return AuthResult{}, fmt.Errorf("registrar not configured")
	}
	user, err := s.registrar.Register(ctx, params)
	if err != nil {
		return AuthResult{}, err
	}
	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		s.loggerWith(ctx, "SignUp", "user_id", user.ID).
			ErrorContext(ctx, "failed to issue token", "error", err, "error_kind", ErrorKind(err))
		return AuthResult{}, err
	}
	return AuthResult{User: user, Token: token}, nil
}

// Authenticate validates credentials and issues a new bearer token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	email := normalizeEmail(params.Email)
	password := params.Password

	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "authentication succeeded", "user_id", result.User.ID)
	}()

	if email == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	var creds UserCredentials
	creds, err = s.credentials.GetUserCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if err = s.verifyPassword(creds.PasswordHash, password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	var token AuthToken
	token, err = s.issueToken(ctx, creds.User.ID)
	if err != nil {
		return
	}
	result = AuthResult{User: creds.User, Token: token}
	return
}

func (s *AuthService) issueToken(ctx context.Context, userID string) (AuthToken, error) {
	value := s.tokenGenerator()
	if value == "" {
		return AuthToken{}, fmt.Errorf("token generator returned an empty token")
	}

	now := s.now()
	token := AuthToken{
		Token:     value,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenTTL),
	}
	if s.tokens == nil {
		return token, nil
	}
	if err := s.tokens.DeleteExpiredTokens(ctx, now); err != nil {
		return AuthToken{}, err
	}
	return s.tokens.CreateToken(ctx, token)
}

// RevokeToken signs a bearer token out.
func (s *AuthService) RevokeToken(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.tokens == nil {
		return fmt.Errorf("token repository not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrInvalidCredentials
	}

	logger := s.loggerWith(ctx, "RevokeToken")
	if _, err := s.tokens.RevokeToken(ctx, trimmed, s.now()); err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.ErrorContext(ctx, "failed to revoke token", "error", ErrInvalidCredentials, "error_kind", ErrorKind(ErrInvalidCredentials))
			return ErrInvalidCredentials
		}
		logger.ErrorContext(ctx, "failed to revoke token", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "token revoked")
	return nil
}

// ValidateToken verifies that token is live and returns its principal.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.tokens == nil {
		err = fmt.Errorf("token repository not configured")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateToken", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "token validation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "token validated", "principal_id", principal.UserID)
	}()

	if trimmed == "" {
		err = ErrInvalidCredentials
		return
	}

	var issued AuthToken
	issued, err = s.tokens.GetToken(ctx, trimmed)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if issued.RevokedAt != nil && !issued.RevokedAt.IsZero() {
		err = ErrTokenRevoked
		return
	}
	if !issued.ExpiresAt.After(s.now()) {
		err = ErrTokenExpired
		return
	}

	var user User
	user, err = s.credentials.GetUser(ctx, issued.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	principal = Principal{UserID: user.ID, Email: user.Email}
	return
}
