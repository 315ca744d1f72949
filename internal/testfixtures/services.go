package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/focusflow/internal/application"
)

// ServiceFactory builds application services with a shared fake clock and
// predictable identifiers.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory.
type ServiceFactoryOption func(*ServiceFactory)

func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Clock = clock }
}

func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.IDGenerator = generator }
}

func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Logger = logger }
}

// PlainPasswordHasher stores passwords as "plain:<password>" so tests skip the
// cost of argon2id.
func PlainPasswordHasher(password string) (string, error) {
	return "plain:" + password, nil
}

// PlainPasswordVerifier accepts hashes produced by PlainPasswordHasher.
func PlainPasswordVerifier(hashedPassword, password string) error {
	if hashedPassword != "plain:"+password {
		return application.ErrInvalidCredentials
	}
	return nil
}

// NewUserService uses PlainPasswordHasher.
func (f *ServiceFactory) NewUserService(users application.UserRepository) *application.UserService {
	return application.NewUserServiceWithLogger(users, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger,
		application.WithPasswordHasher(PlainPasswordHasher))
}

// NewAuthService uses PlainPasswordVerifier and tokens from the ID generator.
func (f *ServiceFactory) NewAuthService(credentials application.CredentialStore, tokens application.TokenRepository, registrar application.Registrar, ttl time.Duration) *application.AuthService {
	return application.NewAuthServiceWithLogger(credentials, tokens, registrar, PlainPasswordVerifier,
		f.IDGenerator.NextFunc(), f.Clock.NowFunc(), ttl, f.Logger)
}

func (f *ServiceFactory) NewBlocklistService(items application.BlocklistRepository) *application.BlocklistService {
	return application.NewBlocklistServiceWithLogger(items, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

func (f *ServiceFactory) NewSessionService(sessions application.SessionRepository, blocking application.BlockingCoordinator, opts ...application.SessionServiceOption) *application.SessionService {
	return application.NewSessionServiceWithLogger(sessions, blocking, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger, opts...)
}

func (f *ServiceFactory) NewAnalyticsService(sessions application.SessionLister, opts ...application.AnalyticsOption) *application.AnalyticsService {
	return application.NewAnalyticsServiceWithLogger(sessions, f.Clock.NowFunc(), f.Logger, opts...)
}
