package testfixtures

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/example/shift-scheduler/internal/application"
	"github.com/example/shift-scheduler/internal/persistence"
	"github.com/example/shift-scheduler/internal/token"
)

// TestSecret signs tokens issued by factory-built services.
const TestSecret = "test-secret"

// FastArgon2idParams keep password hashing cheap in tests.
var FastArgon2idParams = application.Argon2idParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  8,
	KeyLength:   16,
}

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Stores      StoreFactory
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults: a ticking
// clock, namespace 0x01 identifiers and an in-memory store.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewTickingClock(ReferenceTime(), time.Second),
		IDGenerator: NewIDGenerator(0x01),
		Stores:      NewMemoryStore,
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewTickingClock(ReferenceTime(), time.Second)
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator(0x01)
	}
	if factory.Stores == nil {
		factory.Stores = NewMemoryStore
	}
	if factory.Logger == nil {
		factory.Logger = DiscardLogger()
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithStores overrides the store harness, e.g. NewSQLiteStore.
func WithStores(stores StoreFactory) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Stores = stores
	}
}

// WithLogger routes service logs to logger.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// Services bundles every application service over one store.
type Services struct {
	Store     persistence.Store
	Tokens    *token.Issuer
	Auth      *application.AuthService
	Users     *application.UserService
	Schedules *application.ScheduleService
	Shifts    *application.ShiftService
	Templates *application.TemplateService
}

// Build wires the services over a fresh store.
func (f *ServiceFactory) Build(tb testing.TB) *Services {
	tb.Helper()

	store := f.Stores(tb,
		persistence.WithClock(f.Clock.NowFunc()),
		persistence.WithIDGenerator(f.IDGenerator.NextFunc()),
	)
	issuer, err := token.NewIssuer(TestSecret, token.WithClock(f.Clock.Current))
	if err != nil {
		tb.Fatalf("token issuer: %v", err)
	}
	hasher := application.NewArgon2idHasher(FastArgon2idParams)

	return &Services{
		Store:     store,
		Tokens:    issuer,
		Auth:      application.NewAuthServiceWithLogger(store, hasher, issuer, f.Logger),
		Users:     application.NewUserServiceWithLogger(store, f.Logger),
		Schedules: application.NewScheduleServiceWithLogger(store, f.Logger),
		Shifts:    application.NewShiftServiceWithLogger(store, f.Logger),
		Templates: application.NewTemplateServiceWithLogger(store, f.Logger),
	}
}

// RegisterCaller registers email through the auth service and returns the
// resolved caller together with its token.
func (s *Services) RegisterCaller(tb testing.TB, email string) (application.Caller, string) {
	tb.Helper()

	ctx := context.Background()
	tok, err := s.Auth.Register(ctx, application.Credentials{Email: email, Password: "password1"})
	if err != nil {
		tb.Fatalf("register %s: %v", email, err)
	}
	caller, err := s.Auth.Authenticate(ctx, tok)
	if err != nil {
		tb.Fatalf("authenticate %s: %v", email, err)
	}
	return caller, tok
}
