package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/example/shift-scheduler/internal/persistence"
	"github.com/example/shift-scheduler/internal/token"
)

// TokenCodec issues and verifies bearer tokens.
type TokenCodec interface {
	Issue(userID uuid.UUID, isSuperadmin bool) (string, error)
	Decode(raw string) (token.Claims, error)
}

// AuthService coordinates registration, login and bearer token resolution.
type AuthService struct {
	users  persistence.UserStore
	hasher PasswordHasher
	tokens TokenCodec
	logger *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(users persistence.UserStore, hasher PasswordHasher, tokens TokenCodec) *AuthService {
	return NewAuthServiceWithLogger(users, hasher, tokens, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(users persistence.UserStore, hasher PasswordHasher, tokens TokenCodec, logger *slog.Logger) *AuthService {
	if hasher == nil {
		hasher = NewArgon2idHasher(DefaultArgon2idParams)
	}
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and returns a token for it. The first account
// ever created is a superadmin.
func (s *AuthService) Register(ctx context.Context, creds Credentials) (tok string, err error) {
	email := normalizeEmail(creds.Email)
	logger := s.loggerWith(ctx, "Register", "email", email)

	var user persistence.User
	defer func() {
		logOutcome(ctx, logger, err, "user registered", "user_id", user.ID, "is_superadmin", user.IsSuperadmin)
	}()

	if email == "" || len(creds.Password) < MinPasswordLength {
		err = badRequest("email must be set and password must be >= 8 chars")
		return
	}

	count, err := s.users.CountUsers(ctx)
	if err != nil {
		err = translate(err)
		return
	}

	hash, err := s.hasher.Hash(creds.Password)
	if err != nil {
		err = internal(err)
		return
	}

	user, err = s.users.CreateUser(ctx, persistence.NewUser{
		Email:        email,
		PasswordHash: hash,
		IsSuperadmin: count == 0,
	})
	if errors.Is(err, persistence.ErrConflict) {
		err = &ConflictError{Message: "email already exists"}
		return
	}
	if err != nil {
		err = translate(err)
		return
	}

	tok, err = s.issue(user)
	return
}

// Login verifies the credentials and returns a fresh token. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, creds Credentials) (tok string, err error) {
	email := normalizeEmail(creds.Email)
	logger := s.loggerWith(ctx, "Login", "email", email)

	var user persistence.User
	defer func() {
		logOutcome(ctx, logger, err, "user logged in", "user_id", user.ID)
	}()

	user, hash, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, persistence.ErrNotFound) {
		err = ErrUnauthorized
		return
	}
	if err != nil {
		err = translate(err)
		return
	}

	ok, err := s.hasher.Verify(creds.Password, hash)
	if err != nil {
		err = internal(err)
		return
	}
	if !ok {
		err = ErrUnauthorized
		return
	}

	tok, err = s.issue(user)
	return
}

// Authenticate resolves a bearer token to the caller. The user is re-read so
// the superadmin flag reflects the stored account rather than the claims.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (Caller, error) {
	claims, err := s.tokens.Decode(raw)
	if err != nil {
		return Caller{}, ErrUnauthorized
	}

	user, err := s.users.GetUser(ctx, claims.UserID)
	if errors.Is(err, persistence.ErrNotFound) {
		return Caller{}, ErrUnauthorized
	}
	if err != nil {
		err = translate(err)
		s.loggerWith(ctx, "Authenticate", "user_id", claims.UserID).
			ErrorContext(ctx, "caller lookup failed", "error", err, "error_kind", ErrorKind(err))
		return Caller{}, err
	}
	return Caller{UserID: user.ID, IsSuperadmin: user.IsSuperadmin}, nil
}

func (s *AuthService) issue(user persistence.User) (string, error) {
	tok, err := s.tokens.Issue(user.ID, user.IsSuperadmin)
	if err != nil {
		return "", internal(err)
	}
	return tok, nil
}
