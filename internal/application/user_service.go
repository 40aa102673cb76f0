package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/shift-scheduler/internal/persistence"
)

// UserService exposes account lookups for authenticated callers.
type UserService struct {
	users  persistence.UserStore
	logger *slog.Logger
}

// NewUserService constructs a UserService backed by the provided store.
func NewUserService(users persistence.UserStore) *UserService {
	return NewUserServiceWithLogger(users, nil)
}

// NewUserServiceWithLogger constructs a UserService with a specified logger.
func NewUserServiceWithLogger(users persistence.UserStore, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: defaultLogger(logger)}
}

// Me returns the caller's own account.
func (s *UserService) Me(ctx context.Context, caller Caller) (user persistence.User, err error) {
	logger := serviceLogger(ctx, s.logger, "UserService", "Me", "user_id", caller.UserID)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "user loaded")
			return
		}
		logger.DebugContext(ctx, "user loaded")
	}()

	user, err = s.users.GetUser(ctx, caller.UserID)
	if errors.Is(err, persistence.ErrNotFound) {
		err = ErrUnauthorized
		return
	}
	err = translate(err)
	return
}
