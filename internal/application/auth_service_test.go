package application_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/shift-scheduler/internal/application"
	"github.com/example/shift-scheduler/internal/testfixtures"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	t.Parallel()

	services := testfixtures.NewServiceFactory().Build(t)
	ctx := context.Background()

	tok, err := services.Auth.Register(ctx, application.Credentials{Email: "  Alice@Example.COM ", Password: "password1"})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	claims, err := services.Tokens.Decode(tok)
	if err != nil {
		t.Fatalf("register token did not decode: %v", err)
	}

	loginTok, err := services.Auth.Login(ctx, application.Credentials{Email: "alice@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	loginClaims, err := services.Tokens.Decode(loginTok)
	if err != nil {
		t.Fatalf("login token did not decode: %v", err)
	}
	if loginClaims.UserID != claims.UserID {
		t.Fatalf("login resolved to %s, registered %s", loginClaims.UserID, claims.UserID)
	}

	user, err := services.Users.Me(ctx, application.Caller{UserID: claims.UserID})
	if err != nil {
		t.Fatalf("Me returned error: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
}

func TestAuthService_FirstUserIsSuperadmin(t *testing.T) {
	t.Parallel()

	services := testfixtures.NewServiceFactory().Build(t)

	first, _ := services.RegisterCaller(t, "first@example.com")
	second, _ := services.RegisterCaller(t, "second@example.com")
	third, _ := services.RegisterCaller(t, "third@example.com")

	if !first.IsSuperadmin {
		t.Fatalf("expected the first user to be superadmin")
	}
	if second.IsSuperadmin || third.IsSuperadmin {
		t.Fatalf("expected later users not to be superadmin")
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	t.Parallel()

	services := testfixtures.NewServiceFactory().Build(t)
	ctx := context.Background()

	tests := map[string]application.Credentials{
		"blank email":    {Email: "   ", Password: "password1"},
		"short password": {Email: "bob@example.com", Password: "1234567"},
	}
	for name, creds := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := services.Auth.Register(ctx, creds)
			if !errors.Is(err, application.ErrBadRequest) {
				t.Fatalf("expected bad request, got %v", err)
			}
			if got := application.PublicMessage(err); got != "bad request: email must be set and password must be >= 8 chars" {
				t.Fatalf("unexpected message %q", got)
			}
		})
	}

	count, err := services.Store.CountUsers(ctx)
	if err != nil || count != 0 {
		t.Fatalf("expected no users after rejected registrations, got %d (%v)", count, err)
	}
}

func TestAuthService_RegisterAcceptsEightByteMultibytePassword(t *testing.T) {
	t.Parallel()

	services := testfixtures.NewServiceFactory().Build(t)
	// four two-byte runes
	if _, err := services.Auth.Register(context.Background(), application.Credentials{Email: "u@example.com", Password: "éééé"}); err != nil {
		t.Fatalf("expected an 8 byte password to be accepted, got %v", err)
	}
}

func TestAuthService_DuplicateEmail(t *testing.T) {
	t.Parallel()

	services := testfixtures.NewServiceFactory().Build(t)
	services.RegisterCaller(t, "dup@example.com")

	_, err := services.Auth.Register(context.Background(), application.Credentials{Email: "DUP@example.com", Password: "password2"})
	if !errors.Is(err, application.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := application.PublicMessage(err); got != "conflict: email already exists" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestAuthService_LoginFailures(t *testing.T) {
	t.Parallel()

	services := testfixtures.NewServiceFactory().Build(t)
	services.RegisterCaller(t, "carol@example.com")

	tests := map[string]application.Credentials{
		"unknown email":  {Email: "nobody@example.com", Password: "password1"},
		"wrong password": {Email: "carol@example.com", Password: "password2"},
	}
	for name, creds := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := services.Auth.Login(context.Background(), creds)
			if !errors.Is(err, application.ErrUnauthorized) {
				t.Fatalf("expected unauthorized, got %v", err)
			}
		})
	}
}

func TestAuthService_LoginWithCorruptHashIsInternal(t *testing.T) {
	t.Parallel()

	services := testfixtures.NewServiceFactory().Build(t)
	testfixtures.SeedUser(t, services.Store,
		testfixtures.WithUserEmail("corrupt@example.com"),
		testfixtures.WithUserPasswordHash("not-a-phc-string"),
	)

	_, err := services.Auth.Login(context.Background(), application.Credentials{Email: "corrupt@example.com", Password: "password1"})
	if !errors.Is(err, application.ErrInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if strings.Contains(application.PublicMessage(err), "phc") {
		t.Fatalf("internal detail leaked: %q", application.PublicMessage(err))
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	services := testfixtures.NewServiceFactory().Build(t)
	ctx := context.Background()
	caller, tok := services.RegisterCaller(t, "dave@example.com")

	t.Run("valid token", func(t *testing.T) {
		got, err := services.Auth.Authenticate(ctx, tok)
		if err != nil {
			t.Fatalf("Authenticate returned error: %v", err)
		}
		if got != caller {
			t.Fatalf("Authenticate = %+v, want %+v", got, caller)
		}
	})

	t.Run("tampered token", func(t *testing.T) {
		if _, err := services.Auth.Authenticate(ctx, tok+"x"); !errors.Is(err, application.ErrUnauthorized) {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		ghost, err := services.Tokens.Issue(testfixtures.NewIDGenerator(0x7f).Next(), true)
		if err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}
		if _, err := services.Auth.Authenticate(ctx, ghost); !errors.Is(err, application.ErrUnauthorized) {
			t.Fatalf("expected unauthorized for a deleted user, got %v", err)
		}
	})

	t.Run("stored flag wins over claims", func(t *testing.T) {
		forged, err := services.Tokens.Issue(caller.UserID, !caller.IsSuperadmin)
		if err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}
		got, err := services.Auth.Authenticate(ctx, forged)
		if err != nil {
			t.Fatalf("Authenticate returned error: %v", err)
		}
		if got.IsSuperadmin != caller.IsSuperadmin {
			t.Fatalf("expected stored superadmin flag %v, got %v", caller.IsSuperadmin, got.IsSuperadmin)
		}
	})
}

func TestUserService_MeForMissingUser(t *testing.T) {
	t.Parallel()

	services := testfixtures.NewServiceFactory().Build(t)
	_, err := services.Users.Me(context.Background(), application.Caller{UserID: testfixtures.NewIDGenerator(0x7e).Next()})
	if !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
