package application

import (
	"errors"
	"testing"

	"github.com/example/shift-scheduler/internal/authz"
	"github.com/example/shift-scheduler/internal/persistence"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	if got := badRequest("name is required").Error(); got != "bad request: name is required" {
		t.Fatalf("unexpected message %q", got)
	}

	withFields := &ValidationError{}
	withFields.add("to", "invalid to")
	withFields.add("from", "invalid from")
	if got := withFields.Error(); got != "bad request: invalid from; invalid to" {
		t.Fatalf("expected field messages in field order, got %q", got)
	}

	if !errors.Is(withFields, ErrBadRequest) {
		t.Fatalf("validation errors must unwrap to ErrBadRequest")
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	if (&ValidationError{}).HasErrors() {
		t.Fatalf("expected HasErrors to report false for empty error")
	}
	if !(&ValidationError{FieldErrors: map[string]string{"field": "bad"}}).HasErrors() {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
	if !badRequest("x").HasErrors() {
		t.Fatalf("expected HasErrors to report true when a message is present")
	}
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	storageErr := persistence.NewStorageError("create shift", errors.New("disk full"))
	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "forbidden", in: authz.ErrForbidden, want: ErrForbidden},
		{name: "not found", in: persistence.ErrNotFound, want: ErrNotFound},
		{name: "conflict", in: persistence.ErrConflict, want: ErrConflict},
		{name: "storage", in: storageErr, want: ErrInternal},
		{name: "already classified", in: badRequest("x"), want: ErrBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := translate(tc.in); !errors.Is(got, tc.want) {
				t.Fatalf("translate(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}

	if translate(nil) != nil {
		t.Fatalf("nil must stay nil")
	}

	var iErr *internalError
	if !errors.As(translate(storageErr), &iErr) || iErr.Cause() != storageErr {
		t.Fatalf("internal errors must keep their cause")
	}
}

func TestPublicMessage(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want string
	}{
		"validation":   {err: badRequest("name is required"), want: "bad request: name is required"},
		"conflict":     {err: &ConflictError{Message: "email already exists"}, want: "conflict: email already exists"},
		"unauthorized": {err: ErrUnauthorized, want: "unauthorized"},
		"forbidden":    {err: ErrForbidden, want: "forbidden"},
		"not found":    {err: ErrNotFound, want: "not found"},
		"internal":     {err: internal(errors.New("driver said secret things")), want: "internal error"},
		"unclassified": {err: errors.New("boom"), want: "internal error"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := PublicMessage(tc.err); got != tc.want {
				t.Fatalf("PublicMessage = %q, want %q", got, tc.want)
			}
		})
	}
}
