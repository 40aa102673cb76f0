// Package authz decides whether a caller may act on a schedule or shift.
//
// Superadmin is a system-wide flag carried on the Caller, orthogonal to the
// per-schedule admin/user roles. Superadmins are treated as schedule admins
// without consulting the membership table.
package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/example/shift-scheduler/internal/persistence"
)

// ErrForbidden reports an authenticated caller without the required role.
var ErrForbidden = errors.New("authz: forbidden")

// Caller is the authenticated identity behind a request.
type Caller struct {
	UserID       uuid.UUID
	IsSuperadmin bool
}

// RoleLookup resolves a user's membership role. It returns
// persistence.ErrNotFound when the user is not a member.
type RoleLookup interface {
	GetScheduleRole(ctx context.Context, scheduleID, userID uuid.UUID) (persistence.ScheduleRole, error)
}

// RequireMemberOrAdmin returns the caller's effective role on the schedule.
// Superadmins get RoleAdmin. Non-members fail with ErrForbidden; other lookup
// failures are returned unchanged.
func RequireMemberOrAdmin(ctx context.Context, lookup RoleLookup, caller Caller, scheduleID uuid.UUID) (persistence.ScheduleRole, error) {
	if caller.IsSuperadmin {
		return persistence.RoleAdmin, nil
	}
	role, err := lookup.GetScheduleRole(ctx, scheduleID, caller.UserID)
	if errors.Is(err, persistence.ErrNotFound) {
		return "", ErrForbidden
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

// RequireAdmin passes superadmins and schedule admins.
func RequireAdmin(ctx context.Context, lookup RoleLookup, caller Caller, scheduleID uuid.UUID) error {
	role, err := RequireMemberOrAdmin(ctx, lookup, caller, scheduleID)
	if err != nil {
		return err
	}
	if role != persistence.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

// AuthorizeAssignment checks that a caller holding role may assign a shift to
// target. Anyone may take a shift themselves; assigning someone else needs
// admin rights.
func AuthorizeAssignment(caller Caller, role persistence.ScheduleRole, target uuid.UUID) error {
	if target == caller.UserID {
		return nil
	}
	if caller.IsSuperadmin || role == persistence.RoleAdmin {
		return nil
	}
	return ErrForbidden
}

// AuthorizeComment checks that a caller holding role may comment on shift:
// superadmins, schedule admins and the current assignee only.
func AuthorizeComment(caller Caller, role persistence.ScheduleRole, shift persistence.Shift) error {
	if caller.IsSuperadmin || role == persistence.RoleAdmin {
		return nil
	}
	if shift.AssignedUserID.Valid && shift.AssignedUserID.UUID == caller.UserID {
		return nil
	}
	return ErrForbidden
}
