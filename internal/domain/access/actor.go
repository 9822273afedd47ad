package access

import (
	"strings"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleProvider Role = "provider"
	RoleCustomer Role = "customer"
)

// Actor is the verified caller handed to every core operation.
type Actor struct {
	UserID string
	Role   Role
}

// ParseRole accepts the legacy role names barber and user.
func ParseRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin":
		return RoleAdmin, true
	case "provider", "barber":
		return RoleProvider, true
	case "customer", "user", "":
		return RoleCustomer, true
	}
	return "", false
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) Authenticated() error {
	if a.UserID == "" {
		return httperr.ErrForbidden("unauthenticated")
	}
	return nil
}

// CanManageProvider reports whether the actor may act on behalf of the provider owned by ownerUserID.
func (a Actor) CanManageProvider(ownerUserID string) bool {
	if a.IsAdmin() {
		return true
	}
	return a.Role == RoleProvider && a.UserID != "" && a.UserID == ownerUserID
}

func (a Actor) RequireProvider(ownerUserID string) error {
	if !a.CanManageProvider(ownerUserID) {
		return httperr.ErrForbidden("not_provider_owner")
	}
	return nil
}

func (a Actor) RequireAdmin() error {
	if !a.IsAdmin() {
		return httperr.ErrForbidden("admin_only")
	}
	return nil
}
