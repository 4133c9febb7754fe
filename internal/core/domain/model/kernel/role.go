package kernel

import (
	"fmt"

	"dentallab/internal/pkg/errs"
)

// Role is the kind of actor performing an operation. The persisted tokens are shared
// with the identity provider and with the uploader role of files.
type Role string

const (
	RoleUser    Role = "user"
	RoleDentist Role = "dentist"
	RoleAdmin   Role = "admin"
)

// ParseRole accepts the exact lowercase tokens only.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if err := r.Validate(); err != nil {
		return "", err
	}
	return r, nil
}

func (r Role) Validate() error {
	switch r {
	case RoleUser, RoleDentist, RoleAdmin:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q is not a valid role", string(r)))
	}
}

func (r Role) String() string {
	return string(r)
}

// Principal is the authenticated caller. The core trusts it as already verified.
type Principal struct {
	UserID UUID
	Role   Role
}

func NewPrincipal(userID UUID, role Role) (Principal, error) {
	if err := userID.Validate(); err != nil {
		return Principal{}, err
	}
	if err := role.Validate(); err != nil {
		return Principal{}, err
	}
	return Principal{UserID: userID, Role: role}, nil
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
