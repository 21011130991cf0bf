package auth

import (
	"fmt"

	"assetline/internal/domain"
)

// Authorize reports whether a role may perform an action. It is a pure
// function of its two arguments; callers carry the role explicitly.
func Authorize(role domain.Role, action domain.Action) bool {
	switch role {
	case domain.RoleAdmin:
		return true
	case domain.RoleITOfficer:
		switch action {
		case domain.ActionCreate, domain.ActionEdit, domain.ActionAssign, domain.ActionReturn:
			return true
		}
		return false
	default:
		return false
	}
}

// Require returns a ForbiddenError when the role may not perform the action.
func Require(role domain.Role, action domain.Action) error {
	if Authorize(role, action) {
		return nil
	}
	return &ForbiddenError{Role: role, Action: action}
}

type ForbiddenError struct {
	Role   domain.Role
	Action domain.Action
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("role %s may not %s", e.Role, e.Action)
}
