package auth_test

import (
	"errors"
	"testing"

	"assetline/internal/domain"
	"assetline/internal/engine/auth"
)

func TestAuthorizeMatrix(t *testing.T) {
	cases := []struct {
		role   domain.Role
		action domain.Action
		want   bool
	}{
		{domain.RoleViewer, domain.ActionCreate, false},
		{domain.RoleViewer, domain.ActionEdit, false},
		{domain.RoleViewer, domain.ActionDelete, false},
		{domain.RoleViewer, domain.ActionAssign, false},
		{domain.RoleViewer, domain.ActionReturn, false},
		{domain.RoleViewer, domain.ActionManageUsers, false},
		{domain.RoleITOfficer, domain.ActionCreate, true},
		{domain.RoleITOfficer, domain.ActionEdit, true},
		{domain.RoleITOfficer, domain.ActionAssign, true},
		{domain.RoleITOfficer, domain.ActionReturn, true},
		{domain.RoleITOfficer, domain.ActionDelete, false},
		{domain.RoleITOfficer, domain.ActionManageUsers, false},
		{domain.RoleAdmin, domain.ActionCreate, true},
		{domain.RoleAdmin, domain.ActionDelete, true},
		{domain.RoleAdmin, domain.ActionManageUsers, true},
	}
	for _, tc := range cases {
		if got := auth.Authorize(tc.role, tc.action); got != tc.want {
			t.Errorf("Authorize(%s, %s) = %v, want %v", tc.role, tc.action, got, tc.want)
		}
	}
}

func TestRequireReturnsForbidden(t *testing.T) {
	err := auth.Require(domain.RoleViewer, domain.ActionDelete)
	var forbidden *auth.ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
	if forbidden.Role != domain.RoleViewer || forbidden.Action != domain.ActionDelete {
		t.Fatalf("unexpected error fields: %+v", forbidden)
	}
	if err := auth.Require(domain.RoleAdmin, domain.ActionDelete); err != nil {
		t.Fatalf("expected nil for admin, got %v", err)
	}
}
