package auth

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleOperator, PermWagonRead, true},
		{RoleOperator, PermWagonWrite, true},
		{RoleOperator, PermAuditRead, true},
		{RoleReader, PermWagonRead, true},
		{RoleReader, PermWagonWrite, false},
		{RoleReader, PermAuditRead, true},
		{Role("admin"), PermWagonRead, false},
		{Role(""), PermWagonRead, false},
	}

	for _, tt := range tests {
		if got := HasPermission(tt.role, tt.perm); got != tt.want {
			t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.perm, got, tt.want)
		}
	}
}

func TestPrincipal_Can(t *testing.T) {
	reader := Principal{Subject: "report-job", Role: RoleReader}
	if reader.Can(PermWagonWrite) {
		t.Error("reader must not write wagons")
	}
	if !reader.Can(PermWagonRead) {
		t.Error("reader must read wagons")
	}
}

func TestPermissionsForRole(t *testing.T) {
	perms := PermissionsForRole(RoleOperator)
	if len(perms) != 3 {
		t.Fatalf("PermissionsForRole(operator) = %v, want 3 permissions", perms)
	}

	// The returned slice is a copy.
	perms[0] = "mutated"
	if PermissionsForRole(RoleOperator)[0] == "mutated" {
		t.Error("PermissionsForRole() returned the internal slice")
	}

	if PermissionsForRole(Role("admin")) != nil {
		t.Error("PermissionsForRole(unknown) should be nil")
	}
}

func TestIsValidRole(t *testing.T) {
	for _, r := range []Role{RoleOperator, RoleReader} {
		if !IsValidRole(r) {
			t.Errorf("IsValidRole(%q) = false", r)
		}
	}
	for _, r := range []Role{"", "admin", "Operator"} {
		if IsValidRole(r) {
			t.Errorf("IsValidRole(%q) = true", r)
		}
	}
}
