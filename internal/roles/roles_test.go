package roles

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"empresa", RoleEmpresa, false},
		{"asesor", RoleAsesor, false},
		{"soporte", RoleSoporte, false},
		{"super_admin", RoleSuperAdmin, false},
		{"super_admin_root", RoleSuperAdminRoot, false},
		{"  EMPRESA  ", RoleEmpresa, false},
		{"admin", "", true},
		{"", "", true},
		{"superadmin", "", true},
	}
	for _, tc := range cases {
		got, errParse := Parse(tc.in)
		if tc.wantErr {
			if errParse == nil {
				t.Fatalf("Parse(%q): expected error, got %q", tc.in, got)
			}
			continue
		}
		if errParse != nil {
			t.Fatalf("Parse(%q): %v", tc.in, errParse)
		}
		if got != tc.want {
			t.Fatalf("Parse(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRolePartition(t *testing.T) {
	all := []Role{RoleEmpresa, RoleAsesor, RoleSoporte, RoleSuperAdmin, RoleSuperAdminRoot}
	for _, role := range all {
		if role.Internal() == role.Tenant() {
			t.Fatalf("%s must be exactly one of internal or tenant", role)
		}
	}
	if Role("ghost").Internal() || Role("ghost").Tenant() {
		t.Fatalf("unknown roles belong to neither side")
	}
}

func TestAdminCapabilities(t *testing.T) {
	if RoleSoporte.CanWriteAdmin() {
		t.Fatalf("soporte is read-only on the admin surface")
	}
	if !RoleSuperAdmin.CanWriteAdmin() || !RoleSuperAdminRoot.CanWriteAdmin() {
		t.Fatalf("administrators must be able to mutate")
	}
	if RoleSuperAdmin.CanManageAdmins() {
		t.Fatalf("only root manages internal accounts")
	}
	if !RoleSuperAdminRoot.CanManageAdmins() {
		t.Fatalf("root must manage internal accounts")
	}
}

func TestCanActOnTenant(t *testing.T) {
	empresaID := uint64(7)
	otherID := uint64(8)

	owner := Actor{UserID: 1, Role: RoleEmpresa, EmpresaID: &empresaID}
	if !owner.CanActOnTenant(empresaID) {
		t.Fatalf("owner must act on its own empresa")
	}
	if owner.CanActOnTenant(otherID) {
		t.Fatalf("owner must not reach other tenants")
	}

	asesor := Actor{UserID: 2, Role: RoleAsesor, EmpresaID: &empresaID}
	if !asesor.CanActOnTenant(empresaID) || asesor.CanActOnTenant(otherID) {
		t.Fatalf("asesor scope must match its binding")
	}

	unbound := Actor{UserID: 3, Role: RoleEmpresa}
	if unbound.CanActOnTenant(empresaID) {
		t.Fatalf("tenant role without binding reaches nothing")
	}

	for _, role := range []Role{RoleSoporte, RoleSuperAdmin, RoleSuperAdminRoot} {
		staff := Actor{UserID: 4, Role: role}
		if !staff.CanActOnTenant(empresaID) || !staff.CanActOnTenant(otherID) {
			t.Fatalf("%s must reach every tenant", role)
		}
	}

	if (Actor{UserID: 5, Role: Role("ghost"), EmpresaID: &empresaID}).CanActOnTenant(empresaID) {
		t.Fatalf("unknown role must be denied")
	}
}
