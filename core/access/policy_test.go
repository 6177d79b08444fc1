package access

import (
	"testing"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name string
		role string
		res  school.Resource
		op   Operation
		want Decision
	}{
		{name: "admin reads anything unscoped", role: user.RoleAdmin, res: school.ResourceResult, op: OpList, want: AllowedUnscoped},
		{name: "admin deletes anything unscoped", role: user.RoleAdmin, res: school.ResourceResult, op: OpDelete, want: AllowedUnscoped},

		{name: "management reads school-wide", role: user.RoleManagement, res: school.ResourceStudent, op: OpList, want: AllowedUnscoped},
		{name: "management manages reference data", role: user.RoleManagement, res: school.ResourceClass, op: OpUpdate, want: AllowedUnscoped},
		{name: "management manages fee payments", role: user.RoleManagement, res: school.ResourceFeePayment, op: OpCreate, want: AllowedUnscoped},
		{name: "management deletes announcements", role: user.RoleManagement, res: school.ResourceAnnouncement, op: OpDelete, want: AllowedUnscoped},
		{name: "management cannot enter results", role: user.RoleManagement, res: school.ResourceResult, op: OpCreate, want: Denied},
		{name: "management cannot delete results", role: user.RoleManagement, res: school.ResourceResult, op: OpDelete, want: Denied},

		{name: "staff reads reference data unscoped", role: user.RoleStaff, res: school.ResourceSubject, op: OpList, want: AllowedUnscoped},
		{name: "staff enters results scoped", role: user.RoleStaff, res: school.ResourceResult, op: OpCreate, want: AllowedScoped},
		{name: "staff updates results scoped", role: user.RoleStaff, res: school.ResourceResult, op: OpUpdate, want: AllowedScoped},
		{name: "staff cannot delete results", role: user.RoleStaff, res: school.ResourceResult, op: OpDelete, want: Denied},
		{name: "staff reads students scoped", role: user.RoleStaff, res: school.ResourceStudent, op: OpRead, want: AllowedScoped},
		{name: "staff cannot touch fee payments", role: user.RoleStaff, res: school.ResourceFeePayment, op: OpList, want: Denied},
		{name: "staff cannot write reference data", role: user.RoleStaff, res: school.ResourceClass, op: OpCreate, want: Denied},

		{name: "student reads own results scoped", role: user.RoleStudent, res: school.ResourceResult, op: OpRead, want: AllowedScoped},
		{name: "student reads own fees scoped", role: user.RoleStudent, res: school.ResourceFeePayment, op: OpList, want: AllowedScoped},
		{name: "student cannot list staff", role: user.RoleStudent, res: school.ResourceStaff, op: OpList, want: Denied},
		{name: "student cannot list parents", role: user.RoleStudent, res: school.ResourceParent, op: OpList, want: Denied},

		{name: "parent reads children results scoped", role: user.RoleParent, res: school.ResourceResult, op: OpList, want: AllowedScoped},
		{name: "parent reads own profile scoped", role: user.RoleParent, res: school.ResourceParent, op: OpRead, want: AllowedScoped},
		{name: "parent cannot read other staff", role: user.RoleParent, res: school.ResourceStaff, op: OpRead, want: Denied},

		{name: "unknown role is denied", role: "superuser", res: school.ResourceResult, op: OpList, want: Denied},
		{name: "empty role is denied", role: "", res: school.ResourceClass, op: OpRead, want: Denied},
		{name: "unknown resource is denied", role: user.RoleAdmin, res: school.Resource("exam"), op: OpList, want: Denied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Authorize(tt.role, tt.res, tt.op); got != tt.want {
				t.Errorf("Authorize(%s, %s, %s) = %v, want %v", tt.role, tt.res, tt.op, got, tt.want)
			}
		})
	}
}

// Every role × resource × operation not granted in the table must be denied;
// sample the full cross product to catch accidental widening.
func TestAuthorize_failsClosed(t *testing.T) {
	writes := []Operation{OpCreate, OpUpdate, OpDelete}

	// students and parents can never write anything
	for _, role := range []string{user.RoleStudent, user.RoleParent} {
		for _, res := range school.Resources {
			for _, op := range writes {
				if got := Authorize(role, res, op); got != Denied {
					t.Errorf("Authorize(%s, %s, %s) = %v, want Denied", role, res, op, got)
				}
			}
		}
	}

	// nobody but admin deletes retained records
	for _, role := range []string{user.RoleManagement, user.RoleStaff, user.RoleStudent, user.RoleParent} {
		for _, res := range school.Resources {
			if !res.Retained() {
				continue
			}
			if got := Authorize(role, res, OpDelete); got != Denied {
				t.Errorf("Authorize(%s, %s, delete) = %v, want Denied", role, res, got)
			}
		}
	}
}
