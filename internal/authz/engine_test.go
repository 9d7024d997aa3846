package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"receiptbook/api/internal/models"
)

func TestEffectivePermissionsUnion(t *testing.T) {
	user := models.User{ID: 7}
	perms := EffectivePermissions(user, []string{"receipt_report_viewer", "receipt_creator"})

	// Union of both roles, nothing more.
	for _, p := range []Permission{PermReadReceipts, PermExportReceipts, PermCreateReceipts, PermUpdateReceipts, PermDeleteReceipts} {
		assert.Contains(t, perms, p)
	}
	assert.Len(t, perms, 5)
	assert.NotContains(t, perms, PermManageUsers)
}

func TestEffectivePermissionsSuperuser(t *testing.T) {
	user := models.User{ID: 1, IsSuperuser: true}
	perms := EffectivePermissions(user, nil)
	assert.Len(t, perms, len(AllPermissions))
}

func TestEffectivePermissionsUnknownRole(t *testing.T) {
	user := models.User{ID: 7}
	perms := EffectivePermissions(user, []string{"made_up_role"})
	assert.Empty(t, perms)
}

func TestRequire(t *testing.T) {
	cases := []struct {
		name  string
		roles []string
		perm  Permission
		want  bool
	}{
		{"viewer can read", []string{"user_data_viewer"}, PermReadUserData, true},
		{"viewer cannot write", []string{"user_data_viewer"}, PermUpdateUserData, false},
		{"editor can write", []string{"user_data_editor"}, PermUpdateUserData, true},
		{"editor cannot manage users", []string{"user_data_editor"}, PermManageUsers, false},
		{"admin can manage users", []string{"admin"}, PermManageUsers, true},
		{"no roles grants nothing", nil, PermReadUserData, false},
		{"duplicated role is harmless", []string{"user_data_viewer", "user_data_viewer"}, PermReadUserData, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Require(models.User{ID: 7}, tc.roles, tc.perm))
		})
	}
}

func TestRequireSuperuserBypass(t *testing.T) {
	su := models.User{ID: 9, IsSuperuser: true}
	for _, p := range AllPermissions {
		assert.True(t, Require(su, nil, p), "superuser denied %s", p)
	}
	assert.True(t, RequireOwned(su, nil, PermDeleteReceipts, 12345))
}

func TestRequireOwnedOwnershipConstraint(t *testing.T) {
	creator := models.User{ID: 10}

	// A receipt_creator may mutate only its own records.
	assert.True(t, RequireOwned(creator, []string{"receipt_creator"}, PermUpdateReceipts, 10))
	assert.False(t, RequireOwned(creator, []string{"receipt_creator"}, PermUpdateReceipts, 11))
	assert.False(t, RequireOwned(creator, []string{"receipt_creator"}, PermDeleteReceipts, 11))

	// The grant must exist at all before ownership matters.
	assert.False(t, RequireOwned(creator, []string{"receipt_creator"}, PermReadReceipts, 10))
	assert.False(t, RequireOwned(creator, nil, PermUpdateReceipts, 10))
}

func TestRequireOwnedUnconstrainedRoleWins(t *testing.T) {
	user := models.User{ID: 10}

	// admin grants the same permission without the ownership clause, so
	// holding both roles lifts the constraint entirely.
	assert.True(t, RequireOwned(user, []string{"receipt_creator", "admin"}, PermUpdateReceipts, 999))
	assert.True(t, RequireOwned(user, []string{"admin"}, PermDeleteReceipts, 999))
}

func TestRolePermissions(t *testing.T) {
	assert.ElementsMatch(t, AllPermissions, RolePermissions("admin"))
	assert.Empty(t, RolePermissions("nope"))
	assert.ElementsMatch(t,
		[]Permission{PermCreateReceipts, PermUpdateReceipts, PermDeleteReceipts},
		RolePermissions(OwnershipRole))
}
