// Package authz resolves effective permissions from role assignments
// and enforces permission and ownership checks. It performs no I/O;
// every decision is a pure function of the user flags, the assigned
// role names, and the static role-permission matrix.
package authz

import "receiptbook/api/internal/models"

// EffectivePermissions returns the union of permissions over all
// assigned roles. A superuser holds the full permission universe
// regardless of assignments.
func EffectivePermissions(user models.User, roles []string) map[Permission]struct{} {
	perms := make(map[Permission]struct{})
	if user.IsSuperuser {
		for _, p := range AllPermissions {
			perms[p] = struct{}{}
		}
		return perms
	}
	for _, role := range roles {
		for _, p := range rolePermissions[role] {
			perms[p] = struct{}{}
		}
	}
	return perms
}

// Require reports whether the user may exercise perm.
func Require(user models.User, roles []string, perm Permission) bool {
	if user.IsSuperuser {
		return true
	}
	_, ok := EffectivePermissions(user, roles)[perm]
	return ok
}

// RequireOwned is Require plus the ownership constraint: when the only
// source of perm in the user's role set is the ownership-constrained
// role, the user must be the creator of the target resource. A user
// also holding an unconstrained-granting role (or the superuser flag)
// passes without the ownership check.
func RequireOwned(user models.User, roles []string, perm Permission, resourceOwnerID int64) bool {
	if user.IsSuperuser {
		return true
	}

	granted := false
	unconstrained := false
	for _, role := range roles {
		for _, p := range rolePermissions[role] {
			if p != perm {
				continue
			}
			granted = true
			if role != OwnershipRole {
				unconstrained = true
			}
		}
	}

	if !granted {
		return false
	}
	if unconstrained {
		return true
	}
	return resourceOwnerID == user.ID
}
