package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"receiptbook/api/internal/authz"
)

// ErrResourceNotFound lets an OwnerResolver signal a missing target;
// the gate answers 404 instead of 403 in that case.
var ErrResourceNotFound = errors.New("resource not found")

// OwnerResolver maps the request's target resource to its creator's
// user id.
type OwnerResolver func(c *gin.Context) (int64, error)

// Requirement declares what a protected capability needs. It is data
// interpreted uniformly by Require, not a bespoke checker per route.
type Requirement struct {
	Permission authz.Permission
	Owner      OwnerResolver
}

// Require enforces a Requirement against the identity resolved by Auth.
// Denial is 403 and is deliberately distinct from the 401s Auth
// produces, so callers can tell "re-login" from "access denied".
func Require(req Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, roles, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		if req.Owner == nil {
			if !authz.Require(user, roles, req.Permission) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission_denied"})
				return
			}
			c.Next()
			return
		}

		ownerID, err := req.Owner(c)
		if err != nil {
			if errors.Is(err, ErrResourceNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not_found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "owner_lookup_failed"})
			return
		}

		if !authz.RequireOwned(user, roles, req.Permission, ownerID) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission_denied"})
			return
		}

		c.Next()
	}
}
