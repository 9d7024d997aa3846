package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"receiptbook/api/internal/config"
	"receiptbook/api/internal/models"
	"receiptbook/api/internal/security"
)

// Context keys populated by Auth for downstream handlers. The user is
// resolved exactly once per request and passed explicitly through the
// gin context; nothing downstream re-reads the token.
const (
	ContextUser   = "current_user"
	ContextRoles  = "current_roles"
	ContextClaims = "access_claims"
)

// UserResolver is the slice of the credential store the gate needs to
// turn a token subject into a live identity.
type UserResolver interface {
	FindByUsername(ctx context.Context, username string) (models.User, error)
	GetRoles(ctx context.Context, userID int64) ([]string, error)
}

// Auth rejects the request (401) when the bearer token is missing,
// malformed, expired, or names a user that no longer exists or is
// inactive. Authorization failures are handled separately by Require
// and answer 403.
func Auth(cfg *config.AppConfig, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ParseAccessToken(tokenStr, cfg.Security.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		// Resolve the subject to a live row instead of trusting the
		// claims: deactivation takes effect here even while the token
		// is cryptographically valid.
		user, err := users.FindByUsername(c.Request.Context(), claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_not_found"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_inactive"})
			return
		}

		roles, err := users.GetRoles(c.Request.Context(), user.ID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "role_lookup_failed"})
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextRoles, roles)
		c.Set(ContextClaims, *claims)

		c.Next()
	}
}

// CurrentUser returns the identity resolved by Auth.
func CurrentUser(c *gin.Context) (models.User, []string, bool) {
	userVal, ok := c.Get(ContextUser)
	if !ok {
		return models.User{}, nil, false
	}
	user, ok := userVal.(models.User)
	if !ok {
		return models.User{}, nil, false
	}

	rolesVal, _ := c.Get(ContextRoles)
	roles, _ := rolesVal.([]string)
	return user, roles, true
}
