package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"receiptbook/api/internal/config"
)

// LoginRateLimit throttles credential checks with a fixed window per
// client IP. Redis being down only logs; login availability wins over
// throttling.
func LoginRateLimit(cfg config.RateLimitConfig, rdb *redis.Client, log zerolog.Logger) gin.HandlerFunc {
	if !cfg.Enabled || rdb == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := fmt.Sprintf("rl:login:%s", c.ClientIP())
		ctx := c.Request.Context()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Warn().Err(err).Msg("login rate limit unavailable")
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(ctx, key, cfg.LoginWindow)
		}

		if count > int64(cfg.LoginAttempts) {
			c.Header("Retry-After", fmt.Sprintf("%d", int(cfg.LoginWindow.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too_many_attempts"})
			return
		}

		c.Next()
	}
}
