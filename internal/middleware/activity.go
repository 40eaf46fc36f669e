package middleware

import (
	"log"

	"github.com/gin-gonic/gin"

	"til-service/internal/repositories"
)

// ActivityMiddleware refreshes the caller's passive last-seen timestamp
// on every authenticated request. Failures are logged, never surfaced:
// last-activity is advisory and the time-decay presence fallback bounds
// its staleness anyway.
func ActivityMiddleware(profiles repositories.ProfileRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := c.GetInt("userID"); userID != 0 {
			if err := profiles.TouchActivity(c.Request.Context(), userID); err != nil {
				log.Printf("touch activity failed user_id=%d: %v", userID, err)
			}
		}
		c.Next()
	}
}
