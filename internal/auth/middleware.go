package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RequireSession gates protected routes. It extracts the access-token
// cookie, redeems it, and injects the recovered identity into the
// request context. Every request re-verifies; there is no verification
// cache, so a stale identity can never outlive its token.
//
// All failure modes produce the same 401 body.
func RequireSession(tokens *TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		envelope, err := c.Cookie(AccessCookie)
		if err != nil || envelope == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		identity, err := tokens.RedeemAccess(envelope, time.Now())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		ctx := WithIdentity(c.Request.Context(), identity.UserID, identity.Username)
		c.Request = c.Request.WithContext(ctx)

		// Also store on gin context for handler convenience.
		c.Set("user_id", identity.UserID)
		c.Set("username", identity.Username)

		c.Next()
	}
}
