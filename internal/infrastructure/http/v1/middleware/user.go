package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "pharmstock/internal/core/context"
	"pharmstock/internal/core/id"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
)

// User extracts the acting user from request headers and adds it to the
// request context. Authentication happens upstream; this service only needs
// the identity for transfer and home-use audit trails.
func User() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderUserID)
		if raw != "" {
			if userID, err := id.Parse(raw); err == nil {
				ctx := appctx.WithUser(c.Request.Context(), &appctx.UserContext{
					UserID: userID,
					Name:   c.GetHeader(HeaderUserName),
				})
				c.Request = c.Request.WithContext(ctx)
			}
		}
		c.Next()
	}
}
