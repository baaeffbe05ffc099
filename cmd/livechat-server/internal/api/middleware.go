package api

import (
	"context"
	"time"

	"github.com/coregx/livechat"
	"github.com/gin-gonic/gin"
)

const userIDKey = "livechat.userID"

// Authenticator resolves the Authorization header to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, authorization string) (*livechat.Identity, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the caller's user id on the context.
func (h *Handler) AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := auth.Authenticate(c.Request.Context(), c.GetHeader(livechat.AuthorizationHeader))
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.Set(userIDKey, identity.UserID())
		c.Next()
	}
}

// AccessLog logs every request through the livechat logger.
func AccessLog(logger livechat.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Infof("%s %s %d %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func userID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
