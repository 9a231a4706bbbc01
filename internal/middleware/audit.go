package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/markaz-annoor/annoor-api/internal/models"
)

type auditStore interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Audit writes an audit row after mutating requests succeed. The write
// happens outside the request context so a slow insert cannot delay the
// response.
func Audit(store auditStore, action, resource string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		entry := &models.AuditLog{
			Action:    action,
			Resource:  resource,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			CreatedAt: time.Now().UTC(),
		}
		if claims := currentClaims(c); claims != nil {
			userID := claims.UserID
			entry.UserID = &userID
		}
		if id := c.Param("id"); id != "" {
			resourceID := id
			entry.ResourceID = &resourceID
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.CreateAuditLog(ctx, entry); err != nil {
				logger.Warn("audit log write failed",
					zap.String("action", action),
					zap.String("resource", resource),
					zap.Error(err))
			}
		}()
	}
}
