package middleware

import (
	"log/slog"

	"phone_auth/internal/reqctx"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDMiddleware takes the client's X-Request-Id or generates one, echoes it back,
// and puts it plus a logger tagged with it into the request context.
func RequestIDMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(reqctx.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Header(reqctx.HeaderXRequestID, requestID)

		reqLogger := logger.With(slog.String("request_id", requestID))
		ctx := reqctx.WithRequestID(c.Request.Context(), requestID)
		ctx = reqctx.WithLogger(ctx, reqLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
