package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rshade/planetzero/internal/engine"
	"github.com/rshade/planetzero/internal/logging"
)

const (
	authUserKey     = "auth_user_id"
	requestIDHeader = "X-Request-ID"
)

// RequestLogger attaches a request-scoped logger and trace ID to the request
// context and logs one line per request.
func RequestLogger(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		traceID := c.GetHeader(requestIDHeader)
		if traceID == "" {
			traceID = logging.NewTraceID()
		}
		c.Header(requestIDHeader, traceID)

		l := base.With().Str("trace_id", traceID).Str("component", "server").Logger()
		ctx := logging.ContextWithTraceID(c.Request.Context(), traceID)
		c.Request = c.Request.WithContext(l.WithContext(ctx))

		c.Next()

		status := c.Writer.Status()
		level := zerolog.InfoLevel
		switch {
		case status >= http.StatusInternalServerError:
			level = zerolog.ErrorLevel
		case status >= http.StatusBadRequest:
			level = zerolog.WarnLevel
		}
		l.WithLevel(level).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("user_id", c.GetString(authUserKey)).
			Msg("request")
	}
}

// RequireAuth validates the bearer token, makes sure the identity record
// exists and stores the user ID on the gin context.
func RequireAuth(tokens *TokenService, eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": "Invalid authorization format. Use: Bearer <token>"})
			return
		}

		claims, err := tokens.Validate(tokenString)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, ErrExpiredToken) {
				msg = "Token has expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		if _, err = eng.EnsureUser(c.Request.Context(), claims.Subject, claims.Name); err != nil {
			writeError(c, err)
			c.Abort()
			return
		}

		c.Set(authUserKey, claims.Subject)
		c.Next()
	}
}

// authUser returns the authenticated user ID.
func authUser(c *gin.Context) string {
	return c.GetString(authUserKey)
}
