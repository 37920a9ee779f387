package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/haircut-booking/internal/domain/identity"
	"github.com/BruksfildServices01/haircut-booking/internal/httperr"
	"github.com/BruksfildServices01/haircut-booking/internal/logging"
)

const ContextCaller = "caller"

// TokenVerifier turns a bearer token into the caller's identity.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*identity.Caller, error)
}

func AuthMiddleware(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httperr.Unauthorized(c, "missing_token")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			httperr.Unauthorized(c, "invalid_token")
			return
		}

		caller, err := v.VerifyToken(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			httperr.Respond(c, err)
			return
		}

		c.Set(ContextCaller, *caller)
		c.Set(logging.ContextCallerUID, caller.UID)

		c.Next()
	}
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok || !caller.IsAdmin {
			httperr.Forbidden(c, "not_authorized")
			return
		}
		c.Next()
	}
}

func CallerFrom(c *gin.Context) (identity.Caller, bool) {
	v, ok := c.Get(ContextCaller)
	if !ok {
		return identity.Caller{}, false
	}
	caller, ok := v.(identity.Caller)
	return caller, ok
}
