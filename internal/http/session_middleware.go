package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"account-service/internal/domain"
	"account-service/internal/service"
)

const sessionIdentityKey = "session_identity"

// RequireSession valida la cookie de sesion y guarda la identidad en el contexto.
func RequireSession(logger *zap.Logger, auth *service.AuthService, cookie CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sessions not configured"})
			c.Abort()
			return
		}

		identity, err := auth.Identify(c.Request.Context(), readSessionCookie(c, cookie))
		if err != nil {
			if !errors.Is(err, service.ErrUnauthorized) {
				logger.Error("resolve session failed", zap.Error(err))
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		c.Set(sessionIdentityKey, identity)
		c.Next()
	}
}

// GetSessionIdentity obtiene la identidad del llamador desde el contexto.
func GetSessionIdentity(c *gin.Context) (domain.SessionIdentity, bool) {
	val, ok := c.Get(sessionIdentityKey)
	if !ok {
		return domain.SessionIdentity{}, false
	}
	identity, ok := val.(domain.SessionIdentity)
	return identity, ok
}
