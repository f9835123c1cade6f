package http

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"account-service/internal/domain"
	"account-service/internal/service"
)

const (
	oauthStateKey   = "state"
	oauthSessionKey = "provider_session"
)

// GoogleAuthenticator es el handshake OAuth con Google.
type GoogleAuthenticator interface {
	Configured() bool
	BeginAuth(state string) (authURL string, rawSession string, err error)
	CompleteAuth(ctx context.Context, rawSession string, params url.Values) (domain.ExternalProfile, error)
}

// RedirectConfig agrupa los destinos a los que vuelve el navegador.
type RedirectConfig struct {
	OAuthSuccess string
	OAuthFailure string
	Logout       string
}

// AuthHandler maneja login con Google, perfil y logout.
type AuthHandler struct {
	logger    *zap.Logger
	auth      *service.AuthService
	google    GoogleAuthenticator
	cookie    CookieConfig
	redirects RedirectConfig
}

func NewAuthHandler(logger *zap.Logger, auth *service.AuthService, google GoogleAuthenticator, cookie CookieConfig, redirects RedirectConfig) *AuthHandler {
	return &AuthHandler{
		logger:    logger,
		auth:      auth,
		google:    google,
		cookie:    cookie,
		redirects: redirects,
	}
}

// GoogleLogin maneja GET /auth/google.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.google == nil || !h.google.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google login not configured"})
		return
	}

	state := uuid.NewString()
	authURL, rawSession, err := h.google.BeginAuth(state)
	if err != nil {
		h.logger.Error("begin google auth failed", zap.Error(err))
		c.Redirect(http.StatusFound, h.redirects.OAuthFailure)
		return
	}

	sess := sessions.Default(c)
	sess.Set(oauthStateKey, state)
	sess.Set(oauthSessionKey, rawSession)
	if err := sess.Save(); err != nil {
		h.logger.Error("save oauth state failed", zap.Error(err))
		c.Redirect(http.StatusFound, h.redirects.OAuthFailure)
		return
	}

	c.Redirect(http.StatusFound, authURL)
}

// GoogleCallback maneja GET /auth/google/callback.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	sess := sessions.Default(c)
	state, _ := sess.Get(oauthStateKey).(string)
	rawSession, _ := sess.Get(oauthSessionKey).(string)
	sess.Delete(oauthStateKey)
	sess.Delete(oauthSessionKey)
	if err := sess.Save(); err != nil {
		h.logger.Warn("clear oauth state failed", zap.Error(err))
	}

	if h.google == nil || !h.google.Configured() {
		c.Redirect(http.StatusFound, h.redirects.OAuthFailure)
		return
	}
	if state == "" || c.Query("state") != state {
		h.logger.Warn("oauth state mismatch")
		c.Redirect(http.StatusFound, h.redirects.OAuthFailure)
		return
	}
	if providerErr := c.Query("error"); providerErr != "" {
		h.logger.Info("google auth denied", zap.String("error", providerErr))
		c.Redirect(http.StatusFound, h.redirects.OAuthFailure)
		return
	}

	profile, err := h.google.CompleteAuth(c.Request.Context(), rawSession, c.Request.URL.Query())
	if err != nil {
		h.logger.Warn("complete google auth failed", zap.Error(err))
		c.Redirect(http.StatusFound, h.redirects.OAuthFailure)
		return
	}

	res, err := h.auth.GoogleLogin(c.Request.Context(), profile)
	if err != nil {
		h.logger.Warn("google login failed", zap.Error(err))
		c.Redirect(http.StatusFound, h.redirects.OAuthFailure)
		return
	}

	setSessionCookie(c, h.cookie, res.Token)
	c.Redirect(http.StatusFound, h.redirects.OAuthSuccess)
}

// Profile maneja GET /profile.
func (h *AuthHandler) Profile(c *gin.Context) {
	identity, ok := GetSessionIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, identity)
}

// Logout maneja GET /logout. Siempre termina en el redirect configurado.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), readSessionCookie(c, h.cookie)); err != nil {
		h.logger.Error("revoke session failed", zap.Error(err))
	}
	clearSessionCookie(c, h.cookie)
	c.Redirect(http.StatusFound, h.redirects.Logout)
}
