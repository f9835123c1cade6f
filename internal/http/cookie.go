package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieConfig describe la cookie que transporta el token de sesion.
type CookieConfig struct {
	Name     string
	Secure   bool
	SameSite http.SameSite
	TTL      time.Duration
}

func (cfg CookieConfig) name() string {
	if cfg.Name == "" {
		return "session"
	}
	return cfg.Name
}

func setSessionCookie(c *gin.Context, cfg CookieConfig, token string) {
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(cfg.name(), token, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
}

func clearSessionCookie(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(cfg.name(), "", -1, "/", "", cfg.Secure, true)
}

func readSessionCookie(c *gin.Context, cfg CookieConfig) string {
	token, err := c.Cookie(cfg.name())
	if err != nil {
		return ""
	}
	return token
}
