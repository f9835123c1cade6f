package config

import (
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"5000"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	DBMaxConns               int `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns               int `env:"DB_MIN_CONNS" envDefault:"1"`
	DBMaxConnLifetimeMinutes int `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"30"`
	DBMaxConnIdleMinutes     int `env:"DB_MAX_CONN_IDLE_MINUTES" envDefault:"5"`
	DBHealthCheckSeconds     int `env:"DB_HEALTH_CHECK_SECONDS" envDefault:"30"`
	DBConnectTimeoutSeconds  int `env:"DB_CONNECT_TIMEOUT_SECONDS" envDefault:"5"`

	SessionSecret       string `env:"SESSION_SECRET,required,notEmpty"`
	SessionTTLMinutes   int    `env:"SESSION_TTL_MINUTES" envDefault:"1440"`
	SessionCookieName   string `env:"SESSION_COOKIE_NAME" envDefault:"session"`
	SessionCookieSecure bool   `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	SessionCookieSite   string `env:"SESSION_COOKIE_SAMESITE" envDefault:"lax"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL" envDefault:"http://localhost:5000/auth/google/callback"`

	OAuthSuccessRedirect string `env:"OAUTH_SUCCESS_REDIRECT" envDefault:"http://localhost:5173/admin"`
	OAuthFailureRedirect string `env:"OAUTH_FAILURE_REDIRECT" envDefault:"/"`
	LogoutRedirect       string `env:"LOGOUT_REDIRECT" envDefault:"http://localhost:5173/login"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	BcryptCost             int `env:"BCRYPT_COST" envDefault:"10"`
	LoginRateWindowMinutes int `env:"LOGIN_RATE_WINDOW_MINUTES" envDefault:"15"`
	LoginRateMax           int `env:"LOGIN_RATE_MAX" envDefault:"10"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SessionTTL devuelve la duracion de la sesion; 24h si no es valida.
func (c *Config) SessionTTL() time.Duration {
	if c.SessionTTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// DBPoolSize devuelve max y min de conexiones; min nunca supera a max.
func (c *Config) DBPoolSize() (int32, int32) {
	maxConns := int32(c.DBMaxConns)
	if maxConns <= 0 {
		maxConns = 10
	}
	minConns := int32(c.DBMinConns)
	if minConns < 0 {
		minConns = 0
	}
	if minConns > maxConns {
		minConns = maxConns
	}
	return maxConns, minConns
}

func (c *Config) DBMaxConnLifetime() time.Duration {
	return positiveOr(c.DBMaxConnLifetimeMinutes, time.Minute, 30*time.Minute)
}

func (c *Config) DBMaxConnIdleTime() time.Duration {
	return positiveOr(c.DBMaxConnIdleMinutes, time.Minute, 5*time.Minute)
}

func (c *Config) DBHealthCheckPeriod() time.Duration {
	return positiveOr(c.DBHealthCheckSeconds, time.Second, 30*time.Second)
}

func (c *Config) DBConnectTimeout() time.Duration {
	return positiveOr(c.DBConnectTimeoutSeconds, time.Second, 5*time.Second)
}

func positiveOr(n int, unit, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * unit
}

func (c *Config) LoginRateWindow() time.Duration {
	if c.LoginRateWindowMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.LoginRateWindowMinutes) * time.Minute
}

// SameSite traduce SESSION_COOKIE_SAMESITE al valor de net/http.
func (c *Config) SameSite() http.SameSite {
	switch strings.ToLower(strings.TrimSpace(c.SessionCookieSite)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// GoogleEnabled indica si hay credenciales OAuth de Google.
func (c *Config) GoogleEnabled() bool {
	return strings.TrimSpace(c.GoogleClientID) != "" && strings.TrimSpace(c.GoogleClientSecret) != ""
}
