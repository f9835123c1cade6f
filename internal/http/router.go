package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"account-service/internal/service"
)

const oauthStateCookie = "oauth_state"

// RouterConfig agrupa los parametros HTTP que no pertenecen a un handler.
type RouterConfig struct {
	AllowedOrigins []string
	StateSecret    string
	Cookie         CookieConfig
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	cfg RouterConfig,
	auth *service.AuthService,
	userH *UserHandler,
	authH *AuthHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging y recovery.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "API is running")
	})

	gate := RequireSession(logger, auth, cfg.Cookie)
	api := r.Group("", jsonContentTypeMiddleware())

	api.POST("/register", userH.Register)
	api.POST("/login", userH.Login)
	api.GET("/profile", gate, authH.Profile)

	users := api.Group("/users")
	users.POST("/register", userH.Register)
	users.POST("/login", userH.Login)
	users.GET("", gate, userH.ListUsers)
	users.GET("/:id", gate, userH.GetUser)
	users.PUT("/:id", gate, userH.UpdateUser)
	users.DELETE("/:id", gate, userH.DeleteUser)

	// El state de OAuth vive en una cookie firmada aparte, solo bajo /auth.
	store := cookie.NewStore([]byte(cfg.StateSecret))
	store.Options(sessions.Options{
		Path:     "/auth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   cfg.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	oauthGroup := r.Group("/auth", sessions.Sessions(oauthStateCookie, store))
	oauthGroup.GET("/google", authH.GoogleLogin)
	oauthGroup.GET("/google/callback", authH.GoogleCallback)
	oauthGroup.GET("/external", authH.GoogleLogin)
	oauthGroup.GET("/external/callback", authH.GoogleCallback)

	r.GET("/logout", authH.Logout)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
