package http

import (
	"crypto/subtle"
	"net/http"
	"time"

	"dilemma-survey-service/internal/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig holds the transport-level settings.
type RouterConfig struct {
	AllowedOrigins []string
	AdminToken     string
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(api *APIHandler, ws *WSHandler, log *logger.Logger, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(log))
	r.Use(gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Admin-Token"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	decisions := r.Group("/decisions")
	decisions.POST("/initial", api.SubmitInitialChoice)
	decisions.POST("/final", api.SubmitFinalChoice)

	stats := r.Group("/statistics")
	stats.GET("/paths/:name", api.PathStats)
	stats.GET("/answers", api.TotalCompleted)
	stats.GET("/answers/:name", api.CompletedCount)

	r.GET("/dilemmas", api.ListDilemmas)
	r.GET("/dilemmas/:name", api.GetDilemma)

	users := r.Group("/users")
	users.POST("", api.RegisterUser)
	users.GET("/:clientUuid", api.GetUser)
	users.GET("/:clientUuid/decisions", api.ListUserDecisions)

	admin := r.Group("/admin", requireAdminToken(cfg.AdminToken))
	admin.PATCH("/dilemmas/:name", api.UpdateDilemma)

	r.GET("/ws/statistics", gin.WrapF(ws.ServeWS))

	return r
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http_request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// requireAdminToken rejects requests whose X-Admin-Token header does not
// match. An empty configured token disables the admin routes entirely.
func requireAdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-Admin-Token")
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			respondError(c, http.StatusUnauthorized, "unauthorized", "admin token required")
			return
		}
		c.Next()
	}
}
