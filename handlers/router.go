package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"checkin-backend/telemetry"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	JWTSecret   []byte
	IsAdmin     func(email string) bool
	CORSOrigins []string
	DB          Pinger
}

func NewRouter(cfg RouterConfig, eventHandler *EventHandler, credentialHandler *CredentialHandler, checkinHandler *CheckinHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(telemetry.MetricsMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(corsConfig))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
		})
	})
	router.GET("/health/db", func(c *gin.Context) {
		if err := cfg.DB.Ping(c); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database connection failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "Database connection OK"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(Authenticate(cfg.JWTSecret))
	{
		api.GET("/events", eventHandler.GetEvents)
		api.GET("/events/:id", eventHandler.GetEvent)

		api.POST("/checkin", checkinHandler.CheckIn)
		api.GET("/me/checkins", checkinHandler.GetMyCheckins)

		admin := api.Group("", RequireAdmin(cfg.IsAdmin))
		admin.GET("/events/:id/credential", credentialHandler.GetCredential)
		admin.POST("/events/:id/credential/rotate", credentialHandler.RotateCredential)
		admin.GET("/events/:id/checkins", checkinHandler.GetCheckins)
	}

	return router
}
