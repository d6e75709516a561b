package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"resilinked/backend/config"
	"resilinked/backend/internal/api/handler"
	"resilinked/backend/internal/api/middleware"
	"resilinked/backend/pkg/jwt"
	"resilinked/backend/pkg/redis"
)

// Setup builds the gin engine. rdb may be nil when Redis is unavailable.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── health ──
	r.GET("/health", h.Health.Check)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger))
	{
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
		{
			// notifications; ":id" == "all" selects the bulk transitions
			notifications := authorized.Group("/notifications")
			{
				notifications.POST("", h.Notification.CreateNotification)
				notifications.GET("", h.Notification.ListNotifications)
				notifications.PATCH("/:id/read", h.Notification.MarkRead)
				notifications.PATCH("/:id/seen", h.Notification.MarkSeen)
				notifications.DELETE("/:id", h.Notification.DeleteNotification)
			}
		}
	}

	return r
}
