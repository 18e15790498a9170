package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"medassist/internal/config"
	"medassist/internal/db"
	"medassist/internal/enrollment"
	"medassist/internal/reconcile"
	"medassist/internal/ws"
)

func NewRouter(database *db.DB, coordinator *reconcile.Coordinator, enrollments *enrollment.Service, registry *ws.Manager, logger *logrus.Logger, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	h := NewHandler(database, coordinator, enrollments, registry, logger)
	api := r.Group(cfg.API.BasePath)
	{
		// Reconciliation
		api.POST("/reconcile/:user_id", h.Reconcile)

		// Notifications
		api.GET("/notifications/programs/:user_id", h.GetProgramNotifications)
		api.GET("/notifications/refills/:user_id", h.GetRefillNotifications)
		api.POST("/notifications/programs/read", h.MarkProgramNotificationsRead)
		api.POST("/notifications/refills/read", h.MarkRefillNotificationsRead)

		// Enrollments
		api.POST("/enrollments/enroll", h.Enroll)
		api.POST("/enrollments/status", h.SetEnrollmentStatus)

		// Refills
		api.POST("/refills/complete", h.CompleteRefills)

		// Push subscriptions
		api.POST("/push/subscriptions", h.RegisterPushSubscription)
		api.DELETE("/push/subscriptions/:user_id", h.DeletePushSubscriptions)

		// WebSocket presentation channel
		api.GET("/ws/:user_id", h.WebSocket)

		api.GET("/health", h.Health)
	}
	return r
}
