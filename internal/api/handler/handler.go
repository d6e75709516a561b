package handler

import "resilinked/backend/internal/service"

// Handler aggregate of every handler
type Handler struct {
	Notification *NotificationHandler
	Health       *HealthHandler
}

// NewHandler creates the Handler aggregate. cache is the optional Redis
// connection reported by /health.
func NewHandler(svc *service.Service, cache Pinger) *Handler {
	return &Handler{
		Notification: NewNotificationHandler(svc.Notification),
		Health:       NewHealthHandler(svc.Notification, cache),
	}
}
