package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resilinked/backend/pkg/response"
)

// Pinger anything that can report whether its backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler liveness endpoint
type HealthHandler struct {
	store Pinger
	cache Pinger // optional
}

// NewHealthHandler creates a HealthHandler; cache may be nil
func NewHealthHandler(store, cache Pinger) *HealthHandler {
	return &HealthHandler{store: store, cache: cache}
}

// Check pings the active store. Redis is reported but never fails the check.
// GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		response.Error(c, http.StatusServiceUnavailable, "Store unavailable", "Service is temporarily unavailable")
		return
	}

	cacheStatus := "disabled"
	if h.cache != nil {
		cacheStatus = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			cacheStatus = "unavailable"
		}
	}

	response.OK(c, gin.H{"status": "ok", "redis": cacheStatus}, "healthy")
}
