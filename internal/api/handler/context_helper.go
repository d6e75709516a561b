package handler

import (
	"github.com/gin-gonic/gin"

	"resilinked/backend/pkg/response"
)

// MustGetUserID reads the caller id injected by JWTAuth.
// On failure it writes a 401 and returns false; callers return immediately.
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, "Not authenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, "Not authenticated")
		return "", false
	}
	return s, true
}
