package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response unified envelope shared by every endpoint
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
	Message string      `json:"message,omitempty"`
	Alert   string      `json:"alert,omitempty"`
	Field   string      `json:"field,omitempty"`
}

// Pagination page metadata
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// Meta list metadata
type Meta struct {
	Total       int64      `json:"total"`
	UnreadCount int64      `json:"unreadCount"`
	UnseenCount int64      `json:"unseenCount"`
	Pagination  Pagination `json:"pagination"`
}

// ── success ──

// OK 200
func OK(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// Created 201
func Created(c *gin.Context, data interface{}, message, alert string) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
		Message: message,
		Alert:   alert,
	})
}

// OKList 200 with list metadata
func OKList(c *gin.Context, data interface{}, meta Meta, alert string) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
		Meta:    &meta,
		Alert:   alert,
	})
}

// OKAlert 200 carrying a user-facing alert
func OKAlert(c *gin.Context, data interface{}, message, alert string) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
		Message: message,
		Alert:   alert,
	})
}

// ── errors ──

// Error generic failure
func Error(c *gin.Context, httpStatus int, message, alert string) {
	c.JSON(httpStatus, Response{
		Success: false,
		Message: message,
		Alert:   alert,
	})
}

// ── shortcuts ──

// BadRequest 400
func BadRequest(c *gin.Context, message, alert string) {
	Error(c, http.StatusBadRequest, message, alert)
}

// ValidationFailed 400 naming the offending field
func ValidationFailed(c *gin.Context, field, message, alert string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Message: message,
		Alert:   alert,
		Field:   field,
	})
}

// Unauthorized 401
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message, "Please log in again")
}

// NotFound 404
func NotFound(c *gin.Context, message, alert string) {
	Error(c, http.StatusNotFound, message, alert)
}

// TooManyRequests 429
func TooManyRequests(c *gin.Context) {
	Error(c, http.StatusTooManyRequests, "Too many requests", "Please slow down and try again shortly")
}

// InternalError 500
func InternalError(c *gin.Context, message, alert string) {
	if message == "" {
		message = "Internal server error"
	}
	if alert == "" {
		alert = "Something went wrong, please try again"
	}
	Error(c, http.StatusInternalServerError, message, alert)
}
