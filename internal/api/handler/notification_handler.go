package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"resilinked/backend/internal/dto"
	"resilinked/backend/internal/service"
	pkgerrors "resilinked/backend/pkg/errors"
	"resilinked/backend/pkg/response"
)

// allNotificationsID path id that selects the bulk variant of a transition
const allNotificationsID = "all"

// failureText per-operation wording for failed requests
type failureText struct {
	message       string
	alert         string
	notFoundAlert string
}

var (
	createFailure = failureText{message: "Error creating notification", alert: "Failed to send notification"}
	listFailure   = failureText{message: "Error fetching notifications", alert: "Failed to load notifications"}
	readFailure   = failureText{message: "Error updating notification", alert: "Failed to update notification status", notFoundAlert: "Notification not found"}
	seenFailure   = failureText{message: "Error updating notification seen status", alert: "Failed to update notification seen status", notFoundAlert: "Notification not found"}
	deleteFailure = failureText{message: "Error deleting notification", alert: "Failed to delete notification", notFoundAlert: "Notification not found or already deleted"}
)

// NotificationHandler notification HTTP handlers; the caller is always the recipient
type NotificationHandler struct {
	notificationSvc service.NotificationService
}

// NewNotificationHandler creates a NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// CreateNotification sends a notification to a recipient; the caller is the sender
// POST /api/v1/notifications
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	n, err := h.notificationSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleNotificationError(c, err, createFailure)
		return
	}

	response.Created(c, n, "Notification sent successfully", "Message sent to user successfully")
}

// ListNotifications lists the caller's notifications
// GET /api/v1/notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	var req dto.NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ValidationFailed(c, "", "Invalid query parameters", "Please check the notification filters")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.notificationSvc.List(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleNotificationError(c, err, listFailure)
		return
	}

	alert := "No new notifications"
	if result.UnreadCount > 0 {
		alert = fmt.Sprintf("You have %d unread notifications", result.UnreadCount)
	}

	response.OKList(c, result.Items, response.Meta{
		Total:       result.Total,
		UnreadCount: result.UnreadCount,
		UnseenCount: result.UnseenCount,
		Pagination: response.Pagination{
			Page:  result.Page,
			Limit: result.Limit,
			Pages: result.Pages,
		},
	}, alert)
}

// MarkRead marks one notification read, or all of them when id is "all"
// PATCH /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == allNotificationsID {
		result, err := h.notificationSvc.MarkAllRead(c.Request.Context(), callerID)
		if err != nil {
			h.handleNotificationError(c, err, readFailure)
			return
		}
		response.OKAlert(c, result, "All notifications marked as read",
			fmt.Sprintf("Marked %d notifications as read", result.UpdatedCount))
		return
	}

	n, err := h.notificationSvc.MarkRead(c.Request.Context(), callerID, id)
	if err != nil {
		h.handleNotificationError(c, err, readFailure)
		return
	}

	response.OKAlert(c, n, "Notification marked as read", "Notification marked as read")
}

// MarkSeen marks one notification seen, or all of them when id is "all"
// PATCH /api/v1/notifications/:id/seen
func (h *NotificationHandler) MarkSeen(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == allNotificationsID {
		result, err := h.notificationSvc.MarkAllSeen(c.Request.Context(), callerID)
		if err != nil {
			h.handleNotificationError(c, err, seenFailure)
			return
		}
		response.OKAlert(c, result, "All notifications marked as seen",
			fmt.Sprintf("Marked %d notifications as seen", result.UpdatedCount))
		return
	}

	n, err := h.notificationSvc.MarkSeen(c.Request.Context(), callerID, id)
	if err != nil {
		h.handleNotificationError(c, err, seenFailure)
		return
	}

	response.OKAlert(c, n, "Notification marked as seen", "Notification marked as seen")
}

// DeleteNotification permanently deletes one of the caller's notifications
// DELETE /api/v1/notifications/:id
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	deleted, err := h.notificationSvc.Delete(c.Request.Context(), callerID, c.Param("id"))
	if err != nil {
		h.handleNotificationError(c, err, deleteFailure)
		return
	}

	response.OKAlert(c, deleted, "Notification deleted", "Notification deleted")
}

func (h *NotificationHandler) handleBindError(c *gin.Context, err error) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		response.Error(c, http.StatusRequestEntityTooLarge, "Request body too large", "The request is too large")
		return
	}
	response.BadRequest(c, "Malformed request body", "Recipient, type, and message are required")
}

// handleNotificationError maps service errors onto HTTP responses
func (h *NotificationHandler) handleNotificationError(c *gin.Context, err error, text failureText) {
	if ve, ok := pkgerrors.AsValidation(err); ok {
		response.ValidationFailed(c, ve.Field, "Validation failed", ve.Message)
		return
	}

	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		alert := text.notFoundAlert
		if alert == "" {
			alert = "Notification not found"
		}
		response.NotFound(c, "Notification not found", alert)
	default:
		_ = c.Error(err)
		response.InternalError(c, text.message, text.alert)
	}
}
