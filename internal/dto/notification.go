package dto

import "time"

// ── notification DTO ──

// CreateNotificationRequest create notification request.
// Required fields are checked by the service so the error names the field.
type CreateNotificationRequest struct {
	Recipient string `json:"recipient"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
}

// NotificationListRequest list query parameters.
// AutoMarkSeen is false unless the caller sends it.
type NotificationListRequest struct {
	Type         string `form:"type"`
	IsRead       *bool  `form:"isRead"`
	Page         int    `form:"page"`
	Limit        int    `form:"limit"`
	AutoMarkSeen bool   `form:"autoMarkSeen"`
}

// NotificationResponse a notification as returned to its recipient
type NotificationResponse struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Sender    *string   `json:"sender,omitempty"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	IsSeen    bool      `json:"isSeen"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationListResponse one page plus counts
type NotificationListResponse struct {
	Items       []NotificationResponse
	Total       int64
	UnreadCount int64
	UnseenCount int64
	Page        int
	Limit       int
	Pages       int
}

// BulkUpdateResponse result of a mark-all operation
type BulkUpdateResponse struct {
	UpdatedCount int64 `json:"updatedCount"`
}

// DeletedNotificationResponse confirmation of a delete
type DeletedNotificationResponse struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	MessagePreview string `json:"messagePreview"`
}
