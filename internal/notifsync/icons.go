package notifsync

import "resilinked/backend/internal/model"

// Icon display glyph for a notification type
func Icon(notificationType string) string {
	switch model.NotificationType(notificationType) {
	case model.NotificationJobApplied:
		return "📄"
	case model.NotificationJobAssigned:
		return "🔔"
	case model.NotificationJobCompleted:
		return "✅"
	case model.NotificationPayment:
		return "💰"
	case model.NotificationGoalCreated:
		return "🎯"
	case model.NotificationGoalCompleted:
		return "🏆"
	case model.NotificationRating:
		return "⭐"
	case model.NotificationMessage:
		return "✉️"
	case model.NotificationAdmin:
		return "⚠️"
	default:
		return "🔔"
	}
}
