package service

import (
	"go.uber.org/zap"

	"resilinked/backend/config"
	"resilinked/backend/internal/repository"
)

// Service aggregate of every service
type Service struct {
	Notification NotificationService
}

// NewService creates the Service aggregate
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	logger *zap.Logger,
) *Service {
	return &Service{
		Notification: NewNotificationService(repo, &cfg.Notification, logger),
	}
}
