package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"resilinked/backend/config"
	"resilinked/backend/internal/dto"
	"resilinked/backend/internal/model"
	"resilinked/backend/internal/repository"
	pkgerrors "resilinked/backend/pkg/errors"
)

// ── notification errors ──

var (
	ErrNotificationNotFound = fmt.Errorf("notification %w", pkgerrors.ErrNotFound)
)

const (
	defaultNotificationTitle = "Admin Message"
	defaultListLimit         = 10
	maxListLimit             = 100
	messagePreviewRunes      = 50
	maxListPage              = 100000

	// column widths of the notifications table
	maxRecipientRunes = 64
	maxSenderRunes    = 64
	maxTitleRunes     = 255
)

// NotificationEvent a domain event that results in a notification.
// Sender is nil for system-originated events.
type NotificationEvent struct {
	Recipient string
	Type      model.NotificationType
	Title     string
	Message   string
	Sender    *string
}

// NotificationService notification store operations, always scoped to a recipient
type NotificationService interface {
	Create(ctx context.Context, req *dto.CreateNotificationRequest, senderID string) (*dto.NotificationResponse, error)
	Notify(ctx context.Context, event NotificationEvent) (*dto.NotificationResponse, error)
	List(ctx context.Context, recipient string, req *dto.NotificationListRequest) (*dto.NotificationListResponse, error)
	MarkRead(ctx context.Context, recipient, id string) (*dto.NotificationResponse, error)
	MarkSeen(ctx context.Context, recipient, id string) (*dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context, recipient string) (*dto.BulkUpdateResponse, error)
	MarkAllSeen(ctx context.Context, recipient string) (*dto.BulkUpdateResponse, error)
	Delete(ctx context.Context, recipient, id string) (*dto.DeletedNotificationResponse, error)
	Ping(ctx context.Context) error
}

type notificationService struct {
	repo         *repository.Repository
	defaultTitle string
	defaultLimit int
	maxLimit     int
	logger       *zap.Logger
}

// NewNotificationService creates a NotificationService; a nil cfg uses the built-in limits
func NewNotificationService(repo *repository.Repository, cfg *config.NotificationConfig, logger *zap.Logger) NotificationService {
	s := &notificationService{
		repo:         repo,
		defaultTitle: defaultNotificationTitle,
		defaultLimit: defaultListLimit,
		maxLimit:     maxListLimit,
		logger:       logger,
	}
	if cfg != nil {
		if cfg.DefaultTitle != "" {
			s.defaultTitle = cfg.DefaultTitle
		}
		if cfg.DefaultLimit > 0 {
			s.defaultLimit = cfg.DefaultLimit
		}
		if cfg.MaxLimit > 0 {
			s.maxLimit = cfg.MaxLimit
		}
	}
	return s
}

// ────────────────────── Create ──────────────────────

func (s *notificationService) Create(ctx context.Context, req *dto.CreateNotificationRequest, senderID string) (*dto.NotificationResponse, error) {
	event := NotificationEvent{
		Recipient: req.Recipient,
		Type:      model.NotificationType(req.Type),
		Title:     req.Title,
		Message:   req.Message,
	}
	if senderID != "" {
		event.Sender = &senderID
	}
	return s.Notify(ctx, event)
}

// ────────────────────── Notify ──────────────────────

func (s *notificationService) Notify(ctx context.Context, event NotificationEvent) (*dto.NotificationResponse, error) {
	recipient := strings.TrimSpace(event.Recipient)
	if recipient == "" {
		return nil, pkgerrors.NewValidationError("recipient", "recipient is required")
	}
	if utf8.RuneCountInString(recipient) > maxRecipientRunes {
		return nil, pkgerrors.NewValidationError("recipient", fmt.Sprintf("recipient must be at most %d characters", maxRecipientRunes))
	}
	if event.Sender != nil && utf8.RuneCountInString(*event.Sender) > maxSenderRunes {
		return nil, pkgerrors.NewValidationError("sender", fmt.Sprintf("sender must be at most %d characters", maxSenderRunes))
	}
	if event.Type == "" {
		return nil, pkgerrors.NewValidationError("type", "type is required")
	}
	if !model.IsValidNotificationType(string(event.Type)) {
		return nil, pkgerrors.NewValidationError("type", fmt.Sprintf("unknown notification type %q", event.Type))
	}
	if strings.TrimSpace(event.Message) == "" {
		return nil, pkgerrors.NewValidationError("message", "message is required")
	}

	title := strings.TrimSpace(event.Title)
	if title == "" {
		title = s.defaultTitle
	}
	if utf8.RuneCountInString(title) > maxTitleRunes {
		return nil, pkgerrors.NewValidationError("title", fmt.Sprintf("title must be at most %d characters", maxTitleRunes))
	}

	n := &model.Notification{
		ID:        uuid.NewString(),
		Recipient: recipient,
		Sender:    event.Sender,
		Type:      event.Type,
		Title:     title,
		Message:   event.Message,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := s.repo.Notification.Create(ctx, n); err != nil {
		s.logger.Error("create notification failed",
			zap.String("recipient", recipient),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
		return nil, storeError(err)
	}

	return toNotificationResponse(n), nil
}

// ────────────────────── List ──────────────────────

func (s *notificationService) List(ctx context.Context, recipient string, req *dto.NotificationListRequest) (*dto.NotificationListResponse, error) {
	if err := requireRecipient(recipient); err != nil {
		return nil, err
	}

	page := req.Page
	if page <= 0 {
		page = 1
	}
	if page > maxListPage {
		return nil, pkgerrors.NewValidationError("page", fmt.Sprintf("page must be at most %d", maxListPage))
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	filter := repository.NotificationFilter{IsRead: req.IsRead}
	if req.Type != "" {
		if !model.IsValidNotificationType(req.Type) {
			return nil, pkgerrors.NewValidationError("type", fmt.Sprintf("unknown notification type %q", req.Type))
		}
		filter.Type = req.Type
	}

	result, err := s.repo.Notification.List(ctx, recipient, filter, (page-1)*limit, limit, req.AutoMarkSeen)
	if err != nil {
		s.logger.Error("list notifications failed",
			zap.String("recipient", recipient),
			zap.Bool("auto_mark_seen", req.AutoMarkSeen),
			zap.Error(err),
		)
		return nil, storeError(err)
	}

	items := make([]dto.NotificationResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, *toNotificationResponse(&result.Items[i]))
	}

	return &dto.NotificationListResponse{
		Items:       items,
		Total:       result.Total,
		UnreadCount: result.UnreadCount,
		UnseenCount: result.UnseenCount,
		Page:        page,
		Limit:       limit,
		Pages:       pageCount(result.Total, limit),
	}, nil
}

// ────────────────────── MarkRead ──────────────────────

func (s *notificationService) MarkRead(ctx context.Context, recipient, id string) (*dto.NotificationResponse, error) {
	if err := requireTarget(recipient, id); err != nil {
		return nil, err
	}

	n, err := s.repo.Notification.MarkRead(ctx, recipient, id)
	if err != nil {
		return nil, s.mapRepoError("mark notification read", recipient, id, err)
	}

	return toNotificationResponse(n), nil
}

// ────────────────────── MarkSeen ──────────────────────

func (s *notificationService) MarkSeen(ctx context.Context, recipient, id string) (*dto.NotificationResponse, error) {
	if err := requireTarget(recipient, id); err != nil {
		return nil, err
	}

	n, err := s.repo.Notification.MarkSeen(ctx, recipient, id)
	if err != nil {
		return nil, s.mapRepoError("mark notification seen", recipient, id, err)
	}

	return toNotificationResponse(n), nil
}

// ────────────────────── MarkAllRead ──────────────────────

func (s *notificationService) MarkAllRead(ctx context.Context, recipient string) (*dto.BulkUpdateResponse, error) {
	if err := requireRecipient(recipient); err != nil {
		return nil, err
	}

	count, err := s.repo.Notification.MarkAllRead(ctx, recipient)
	if err != nil {
		s.logger.Error("mark all notifications read failed", zap.String("recipient", recipient), zap.Error(err))
		return nil, storeError(err)
	}

	return &dto.BulkUpdateResponse{UpdatedCount: count}, nil
}

// ────────────────────── MarkAllSeen ──────────────────────

func (s *notificationService) MarkAllSeen(ctx context.Context, recipient string) (*dto.BulkUpdateResponse, error) {
	if err := requireRecipient(recipient); err != nil {
		return nil, err
	}

	count, err := s.repo.Notification.MarkAllSeen(ctx, recipient)
	if err != nil {
		s.logger.Error("mark all notifications seen failed", zap.String("recipient", recipient), zap.Error(err))
		return nil, storeError(err)
	}

	return &dto.BulkUpdateResponse{UpdatedCount: count}, nil
}

// ────────────────────── Delete ──────────────────────

func (s *notificationService) Delete(ctx context.Context, recipient, id string) (*dto.DeletedNotificationResponse, error) {
	if err := requireTarget(recipient, id); err != nil {
		return nil, err
	}

	n, err := s.repo.Notification.Delete(ctx, recipient, id)
	if err != nil {
		return nil, s.mapRepoError("delete notification", recipient, id, err)
	}

	return &dto.DeletedNotificationResponse{
		ID:             n.ID,
		Type:           string(n.Type),
		MessagePreview: MessagePreview(n.Message),
	}, nil
}

// ────────────────────── Ping ──────────────────────

func (s *notificationService) Ping(ctx context.Context) error {
	if err := s.repo.Notification.Ping(ctx); err != nil {
		return storeError(err)
	}
	return nil
}

// ── helpers ──

// MessagePreview cuts message to 50 characters, marking the cut with "..."
func MessagePreview(message string) string {
	if utf8.RuneCountInString(message) <= messagePreviewRunes {
		return message
	}
	runes := []rune(message)
	return string(runes[:messagePreviewRunes]) + "..."
}

func requireRecipient(recipient string) error {
	if strings.TrimSpace(recipient) == "" {
		return pkgerrors.NewValidationError("recipient", "recipient is required")
	}
	return nil
}

// requireTarget rejects an empty recipient; an id that cannot be a stored id
// is reported as not found without touching the store.
func requireTarget(recipient, id string) error {
	if err := requireRecipient(recipient); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *notificationService) mapRepoError(op, recipient, id string, err error) error {
	if isNotFound(err) {
		return ErrNotificationNotFound
	}
	s.logger.Error(op+" failed",
		zap.String("recipient", recipient),
		zap.String("id", id),
		zap.Error(err),
	)
	return storeError(err)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, mongo.ErrNoDocuments)
}

func storeError(err error) error {
	return fmt.Errorf("%w: %w", pkgerrors.ErrStoreUnavailable, err)
}

func pageCount(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := int(total) / limit
	if int(total)%limit > 0 {
		pages++
	}
	return pages
}

func toNotificationResponse(n *model.Notification) *dto.NotificationResponse {
	return &dto.NotificationResponse{
		ID:        n.ID,
		Recipient: n.Recipient,
		Sender:    n.Sender,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		IsSeen:    n.IsSeen,
		CreatedAt: n.CreatedAt,
	}
}
