package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"resilinked/backend/internal/model"
)

// NotificationFilter optional list filters, applied on top of the recipient
type NotificationFilter struct {
	Type   string
	IsRead *bool
}

// NotificationPage one page of a recipient's notifications plus counts.
// Total covers the filtered scope; the unread and unseen counts cover
// everything the recipient owns.
type NotificationPage struct {
	Items       []model.Notification
	Total       int64
	UnreadCount int64
	UnseenCount int64
}

// NotificationRepository notification data access.
// Every query is scoped by recipient; a row owned by someone else behaves
// exactly like a missing one.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	// List reads a page newest first. With markSeen the unseen items of the
	// page are flagged seen before the counts are taken.
	List(ctx context.Context, recipient string, filter NotificationFilter, offset, limit int, markSeen bool) (*NotificationPage, error)
	MarkRead(ctx context.Context, recipient, id string) (*model.Notification, error)
	MarkSeen(ctx context.Context, recipient, id string) (*model.Notification, error)
	MarkAllRead(ctx context.Context, recipient string) (int64, error)
	MarkAllSeen(ctx context.Context, recipient string) (int64, error)
	Delete(ctx context.Context, recipient, id string) (*model.Notification, error)
	Ping(ctx context.Context) error
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo creates the PostgreSQL NotificationRepository
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) List(ctx context.Context, recipient string, filter NotificationFilter, offset, limit int, markSeen bool) (*NotificationPage, error) {
	// read-only snapshot when nothing is written; read committed when the
	// page is flagged so the counts see our own update
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	if markSeen {
		opts = &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}

	page := &NotificationPage{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scoped := func() *gorm.DB {
			q := tx.Model(&model.Notification{}).Where("recipient = ?", recipient)
			if filter.Type != "" {
				q = q.Where("type = ?", filter.Type)
			}
			if filter.IsRead != nil {
				q = q.Where("is_read = ?", *filter.IsRead)
			}
			return q
		}

		if err := scoped().Count(&page.Total).Error; err != nil {
			return err
		}

		if err := scoped().
			Order("created_at DESC, id DESC").
			Offset(offset).
			Limit(limit).
			Find(&page.Items).Error; err != nil {
			return err
		}

		if markSeen {
			if err := markPageSeen(tx, recipient, page.Items); err != nil {
				return err
			}
		}

		if err := tx.Model(&model.Notification{}).
			Where("recipient = ? AND is_read = ?", recipient, false).
			Count(&page.UnreadCount).Error; err != nil {
			return err
		}
		return tx.Model(&model.Notification{}).
			Where("recipient = ? AND is_seen = ?", recipient, false).
			Count(&page.UnseenCount).Error
	}, opts)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// markPageSeen flags the unseen items of a page in one statement and
// mirrors the change onto the slice.
func markPageSeen(tx *gorm.DB, recipient string, items []model.Notification) error {
	ids := make([]string, 0, len(items))
	for _, n := range items {
		if !n.IsSeen {
			ids = append(ids, n.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	if err := tx.Model(&model.Notification{}).
		Where("recipient = ? AND id IN ? AND is_seen = ?", recipient, ids, false).
		Update("is_seen", true).Error; err != nil {
		return err
	}

	for i := range items {
		items[i].IsSeen = true
	}
	return nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, recipient, id string) (*model.Notification, error) {
	return r.updateOne(ctx, recipient, id, map[string]interface{}{
		"is_read": true,
		"is_seen": true,
	})
}

func (r *notificationRepo) MarkSeen(ctx context.Context, recipient, id string) (*model.Notification, error) {
	return r.updateOne(ctx, recipient, id, map[string]interface{}{
		"is_seen": true,
	})
}

// updateOne applies fields to one owned row and returns it as stored
func (r *notificationRepo) updateOne(ctx context.Context, recipient, id string, fields map[string]interface{}) (*model.Notification, error) {
	var n model.Notification
	res := r.db.WithContext(ctx).
		Model(&n).
		Clauses(clause.Returning{}).
		Where("id = ? AND recipient = ?", id, recipient).
		Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &n, nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, recipient string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("recipient = ? AND is_read = ?", recipient, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"is_seen": true,
		})
	return res.RowsAffected, res.Error
}

func (r *notificationRepo) MarkAllSeen(ctx context.Context, recipient string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("recipient = ? AND is_seen = ?", recipient, false).
		Update("is_seen", true)
	return res.RowsAffected, res.Error
}

func (r *notificationRepo) Delete(ctx context.Context, recipient, id string) (*model.Notification, error) {
	var n model.Notification
	res := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("id = ? AND recipient = ?", id, recipient).
		Delete(&n)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &n, nil
}

func (r *notificationRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
