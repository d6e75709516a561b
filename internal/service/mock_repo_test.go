package service

import (
	"context"
	"sort"
	"sync"

	"gorm.io/gorm"

	"resilinked/backend/internal/model"
	"resilinked/backend/internal/repository"
)

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	mu            sync.Mutex
	notifications map[string]*model.Notification
	// err, when set, is returned by every call
	err error
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{notifications: make(map[string]*model.Notification)}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := *n
	m.notifications[n.ID] = &cp
	return nil
}

func (m *mockNotificationRepo) List(_ context.Context, recipient string, filter repository.NotificationFilter, offset, limit int, markSeen bool) (*repository.NotificationPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	var matched []*model.Notification
	for _, n := range m.notifications {
		if n.Recipient != recipient {
			continue
		}
		if filter.Type != "" && string(n.Type) != filter.Type {
			continue
		}
		if filter.IsRead != nil && n.IsRead != *filter.IsRead {
			continue
		}
		matched = append(matched, n)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	page := &repository.NotificationPage{Total: int64(len(matched))}
	for i := offset; i < len(matched) && i < offset+limit; i++ {
		if markSeen {
			matched[i].IsSeen = true
		}
		page.Items = append(page.Items, *matched[i])
	}

	for _, n := range m.notifications {
		if n.Recipient != recipient {
			continue
		}
		if !n.IsRead {
			page.UnreadCount++
		}
		if !n.IsSeen {
			page.UnseenCount++
		}
	}
	return page, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, recipient, id string) (*model.Notification, error) {
	return m.update(recipient, id, func(n *model.Notification) {
		n.IsRead = true
		n.IsSeen = true
	})
}

func (m *mockNotificationRepo) MarkSeen(_ context.Context, recipient, id string) (*model.Notification, error) {
	return m.update(recipient, id, func(n *model.Notification) {
		n.IsSeen = true
	})
}

func (m *mockNotificationRepo) update(recipient, id string, apply func(*model.Notification)) (*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	n, ok := m.notifications[id]
	if !ok || n.Recipient != recipient {
		return nil, gorm.ErrRecordNotFound
	}
	apply(n)
	cp := *n
	return &cp, nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, recipient string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var count int64
	for _, n := range m.notifications {
		if n.Recipient == recipient && !n.IsRead {
			n.IsRead = true
			n.IsSeen = true
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) MarkAllSeen(_ context.Context, recipient string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var count int64
	for _, n := range m.notifications {
		if n.Recipient == recipient && !n.IsSeen {
			n.IsSeen = true
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) Delete(_ context.Context, recipient, id string) (*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	n, ok := m.notifications[id]
	if !ok || n.Recipient != recipient {
		return nil, gorm.ErrRecordNotFound
	}
	delete(m.notifications, id)
	return n, nil
}

func (m *mockNotificationRepo) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *mockNotificationRepo) get(id string) *model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifications[id]
}
