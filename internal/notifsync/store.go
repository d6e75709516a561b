package notifsync

import (
	"context"

	"resilinked/backend/internal/dto"
)

// Filters optional list filters forwarded to the server
type Filters struct {
	Type   string
	IsRead *bool
}

// ListQuery one list request. AutoMarkSeen is always sent explicitly.
type ListQuery struct {
	Filters
	Page         int
	Limit        int
	AutoMarkSeen bool
}

// Snapshot a server page plus its counts
type Snapshot struct {
	Items       []dto.NotificationResponse
	Total       int64
	UnreadCount int64
	UnseenCount int64
}

// Store the server operations the Syncer reconciles against.
// The caller identity is implied by the Store's credentials.
type Store interface {
	List(ctx context.Context, q ListQuery) (*Snapshot, error)
	MarkRead(ctx context.Context, id string) error
	MarkSeen(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) (int64, error)
	MarkAllSeen(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}
