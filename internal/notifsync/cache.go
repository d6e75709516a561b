package notifsync

import (
	"time"

	"resilinked/backend/internal/dto"
)

// Cache an immutable view of the recipient's notifications. Every Apply
// method returns a new value and leaves the receiver untouched.
type Cache struct {
	Items       []dto.NotificationResponse
	Total       int64
	UnreadCount int64
	UnseenCount int64
	FetchedAt   time.Time
}

// ReplaceFrom builds a cache from a server snapshot, discarding any local state
func ReplaceFrom(s Snapshot, fetchedAt time.Time) Cache {
	items := make([]dto.NotificationResponse, len(s.Items))
	copy(items, s.Items)
	return Cache{
		Items:       items,
		Total:       s.Total,
		UnreadCount: s.UnreadCount,
		UnseenCount: s.UnseenCount,
		FetchedAt:   fetchedAt,
	}
}

// ApplyRead reflects a confirmed markRead. An id not in the cache may live
// on another page, so the unread count still drops by one.
func (c Cache) ApplyRead(id string) Cache {
	next := c.clone()
	i := next.index(id)
	if i < 0 {
		next.UnreadCount = dec(next.UnreadCount)
		return next
	}
	item := &next.Items[i]
	if !item.IsRead {
		next.UnreadCount = dec(next.UnreadCount)
	}
	if !item.IsSeen {
		next.UnseenCount = dec(next.UnseenCount)
	}
	item.IsRead = true
	item.IsSeen = true
	return next
}

// ApplySeen reflects a confirmed markSeen
func (c Cache) ApplySeen(id string) Cache {
	next := c.clone()
	i := next.index(id)
	if i < 0 {
		next.UnseenCount = dec(next.UnseenCount)
		return next
	}
	item := &next.Items[i]
	if !item.IsSeen {
		next.UnseenCount = dec(next.UnseenCount)
	}
	item.IsSeen = true
	return next
}

// ApplyAllRead reflects a confirmed markAllRead
func (c Cache) ApplyAllRead() Cache {
	next := c.clone()
	for i := range next.Items {
		next.Items[i].IsRead = true
		next.Items[i].IsSeen = true
	}
	next.UnreadCount = 0
	next.UnseenCount = 0
	return next
}

// ApplyAllSeen reflects a confirmed markAllSeen
func (c Cache) ApplyAllSeen() Cache {
	next := c.clone()
	for i := range next.Items {
		next.Items[i].IsSeen = true
	}
	next.UnseenCount = 0
	return next
}

// ApplyDelete reflects a confirmed delete. Counts only move when the
// removed item's flags are known, i.e. when it was in the cache.
func (c Cache) ApplyDelete(id string) Cache {
	next := c.clone()
	i := next.index(id)
	if i < 0 {
		return next
	}
	removed := next.Items[i]
	next.Items = append(next.Items[:i], next.Items[i+1:]...)
	next.Total = dec(next.Total)
	if !removed.IsRead {
		next.UnreadCount = dec(next.UnreadCount)
	}
	if !removed.IsSeen {
		next.UnseenCount = dec(next.UnseenCount)
	}
	return next
}

// Find returns the cached notification with id
func (c Cache) Find(id string) (dto.NotificationResponse, bool) {
	if i := c.index(id); i >= 0 {
		return c.Items[i], true
	}
	return dto.NotificationResponse{}, false
}

func (c Cache) clone() Cache {
	next := c
	next.Items = make([]dto.NotificationResponse, len(c.Items))
	copy(next.Items, c.Items)
	return next
}

func (c Cache) index(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// dec decrements, clamped at zero
func dec(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return n - 1
}
