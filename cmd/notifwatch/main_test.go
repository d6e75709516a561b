package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"resilinked/backend/config"
	"resilinked/backend/internal/dto"
	"resilinked/backend/internal/notifsync"
	pkgerrors "resilinked/backend/pkg/errors"
)

// flakyStore fails its first List calls, then answers
type flakyStore struct {
	mu       sync.Mutex
	failures int
	queries  []notifsync.ListQuery
}

func (f *flakyStore) List(_ context.Context, q notifsync.ListQuery) (*notifsync.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.failures > 0 {
		f.failures--
		return nil, pkgerrors.ErrStoreUnavailable
	}
	return &notifsync.Snapshot{
		Items:       []dto.NotificationResponse{{ID: "n1", Type: "payment", Message: "paid"}},
		Total:       1,
		UnreadCount: 1,
		UnseenCount: 1,
	}, nil
}

func (f *flakyStore) MarkRead(context.Context, string) error { return nil }
func (f *flakyStore) MarkSeen(context.Context, string) error { return nil }
func (f *flakyStore) MarkAllRead(context.Context) (int64, error) { return 0, nil }
func (f *flakyStore) MarkAllSeen(context.Context) (int64, error) { return 0, nil }
func (f *flakyStore) Delete(context.Context, string) error { return nil }

func TestWatch_FailedFirstFetchKeepsPolling(t *testing.T) {
	store := &flakyStore{failures: 1}
	syncer := notifsync.NewSyncer(store, &config.SyncConfig{PollInterval: 10 * time.Millisecond}, zap.NewNop())

	watch(context.Background(), syncer, notifsync.FetchOptions{AutoMarkSeen: true}, zap.NewNop())
	defer syncer.Stop()

	require.Eventually(t, func() bool {
		return len(syncer.Snapshot().Items) == 1
	}, time.Second, 5*time.Millisecond)

	store.mu.Lock()
	defer store.mu.Unlock()
	require.GreaterOrEqual(t, len(store.queries), 2)
	assert.True(t, store.queries[0].AutoMarkSeen)
	assert.False(t, store.queries[1].AutoMarkSeen, "background polls never mark seen")
}
