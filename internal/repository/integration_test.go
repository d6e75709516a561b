//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resilinked/backend/internal/model"
	"resilinked/backend/internal/repository"
	"resilinked/backend/pkg/database"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var (
	testDB    *gorm.DB
	testMongo *mongo.Collection
)

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=resilinked password=resilinked_password dbname=resilinked_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect test database: %v\n", err)
		os.Exit(1)
	}
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "get sql.DB: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "migrations failed: %v\n", err)
		os.Exit(1)
	}

	// mongo is optional
	var client *mongo.Client
	if uri := os.Getenv("TEST_MONGO_URI"); uri != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err == nil {
			testMongo = client.Database("resilinked_test").Collection("notifications")
			err = database.EnsureNotificationIndexes(ctx, testMongo)
		}
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "connect test mongodb: %v\n", err)
			os.Exit(1)
		}
	}

	code := m.Run()

	if client != nil {
		_ = client.Disconnect(context.Background())
	}
	os.Exit(code)
}

// backends runs fn against every configured store
func backends(t *testing.T, fn func(t *testing.T, repo repository.NotificationRepository)) {
	t.Run("postgres", func(t *testing.T) {
		fn(t, repository.NewNotificationRepo(testDB))
	})
	t.Run("mongo", func(t *testing.T) {
		if testMongo == nil {
			t.Skip("TEST_MONGO_URI not set")
		}
		fn(t, repository.NewNotificationMongoRepo(testMongo))
	})
}

// seed creates count notifications for a fresh recipient, oldest first,
// and returns the recipient plus the ids newest first
func seed(t *testing.T, repo repository.NotificationRepository, count int, typ model.NotificationType) (string, []string) {
	t.Helper()
	ctx := context.Background()
	recipient := "it-" + uuid.NewString()[:8]
	base := time.Now().UTC().Truncate(time.Millisecond).Add(-time.Hour)

	ids := make([]string, count)
	for i := 0; i < count; i++ {
		n := &model.Notification{
			ID:        uuid.NewString(),
			Recipient: recipient,
			Type:      typ,
			Title:     "Admin Message",
			Message:   fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, n); err != nil {
			t.Fatalf("create notification: %v", err)
		}
		ids[count-1-i] = n.ID
	}
	return recipient, ids
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, mongo.ErrNoDocuments)
}

// ═══════════════════════════════════════════════════════════
// List
// ═══════════════════════════════════════════════════════════

func TestNotificationRepo_List_NewestFirstWithCounts(t *testing.T) {
	backends(t, func(t *testing.T, repo repository.NotificationRepository) {
		ctx := context.Background()
		recipient, ids := seed(t, repo, 5, model.NotificationMessage)

		page, err := repo.List(ctx, recipient, repository.NotificationFilter{}, 0, 2, false)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(page.Items) != 2 || page.Items[0].ID != ids[0] || page.Items[1].ID != ids[1] {
			t.Fatalf("expected the two newest items first, got %+v", page.Items)
		}
		if page.Total != 5 || page.UnreadCount != 5 || page.UnseenCount != 5 {
			t.Errorf("counts = %d/%d/%d, want 5/5/5", page.Total, page.UnreadCount, page.UnseenCount)
		}

		page, err = repo.List(ctx, recipient, repository.NotificationFilter{}, 4, 2, false)
		if err != nil {
			t.Fatalf("List page 3 failed: %v", err)
		}
		if len(page.Items) != 1 || page.Items[0].ID != ids[4] {
			t.Errorf("last page should hold the oldest item")
		}
	})
}

func TestNotificationRepo_List_MarkSeenBeforeCounting(t *testing.T) {
	backends(t, func(t *testing.T, repo repository.NotificationRepository) {
		ctx := context.Background()
		recipient, ids := seed(t, repo, 3, model.NotificationPayment)

		page, err := repo.List(ctx, recipient, repository.NotificationFilter{}, 0, 2, true)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		for _, n := range page.Items {
			if !n.IsSeen {
				t.Errorf("item %s should be returned seen", n.ID)
			}
		}
		if page.UnseenCount != 1 {
			t.Errorf("unseenCount = %d, want 1", page.UnseenCount)
		}

		// the item outside the page stays unseen
		page, err = repo.List(ctx, recipient, repository.NotificationFilter{}, 2, 1, false)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if page.Items[0].ID != ids[2] || page.Items[0].IsSeen {
			t.Errorf("oldest item should be untouched")
		}
	})
}

func TestNotificationRepo_List_Filters(t *testing.T) {
	backends(t, func(t *testing.T, repo repository.NotificationRepository) {
		ctx := context.Background()
		recipient, ids := seed(t, repo, 3, model.NotificationRating)
		if _, err := repo.MarkRead(ctx, recipient, ids[0]); err != nil {
			t.Fatalf("MarkRead failed: %v", err)
		}

		unread := false
		page, err := repo.List(ctx, recipient, repository.NotificationFilter{IsRead: &unread}, 0, 10, false)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if page.Total != 2 || len(page.Items) != 2 {
			t.Errorf("unread filter total = %d, want 2", page.Total)
		}

		page, err = repo.List(ctx, recipient, repository.NotificationFilter{Type: string(model.NotificationPayment)}, 0, 10, false)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if page.Total != 0 {
			t.Errorf("type filter total = %d, want 0", page.Total)
		}
		// unread/unseen counts ignore the filters
		if page.UnreadCount != 2 {
			t.Errorf("unreadCount = %d, want 2", page.UnreadCount)
		}
	})
}

// ═══════════════════════════════════════════════════════════
// Transitions
// ═══════════════════════════════════════════════════════════

func TestNotificationRepo_MarkRead_SetsSeen(t *testing.T) {
	backends(t, func(t *testing.T, repo repository.NotificationRepository) {
		ctx := context.Background()
		recipient, ids := seed(t, repo, 1, model.NotificationAdmin)

		n, err := repo.MarkRead(ctx, recipient, ids[0])
		if err != nil {
			t.Fatalf("MarkRead failed: %v", err)
		}
		if !n.IsRead || !n.IsSeen {
			t.Errorf("MarkRead should set both flags, got read=%v seen=%v", n.IsRead, n.IsSeen)
		}

		// idempotent
		if _, err := repo.MarkRead(ctx, recipient, ids[0]); err != nil {
			t.Errorf("second MarkRead should succeed: %v", err)
		}
	})
}

func TestNotificationRepo_MarkAll(t *testing.T) {
	backends(t, func(t *testing.T, repo repository.NotificationRepository) {
		ctx := context.Background()
		recipient, ids := seed(t, repo, 4, model.NotificationGoalCreated)
		if _, err := repo.MarkSeen(ctx, recipient, ids[0]); err != nil {
			t.Fatalf("MarkSeen failed: %v", err)
		}

		n, err := repo.MarkAllSeen(ctx, recipient)
		if err != nil {
			t.Fatalf("MarkAllSeen failed: %v", err)
		}
		if n != 3 {
			t.Errorf("MarkAllSeen updated %d, want 3", n)
		}

		n, err = repo.MarkAllRead(ctx, recipient)
		if err != nil {
			t.Fatalf("MarkAllRead failed: %v", err)
		}
		if n != 4 {
			t.Errorf("MarkAllRead updated %d, want 4", n)
		}

		n, err = repo.MarkAllRead(ctx, recipient)
		if err != nil || n != 0 {
			t.Errorf("repeat MarkAllRead = %d, %v; want 0, nil", n, err)
		}
	})
}

// ═══════════════════════════════════════════════════════════
// Delete / ownership
// ═══════════════════════════════════════════════════════════

func TestNotificationRepo_Delete(t *testing.T) {
	backends(t, func(t *testing.T, repo repository.NotificationRepository) {
		ctx := context.Background()
		recipient, ids := seed(t, repo, 2, model.NotificationJobApplied)

		removed, err := repo.Delete(ctx, recipient, ids[0])
		if err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if removed.ID != ids[0] {
			t.Errorf("Delete returned %s, want %s", removed.ID, ids[0])
		}

		if _, err := repo.Delete(ctx, recipient, ids[0]); !isNotFound(err) {
			t.Errorf("second Delete should be not found, got %v", err)
		}
		if _, err := repo.MarkRead(ctx, recipient, ids[0]); !isNotFound(err) {
			t.Errorf("MarkRead after Delete should be not found, got %v", err)
		}
	})
}

func TestNotificationRepo_OwnershipIsolation(t *testing.T) {
	backends(t, func(t *testing.T, repo repository.NotificationRepository) {
		ctx := context.Background()
		owner, ids := seed(t, repo, 1, model.NotificationMessage)
		other, _ := seed(t, repo, 1, model.NotificationMessage)

		if _, err := repo.MarkRead(ctx, other, ids[0]); !isNotFound(err) {
			t.Errorf("MarkRead by another recipient should be not found, got %v", err)
		}
		if _, err := repo.Delete(ctx, other, ids[0]); !isNotFound(err) {
			t.Errorf("Delete by another recipient should be not found, got %v", err)
		}
		if n, err := repo.MarkAllRead(ctx, other); err != nil || n != 1 {
			t.Errorf("MarkAllRead should only touch the caller's row, got %d, %v", n, err)
		}

		page, err := repo.List(ctx, owner, repository.NotificationFilter{}, 0, 10, false)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(page.Items) != 1 || page.Items[0].IsRead {
			t.Errorf("owner's notification must be untouched")
		}
	})
}

func TestNotificationRepo_Ping(t *testing.T) {
	backends(t, func(t *testing.T, repo repository.NotificationRepository) {
		if err := repo.Ping(context.Background()); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})
}
