package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"resilinked/backend/config"
	"resilinked/backend/internal/notifsync"
	applogger "resilinked/backend/pkg/logger"
)

func main() {
	markSeen := flag.Bool("mark-seen", false, "mark the first page seen on the initial fetch")
	notifType := flag.String("type", "", "only watch notifications of this type")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("RESILINKED_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateSync(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store := notifsync.NewHTTPStore(&cfg.Sync, logger)
	syncer := notifsync.NewSyncer(store, &cfg.Sync, logger)

	seen := make(map[string]struct{})
	syncer.OnChange(func(c notifsync.Cache) {
		logger.Info("notifications updated",
			zap.Int64("total", c.Total),
			zap.Int64("unread", c.UnreadCount),
			zap.Int64("unseen", c.UnseenCount),
		)
		for _, n := range c.Items {
			if _, ok := seen[n.ID]; ok {
				continue
			}
			seen[n.ID] = struct{}{}
			fmt.Printf("%s %s: %s\n", notifsync.Icon(n.Type), n.Title, n.Message)
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watch(ctx, syncer, notifsync.FetchOptions{
		AutoMarkSeen: *markSeen,
		Filters:      notifsync.Filters{Type: *notifType},
	}, logger)
	logger.Info("watching notifications", zap.String("base_url", cfg.Sync.BaseURL), zap.Duration("interval", cfg.Sync.PollInterval))

	<-ctx.Done()
	syncer.Stop()
	logger.Info("notifwatch stopped")
}

// watch runs the first fetch and starts polling. A failed first fetch leaves
// the cache empty and the poller retries on its next tick.
func watch(ctx context.Context, syncer *notifsync.Syncer, first notifsync.FetchOptions, logger *zap.Logger) {
	if err := syncer.Fetch(ctx, first); err != nil {
		logger.Warn("initial fetch failed", zap.Error(err))
	}
	syncer.Start(ctx)
}
