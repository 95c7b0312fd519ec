package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/session-bank-ledger/internal/config"
	"github.com/sheikh-saqib/session-bank-ledger/internal/events"
	"github.com/sheikh-saqib/session-bank-ledger/internal/events/kafka"
	interfaces "github.com/sheikh-saqib/session-bank-ledger/internal/interfaces"
	"github.com/sheikh-saqib/session-bank-ledger/internal/logging"
	"github.com/sheikh-saqib/session-bank-ledger/internal/session"
	"github.com/sheikh-saqib/session-bank-ledger/internal/storage"
	"github.com/sheikh-saqib/session-bank-ledger/internal/web"
)

const shutdownTimeout = 10 * time.Second

// expiringStore is implemented by stores whose rows outlive their TTL until
// deleted.
type expiringStore interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

func purgeInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval > time.Hour {
		interval = time.Hour
	}
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

func purgeExpired(ctx context.Context, store expiringStore, every time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Error("purge expired sessions failed", zap.Error(err))
				}
				continue
			}
			if n > 0 {
				logger.Info("purged expired sessions", zap.Int64("count", n))
			}
		}
	}
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		envFile string
		addr    string
		backend string
	)

	cmd := &cobra.Command{
		Use:          "server",
		Short:        "Serve the session-bound demo bank over HTTP",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			if backend != "" {
				cfg.StoreBackend = backend
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides HTTP_ADDR")
	cmd.Flags().StringVar(&backend, "store", "", "session store (memory, redis, postgres), overrides STORE_BACKEND")
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("close store failed", zap.Error(err))
		}
	}()

	if p, ok := store.(expiringStore); ok {
		go purgeExpired(ctx, p, purgeInterval(cfg.SessionTTL), logger.Named("purge"))
	}

	var publisher interfaces.EventPublisher = events.Discard{}
	if len(cfg.KafkaBrokers) > 0 {
		p := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer p.Close()
		publisher = p
	}

	svc := session.NewService(store,
		session.WithPublisher(publisher),
		session.WithLogger(logger.Named("session")),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           web.NewServer(svc, logger.Named("http"), cfg.Currency).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("store", cfg.StoreBackend),
			zap.Strings("kafka_brokers", cfg.KafkaBrokers),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
