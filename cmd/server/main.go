package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mmynk/moneyshare/internal/config"
	"github.com/mmynk/moneyshare/internal/decoder"
	"github.com/mmynk/moneyshare/internal/idgen"
	"github.com/mmynk/moneyshare/internal/server"
	"github.com/mmynk/moneyshare/internal/service"
	"github.com/mmynk/moneyshare/internal/storage"
	"github.com/mmynk/moneyshare/internal/storage/memory"
	"github.com/mmynk/moneyshare/internal/storage/postgres"
	"github.com/mmynk/moneyshare/internal/storage/redis"
	"github.com/mmynk/moneyshare/internal/storage/sqlite"
	"github.com/mmynk/moneyshare/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.SetupWith(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := openKV(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	ids, err := idgen.NewSnowflake(cfg.NodeID)
	if err != nil {
		return fmt.Errorf("init id generator: %w", err)
	}
	store := storage.NewBillStore(kv,
		storage.WithIDGenerator(ids),
		storage.WithNotifier(storage.NotifierFunc(logSaved)),
	)
	defer store.Close()
	slog.Info("Storage initialized", "backend", cfg.Store.Backend)

	var dec decoder.Decoder
	if cfg.Decoder.URL != "" {
		dec = decoder.New(cfg.Decoder.URL,
			decoder.WithToken(cfg.Decoder.Token),
			decoder.WithTimeout(cfg.Decoder.Timeout),
		)
		slog.Info("Bill decoder configured", "url", cfg.Decoder.URL)
	} else {
		slog.Warn("DECODER_URL not set, bill scanning is disabled")
	}

	svc := service.NewBillService(store, dec)
	srv := server.New(cfg, server.NewRouter(cfg, svc))

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openKV(ctx context.Context, cfg config.StoreConfig) (storage.KV, error) {
	var (
		kv  storage.KV
		err error
	)
	switch cfg.Backend {
	case config.BackendSQLite:
		var s *sqlite.Store
		if s, err = sqlite.New(cfg.SQLitePath); err == nil {
			kv = s
		}
	case config.BackendRedis:
		var s *redis.Store
		if s, err = redis.New(ctx, redis.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}); err == nil {
			kv = s
		}
	case config.BackendPostgres:
		var s *postgres.Store
		if s, err = postgres.New(cfg.PostgresDSN); err == nil {
			kv = s
		}
	case config.BackendMemory:
		slog.Warn("Using the in-memory store, bills are lost on exit")
		kv = memory.New()
	default:
		err = fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return kv, nil
}

func logSaved(_ context.Context, res storage.SaveResult) {
	if res.Created {
		slog.Info("Bill added", "bill_id", res.Bill.ID, "name", res.Bill.Name)
		return
	}
	slog.Info("Bill updated", "bill_id", res.Bill.ID, "name", res.Bill.Name)
}
