// Package main запускает HTTP-сервер маркетплейса Baloot.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/baloot-market/internal/config"
	"github.com/mmeshcher/baloot-market/internal/datasource"
	"github.com/mmeshcher/baloot-market/internal/handler"
	"github.com/mmeshcher/baloot-market/internal/metrics"
	"github.com/mmeshcher/baloot-market/internal/repository"
	"github.com/mmeshcher/baloot-market/internal/seed"
	"github.com/mmeshcher/baloot-market/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		sugar.Warnw("failed to load .env file", "error", err.Error())
	}

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := newRepository(cfg)
	if err != nil {
		sugar.Fatalw("storage initialization error", "error", err.Error())
	}

	var source *datasource.Client
	if cfg.DataSourceAddress != "" {
		source = datasource.NewClient(cfg.DataSourceAddress)
	}

	m := metrics.New()
	svc := service.NewService(repo, source, m)
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := loadInitialData(ctx, svc, cfg, sugar); err != nil {
		sugar.Fatalw("initial data import error", "error", err.Error())
	}

	h := handler.NewHandler(svc, logger, m)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting baloot server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

func newRepository(cfg *config.Config) (service.Repository, error) {
	if cfg.DatabaseURI == "" {
		return repository.NewMemoryRepository(), nil
	}
	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// loadInitialData импортирует данные из YAML-файла и внешнего источника, если они заданы.
func loadInitialData(ctx context.Context, svc *service.Service, cfg *config.Config, sugar *zap.SugaredLogger) error {
	if cfg.SeedFile != "" {
		data, err := seed.Load(cfg.SeedFile)
		if err != nil {
			return err
		}
		stats, err := svc.Import(ctx, data)
		if err != nil {
			return fmt.Errorf("import seed: %w", err)
		}
		sugar.Infow("seed imported", "file", cfg.SeedFile,
			"users", stats.Users, "providers", stats.Providers,
			"commodities", stats.Commodities, "comments", stats.Comments)
	}

	if cfg.DataSourceAddress != "" {
		stats, err := svc.ImportFromSource(ctx)
		if err != nil {
			return fmt.Errorf("import from data source: %w", err)
		}
		sugar.Infow("data source imported", "addr", cfg.DataSourceAddress,
			"users", stats.Users, "providers", stats.Providers,
			"commodities", stats.Commodities, "comments", stats.Comments)
	}
	return nil
}
