package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/tranvu/amazon-product-export/internal/api"
	"github.com/tranvu/amazon-product-export/internal/batch"
	"github.com/tranvu/amazon-product-export/internal/config"
	"github.com/tranvu/amazon-product-export/internal/database"
	"github.com/tranvu/amazon-product-export/internal/export"
	"github.com/tranvu/amazon-product-export/internal/fetch"
	"github.com/tranvu/amazon-product-export/internal/jobs"
	"github.com/tranvu/amazon-product-export/internal/parser"
	"github.com/tranvu/amazon-product-export/internal/scraper"
	"github.com/tranvu/amazon-product-export/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Fetch pipeline: rate limiter -> proxy client -> optional redis cache.
	limiter := fetch.NewLimiter(cfg.Proxy.RateLimitMin, cfg.Proxy.RateLimitMax)
	resolver := fetch.NewHeaderResolver(cfg.Proxy.HeadersURL, cfg.Proxy.APIKey, logger)
	client := fetch.NewClient(fetch.Options{
		ProxyURL:   cfg.Proxy.URL,
		Country:    cfg.Proxy.Country,
		Timeout:    cfg.Proxy.Timeout,
		MaxRetries: cfg.Proxy.MaxRetries,
		RetryDelay: cfg.Proxy.RetryDelay,
	}, resolver, limiter, logger)

	var fetcher scraper.Fetcher = client
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		fetcher = fetch.NewCachedFetcher(client, redisClient, cfg.Redis.CacheTTL, logger)
		logger.Info("markup cache enabled", "addr", cfg.Redis.Addr)
	}

	var db *database.DB
	if cfg.Database.Enabled {
		db, err = database.New(ctx, database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.DBName,
			MaxConns: cfg.Database.MaxConns,
		})
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		logger.Info("record persistence enabled", "host", cfg.Database.Host)
	}

	scraperService := scraper.NewAmazonScraper(fetcher, parser.NewAmazonParser(), logger)
	runner := batch.NewRunner(scraperService, cfg.Batch.GroupSize, logger)
	jobManager := jobs.NewManager(runner, logger)
	bundler := export.NewBundler(fetch.FallbackUserAgent, logger)

	handlers := api.NewHandlers(scraperService, jobManager, bundler, db, cfg.Proxy.APIKey, logger)
	router := api.NewRouter(handlers)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "addr", server.Addr, "group_size", cfg.Batch.GroupSize)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
