package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tranvu/amazon-product-export/internal/batch"
	"github.com/tranvu/amazon-product-export/internal/config"
	"github.com/tranvu/amazon-product-export/internal/export"
	"github.com/tranvu/amazon-product-export/internal/fetch"
	"github.com/tranvu/amazon-product-export/internal/parser"
	"github.com/tranvu/amazon-product-export/internal/scraper"
	"github.com/tranvu/amazon-product-export/internal/storage"
	"github.com/tranvu/amazon-product-export/pkg/logger"
)

func main() {
	var (
		identifiers = flag.String("products", "", "Comma-separated list of Amazon ASINs or product URLs")
		inputFile   = flag.String("file", "", "File containing ASINs or product URLs (one per line)")
		apiKey      = flag.String("api-key", "", "Proxy service API key (defaults to PROXY_API_KEY)")
		niche       = flag.String("niche", "", "Optional niche hint recorded alongside the batch")
		groupSize   = flag.Int("group-size", 0, "Concurrent extractions per group (defaults to BATCH_GROUP_SIZE)")
		xlsxPath    = flag.String("xlsx", "", "Write an xlsx workbook of the results to this path")
		imagesPath  = flag.String("images", "", "Write a zip of all product images to this path")
		storePath   = flag.String("store", "", "Persist raw records as JSON to this path")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *apiKey != "" {
		cfg.Proxy.APIKey = *apiKey
	}
	if *groupSize > 0 {
		cfg.Batch.GroupSize = *groupSize
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	inputs, err := collectInputs(*identifiers, *inputFile)
	if err != nil {
		logger.Error("failed to read inputs", "error", err)
		os.Exit(1)
	}
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "no products given; use -products or -file")
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received, finishing current group")
		cancel()
	}()

	limiter := fetch.NewLimiter(cfg.Proxy.RateLimitMin, cfg.Proxy.RateLimitMax)
	resolver := fetch.NewHeaderResolver(cfg.Proxy.HeadersURL, cfg.Proxy.APIKey, logger)
	client := fetch.NewClient(fetch.Options{
		ProxyURL:   cfg.Proxy.URL,
		Country:    cfg.Proxy.Country,
		Timeout:    cfg.Proxy.Timeout,
		MaxRetries: cfg.Proxy.MaxRetries,
		RetryDelay: cfg.Proxy.RetryDelay,
	}, resolver, limiter, logger)

	scraperService := scraper.NewAmazonScraper(client, parser.NewAmazonParser(), logger)
	runner := batch.NewRunner(scraperService, cfg.Batch.GroupSize, logger)

	events := make(chan batch.Event, len(inputs)*2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range events {
			switch e.Status {
			case batch.StatusFailed:
				logger.Warn("product failed", "identifier", e.Identifier, "detail", e.Detail)
			default:
				logger.Info("product "+string(e.Status), "identifier", e.Identifier)
			}
		}
	}()

	logger.Info("starting batch", "products", len(inputs), "group_size", cfg.Batch.GroupSize, "niche", *niche)
	records := runner.Run(ctx, inputs, *niche, cfg.Proxy.APIKey, events)
	close(events)
	<-done

	failed := 0
	for _, rec := range records {
		if rec.IsError {
			failed++
		}
	}
	logger.Info("batch finished", "total", len(records), "failed", failed)

	if *storePath != "" {
		store, err := storage.NewRecordStorage(*storePath)
		if err != nil {
			logger.Error("failed to open record store", "path", *storePath, "error", err)
			os.Exit(1)
		}
		if err := store.AddBatch(records); err != nil {
			logger.Error("failed to persist records", "path", *storePath, "error", err)
			os.Exit(1)
		}
		logger.Info("records persisted", "path", *storePath)
	}

	if *xlsxPath != "" {
		if err := export.SaveXLSX(records, *xlsxPath); err != nil {
			logger.Error("failed to write workbook", "path", *xlsxPath, "error", err)
			os.Exit(1)
		}
		logger.Info("workbook written", "path", *xlsxPath)
	}

	if *imagesPath != "" {
		bundler := export.NewBundler(fetch.FallbackUserAgent, logger)
		if err := bundler.BundleImagesToFile(ctx, records, *imagesPath); err != nil {
			logger.Error("failed to write image archive", "path", *imagesPath, "error", err)
			os.Exit(1)
		}
		logger.Info("image archive written", "path", *imagesPath)
	}
}

// collectInputs merges the -products flag with the optional input file,
// keeping order and skipping blanks and #-comments.
func collectInputs(csv, file string) ([]string, error) {
	var inputs []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			inputs = append(inputs, part)
		}
	}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			inputs = append(inputs, line)
		}
	}
	return inputs, nil
}
