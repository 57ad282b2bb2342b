package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/digitalevenings/cruise-ship-data-extractor/internal/adapters/browser"
	"github.com/digitalevenings/cruise-ship-data-extractor/internal/adapters/localstorage"
	"github.com/digitalevenings/cruise-ship-data-extractor/internal/adapters/obfuscation"
	"github.com/digitalevenings/cruise-ship-data-extractor/internal/adapters/scrapeproxy"
	"github.com/digitalevenings/cruise-ship-data-extractor/internal/adapters/session"
	"github.com/digitalevenings/cruise-ship-data-extractor/internal/config"
	"github.com/digitalevenings/cruise-ship-data-extractor/internal/logger"
	"github.com/digitalevenings/cruise-ship-data-extractor/internal/service"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist, environment variables might be set manually
		log.Println("No .env file found")
	}

	listingPath := flag.String("listing", "./data/ships.json", "Path to the authoritative ship listing JSON")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.ValidateFetch(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logg := logger.New("fetch")

	listing, err := service.LoadListing(*listingPath)
	if err != nil {
		logg.Error().Err(err).Msg("failed to load ship listing")
		os.Exit(1)
	}
	tasks := service.BuildFetchTasks(listing, cfg.APIBaseURL)

	// Record file is truncated here, before any batch executes.
	sink, err := localstorage.OpenRecordFile(cfg.RecordsFile)
	if err != nil {
		logg.Error().Err(err).Msg("failed to open record file")
		os.Exit(1)
	}
	defer sink.Close()

	acquirer := browser.NewHelperAcquirer(cfg.BrowserHelper, cfg.APIBaseURL, cfg.BrowserHeadless)
	sess := session.NewProvider(acquirer, cfg.CookieCacheFile, logger.New("session"))
	fetcher := scrapeproxy.New(cfg.ProxyBaseURL, cfg.ProxyAPIKey, cfg.SystemID)

	pipeline := service.NewFetchPipeline(
		fetcher,
		sess,
		obfuscation.NewBase64Decrypter(),
		sink,
		cfg.FetchConcurrency,
		logg,
	)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logg.Warn().Msg("received interrupt signal, cancelling")
		cancel()
	}()

	summary := pipeline.Run(ctx, tasks)

	fmt.Println("\n=== Fetch Summary ===")
	fmt.Printf("Total:     %d\n", len(tasks))
	fmt.Printf("Completed: %d\n", summary.Completed)
	fmt.Printf("Failed:    %d\n", summary.Failed)
	fmt.Printf("Elapsed:   %s\n", summary.Elapsed.Round(time.Millisecond))
	fmt.Printf("Records:   %s\n", cfg.RecordsFile)
}
