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

	"github.com/digitalevenings/cruise-ship-data-extractor/internal/adapters/downloader"
	"github.com/digitalevenings/cruise-ship-data-extractor/internal/adapters/localstorage"
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

	recordsPath := flag.String("records", "", "Path to the record file (defaults to RECORDS_FILE)")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.ValidateDownload(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if *recordsPath == "" {
		*recordsPath = cfg.RecordsFile
	}

	logg := logger.New("download")

	store := localstorage.NewMediaStore(cfg.MediaDir)
	pipeline := service.NewDownloadPipeline(
		downloader.NewHTTPDownloader(),
		store,
		cfg.DownloadConcurrency,
		logg,
	)

	tasks, err := pipeline.LoadTasks(*recordsPath, cfg.APIBaseURL)
	if err != nil {
		logg.Error().Err(err).Msg("failed to load download tasks")
		os.Exit(1)
	}

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

	fmt.Println("\n=== Download Summary ===")
	fmt.Printf("Total:     %d\n", len(tasks))
	fmt.Printf("Completed: %d\n", summary.Completed)
	fmt.Printf("Skipped:   %d\n", summary.Skipped)
	fmt.Printf("Failed:    %d\n", summary.Failed)
	fmt.Printf("Elapsed:   %s\n", summary.Elapsed.Round(time.Millisecond))
	fmt.Printf("Media:     %s\n", cfg.MediaDir)
}
