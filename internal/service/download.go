package service

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/digitalevenings/cruise-ship-data-extractor/internal/batch"
	"github.com/digitalevenings/cruise-ship-data-extractor/internal/core/domain"
	"github.com/digitalevenings/cruise-ship-data-extractor/internal/core/ports"
	"github.com/digitalevenings/cruise-ship-data-extractor/internal/logger"
)

// DownloadPipeline mirrors the image assets referenced by the record file
// into the local media tree, skipping assets already on disk.
type DownloadPipeline struct {
	downloader  ports.Downloader
	store       ports.MediaStore
	concurrency int
	log         *logger.Logger
}

// NewDownloadPipeline creates a download pipeline.
func NewDownloadPipeline(
	downloader ports.Downloader,
	store ports.MediaStore,
	concurrency int,
	log *logger.Logger,
) *DownloadPipeline {
	return &DownloadPipeline{
		downloader:  downloader,
		store:       store,
		concurrency: concurrency,
		log:         log,
	}
}

// LoadTasks reads the record file and extracts one download task per
// referenced image. An unparseable line is skipped with a warning and does
// not abort loading. Image paths that are not absolute URLs are resolved
// against assetBaseURL. Duplicate destinations are collapsed so no two
// workers ever contend on one file.
func (p *DownloadPipeline) LoadTasks(recordsPath, assetBaseURL string) ([]domain.DownloadTask, error) {
	f, err := os.Open(recordsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open record file %s: %w", recordsPath, err)
	}
	defer f.Close()

	var tasks []domain.DownloadTask
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec domain.Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			p.log.Warn().Int("line", lineNo).Err(err).Msg("skipping malformed record line")
			continue
		}
		if rec.ShipID == nil {
			p.log.Debug().Int("line", lineNo).Msg("record has no shipId, no group key for assets")
			continue
		}

		var data domain.RecordData
		if err := json.Unmarshal(rec.Data, &data); err != nil {
			p.log.Warn().Int("line", lineNo).Err(err).Msg("skipping record with malformed data payload")
			continue
		}

		for _, img := range data.Images {
			if img.Path == "" {
				continue
			}
			sourceURL := img.Path
			if !strings.HasPrefix(sourceURL, "http://") && !strings.HasPrefix(sourceURL, "https://") {
				sourceURL = assetBaseURL + img.Path
			}
			filename := path.Base(img.Path)
			relPath := filepath.Join(strconv.FormatInt(*rec.ShipID, 10), filename)
			if seen[relPath] {
				continue
			}
			seen[relPath] = true

			tasks = append(tasks, domain.DownloadTask{
				SourceURL: sourceURL,
				RelPath:   relPath,
				ShipID:    *rec.ShipID,
				Label:     relPath,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}
	return tasks, nil
}

// FilterPending returns the tasks whose destination does not yet exist,
// preserving order. Existing files are treated as complete and never
// re-fetched.
func (p *DownloadPipeline) FilterPending(tasks []domain.DownloadTask) []domain.DownloadTask {
	pending := make([]domain.DownloadTask, 0, len(tasks))
	for _, task := range tasks {
		if p.store.Exists(task.RelPath) {
			continue
		}
		pending = append(pending, task)
	}
	return pending
}

// Run filters already-downloaded assets, executes the rest in concurrency
// windows and returns the final counts including skips.
func (p *DownloadPipeline) Run(ctx context.Context, tasks []domain.DownloadTask) batch.Summary {
	runID := uuid.New().String()
	log := p.log.With().Str("run_id", runID).Logger()

	pending := p.FilterPending(tasks)
	skipped := len(tasks) - len(pending)

	log.Info().
		Int("assets", len(tasks)).
		Int("pending", len(pending)).
		Int("skipped", skipped).
		Int("concurrency", p.concurrency).
		Msg("starting download run")

	stats := batch.NewStats()
	stats.RecordSkipped(skipped)

	batch.Run(ctx, pending, p.concurrency, stats, func(ctx context.Context, task domain.DownloadTask) error {
		if err := p.downloadOne(ctx, task); err != nil {
			log.Error().Err(err).Str("asset", task.Label).Msg("✗ download failed")
			return err
		}
		log.Info().Str("asset", task.Label).Msg("✓ downloaded")
		return nil
	})

	summary := stats.Snapshot()
	log.Info().
		Int("completed", summary.Completed).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Dur("elapsed", summary.Elapsed).
		Msg("download run finished")
	return summary
}

// downloadOne streams one asset to its destination.
func (p *DownloadPipeline) downloadOne(ctx context.Context, task domain.DownloadTask) error {
	reader, size, err := p.downloader.Download(ctx, task.SourceURL)
	if err != nil {
		return err
	}
	defer reader.Close()

	written, err := p.store.Save(task.RelPath, reader)
	if err != nil {
		return err
	}
	p.log.Debug().
		Str("asset", task.Label).
		Int64("bytes", written).
		Int64("content_length", size).
		Msg("asset saved")
	return nil
}
