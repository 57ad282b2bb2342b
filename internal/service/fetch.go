package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/digitalevenings/cruise-ship-data-extractor/internal/batch"
	"github.com/digitalevenings/cruise-ship-data-extractor/internal/core/domain"
	"github.com/digitalevenings/cruise-ship-data-extractor/internal/core/ports"
	"github.com/digitalevenings/cruise-ship-data-extractor/internal/logger"
)

const recordTypeShip = "ship"

// FetchPipeline fetches ship records through the proxy service and appends
// them to the record sink.
type FetchPipeline struct {
	fetcher     ports.Fetcher
	session     ports.Session
	decrypter   ports.Decrypter
	sink        ports.RecordSink
	concurrency int
	log         *logger.Logger
}

// NewFetchPipeline creates a fetch pipeline.
func NewFetchPipeline(
	fetcher ports.Fetcher,
	session ports.Session,
	decrypter ports.Decrypter,
	sink ports.RecordSink,
	concurrency int,
	log *logger.Logger,
) *FetchPipeline {
	return &FetchPipeline{
		fetcher:     fetcher,
		session:     session,
		decrypter:   decrypter,
		sink:        sink,
		concurrency: concurrency,
		log:         log,
	}
}

// LoadListing reads the authoritative ship listing. A missing or malformed
// file, or a listing with zero ships, is a fatal startup error.
func LoadListing(path string) (*domain.ShipListing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing %s: %w", path, err)
	}
	var listing domain.ShipListing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("malformed listing %s: %w", path, err)
	}
	if len(listing.Ships) == 0 {
		return nil, fmt.Errorf("listing %s contains no ships", path)
	}
	return &listing, nil
}

// BuildFetchTasks resolves listing entries into fetch tasks against the
// given API base URL. Entries without a path fall back to /ships/<id>.
func BuildFetchTasks(listing *domain.ShipListing, apiBaseURL string) []domain.FetchTask {
	tasks := make([]domain.FetchTask, 0, len(listing.Ships))
	for _, entry := range listing.Ships {
		sourceURL := apiBaseURL + entry.Path
		if entry.Path == "" {
			sourceURL = fmt.Sprintf("%s/ships/%d", apiBaseURL, entry.ID)
		}
		tasks = append(tasks, domain.FetchTask{
			ShipID:    entry.ID,
			SourceURL: sourceURL,
			Filter:    entry.Filter,
			Encrypted: entry.Encrypted,
		})
	}
	return tasks
}

// Run executes all tasks in concurrency windows and returns the final
// counts. Per-item failures are counted, not propagated.
func (p *FetchPipeline) Run(ctx context.Context, tasks []domain.FetchTask) batch.Summary {
	runID := uuid.New().String()
	log := p.log.With().Str("run_id", runID).Logger()
	log.Info().Int("ships", len(tasks)).Int("concurrency", p.concurrency).Msg("starting fetch run")

	stats := batch.NewStats()
	batch.Run(ctx, tasks, p.concurrency, stats, func(ctx context.Context, task domain.FetchTask) error {
		if err := p.fetchOne(ctx, task); err != nil {
			log.Error().Err(err).Int64("ship_id", task.ShipID).Msg("✗ fetch failed")
			return err
		}
		log.Info().Int64("ship_id", task.ShipID).Msg("✓ fetched")
		return nil
	})

	summary := stats.Snapshot()
	log.Info().
		Int("completed", summary.Completed).
		Int("failed", summary.Failed).
		Dur("elapsed", summary.Elapsed).
		Msg("fetch run finished")
	return summary
}

// fetchOne performs one authorized fetch. An unauthorized response triggers
// exactly one session refresh and retry; the retry's failure settles the
// item. The record line is appended before returning so a crash mid-run
// never loses fetched records.
func (p *FetchPipeline) fetchOne(ctx context.Context, task domain.FetchTask) error {
	cookie, err := p.session.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	req := ports.FetchRequest{URL: task.SourceURL, Filter: task.Filter}
	body, err := p.fetcher.Fetch(ctx, req, cookie)
	if errors.Is(err, ports.ErrUnauthorized) {
		cookie, err = p.session.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("failed to refresh session: %w", err)
		}
		body, err = p.fetcher.Fetch(ctx, req, cookie)
	}
	if err != nil {
		return err
	}

	if task.Encrypted {
		body, err = p.decrypter.Decrypt(body)
		if err != nil {
			return fmt.Errorf("failed to decrypt payload: %w", err)
		}
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return fmt.Errorf("response has no data field")
	}

	shipID := task.ShipID
	rec := domain.Record{
		Timestamp: time.Now().UTC(),
		Source:    task.SourceURL,
		Type:      recordTypeShip,
		ShipID:    &shipID,
		Data:      envelope.Data,
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	if err := p.sink.AppendLine(line); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}
