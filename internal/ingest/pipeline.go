package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hhdata/vacancy-ingest/internal/hh"
	"github.com/hhdata/vacancy-ingest/internal/metrics"
)

// progressEvery controls how often the pipeline logs a progress line.
const progressEvery = 100

// Config controls optional Pipeline behavior.
type Config struct {
	Search hh.SearchParameters
	// ArchivePrefix prefixes archived raw-page object paths.
	ArchivePrefix string
	// Topic names the run-summary event topic; empty disables publishing.
	Topic string
}

// Pipeline composes fetching, normalization and persistence for one run.
// Per-record failures are absorbed into counters; only startup failures and
// context cancellation abort a run.
type Pipeline struct {
	client    Lister
	store     Store
	publisher Publisher
	archive   BlobStore
	clock     Clock
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Pipeline. publisher and archive may be nil.
func New(
	client Lister,
	store Store,
	publisher Publisher,
	archive BlobStore,
	clock Clock,
	cfg Config,
	logger *zap.Logger,
) *Pipeline {
	if cfg.ArchivePrefix == "" {
		cfg.ArchivePrefix = "pages"
	}
	return &Pipeline{
		client:    client,
		store:     store,
		publisher: publisher,
		archive:   archive,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// runSummary is the payload published at the end of a run.
type runSummary struct {
	RunID      string    `json:"run_id"`
	ParsedAt   time.Time `json:"parsed_at"`
	Processed  int       `json:"processed"`
	Errors     int       `json:"errors"`
	Skipped    int       `json:"skipped"`
	FinishedAt time.Time `json:"finished_at"`
}

// Run executes one full ingestion run: dictionary refresh, then the listing
// walk. It returns the accumulated counters; the error is non-nil only for
// startup-phase failures and context cancellation.
func (p *Pipeline) Run(ctx context.Context) (Counters, error) {
	run := NewRunContext(p.clock)
	p.logger.Info("ingestion run starting",
		zap.String("run_id", run.RunID.String()),
		zap.Time("parsed_at", run.ParsedAt))

	if err := p.refreshDictionaries(ctx); err != nil {
		return Counters{}, err
	}

	var counters Counters
	onItem := func(raw RawVacancy) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.processRecord(ctx, raw, run, &counters)
		return nil
	}

	if err := p.client.ListVacancies(ctx, p.cfg.Search, p.pageArchiver(ctx, run), onItem); err != nil {
		return counters, fmt.Errorf("list vacancies: %w", err)
	}

	p.logger.Info("ingestion run finished",
		zap.String("run_id", run.RunID.String()),
		zap.Int("processed", counters.Processed),
		zap.Int("errors", counters.Errors),
		zap.Int("skipped", counters.Skipped))

	p.publishSummary(ctx, run, counters)
	return counters, nil
}

// refreshDictionaries upserts the area and role dimensions. A fetch that
// yields no data is logged and skipped; a persistence failure at this stage
// indicates a broken store and aborts the run.
func (p *Pipeline) refreshDictionaries(ctx context.Context) error {
	tree, err := p.client.Areas(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Warn("area catalog unavailable, keeping previous rows", zap.Error(err))
	} else if rows := FlattenAreas(tree); len(rows) > 0 {
		if err := p.store.UpsertAreas(ctx, rows); err != nil {
			return fmt.Errorf("upsert areas: %w", err)
		}
		metrics.AddDimensionRows("areas", len(rows))
		p.logger.Info("area catalog refreshed", zap.Int("rows", len(rows)))
	}

	catalog, err := p.client.ProfessionalRoles(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Warn("role catalog unavailable, keeping previous rows", zap.Error(err))
		return nil
	}
	categories, roles := FlattenRoles(catalog)
	if len(categories) == 0 && len(roles) == 0 {
		return nil
	}
	if err := p.store.UpsertRoleCatalog(ctx, categories, roles); err != nil {
		return fmt.Errorf("upsert role catalog: %w", err)
	}
	metrics.AddDimensionRows("role_categories", len(categories))
	metrics.AddDimensionRows("roles", len(roles))
	p.logger.Info("role catalog refreshed",
		zap.Int("categories", len(categories)),
		zap.Int("roles", len(roles)))
	return nil
}

// processRecord handles one raw vacancy end to end. Failures never escape:
// they are logged, counted and the run moves on.
func (p *Pipeline) processRecord(ctx context.Context, raw RawVacancy, run RunContext, counters *Counters) {
	vacancy, employer, roles, err := NormalizeVacancy(raw, run)
	if err != nil {
		counters.Errors++
		metrics.IncVacancy("error")
		p.logger.Error("vacancy normalization failed",
			zap.String("vacancy_id", rawVacancyID(raw)),
			zap.Error(err))
		return
	}

	if employer == nil {
		counters.Skipped++
		metrics.IncVacancy("skipped")
		p.logger.Warn("vacancy without employer skipped",
			zap.Int64("vacancy_id", vacancy.SourceID))
		return
	}

	if err := p.store.UpsertEmployer(ctx, *employer); err != nil {
		counters.Errors++
		metrics.IncVacancy("error")
		p.logger.Error("employer upsert failed",
			zap.Int64("vacancy_id", vacancy.SourceID),
			zap.Int64("employer_id", employer.ID),
			zap.Error(err))
		return
	}

	if err := p.store.InsertVacancy(ctx, vacancy, roles); err != nil {
		counters.Errors++
		metrics.IncVacancy("error")
		p.logger.Error("vacancy insert failed",
			zap.Int64("vacancy_id", vacancy.SourceID),
			zap.Error(err))
		return
	}

	counters.Processed++
	metrics.IncVacancy("processed")
	if counters.Processed%progressEvery == 0 {
		p.logger.Info("progress",
			zap.Int("processed", counters.Processed),
			zap.Int("errors", counters.Errors),
			zap.Int("skipped", counters.Skipped))
	}
}

// pageArchiver returns a page handler that stores each raw listing page, or
// nil when archiving is disabled. Archive failures are logged, never fatal.
func (p *Pipeline) pageArchiver(ctx context.Context, run RunContext) hh.PageHandler {
	if p.archive == nil {
		return func(int, json.RawMessage) error {
			metrics.IncPage()
			return nil
		}
	}
	return func(page int, raw json.RawMessage) error {
		metrics.IncPage()
		path := fmt.Sprintf("%s/%s/page-%04d.json", p.cfg.ArchivePrefix, run.RunID, page)
		putCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		uri, err := p.archive.PutObject(putCtx, path, "application/json", bytes.NewReader(raw))
		if err != nil {
			p.logger.Warn("raw page archive failed",
				zap.Int("page", page),
				zap.Error(err))
			return nil
		}
		p.logger.Debug("raw page archived",
			zap.Int("page", page),
			zap.String("uri", uri))
		return nil
	}
}

func (p *Pipeline) publishSummary(ctx context.Context, run RunContext, counters Counters) {
	if p.publisher == nil || p.cfg.Topic == "" {
		return
	}
	summary := runSummary{
		RunID:      run.RunID.String(),
		ParsedAt:   run.ParsedAt,
		Processed:  counters.Processed,
		Errors:     counters.Errors,
		Skipped:    counters.Skipped,
		FinishedAt: p.clock.Now(),
	}
	if _, err := p.publisher.Publish(ctx, p.cfg.Topic, summary); err != nil {
		p.logger.Warn("run summary publish failed", zap.Error(err))
	}
}

// rawVacancyID best-effort extracts the source id for log context.
func rawVacancyID(raw RawVacancy) string {
	var probe struct {
		ID *string `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil || probe.ID == nil {
		return "unknown"
	}
	return *probe.ID
}
