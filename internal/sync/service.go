package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/peteski22/campaignsync/internal/retry"
	"github.com/peteski22/campaignsync/internal/storage"
)

// Config holds the required configuration for creating a Service.
type Config struct {
	// DryRun logs spreadsheet writes instead of executing them.
	DryRun bool

	// Logger is the structured logger for the service.
	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Recorder keeps the last successful run time. Optional.
	Recorder RunRecorder

	// Reporting is the Mailjet statistics client.
	Reporting ReportingAPI

	// SheetPrefix is prepended to dataset names to form sheet titles.
	SheetPrefix string

	// Sleep replaces the wait between retries. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error

	// Store is the destination spreadsheet.
	Store TabularStore
}

// validate checks that all required Config fields are set.
func (c *Config) validate() error {
	var errs []error
	if c.Reporting == nil {
		errs = append(errs, errors.New("reporting client is required"))
	}
	if c.Store == nil {
		errs = append(errs, errors.New("tabular store is required"))
	}
	if c.SheetPrefix == "" {
		errs = append(errs, errors.New("sheet prefix is required"))
	}
	return errors.Join(errs...)
}

// Service runs the incremental sync from Mailjet to the spreadsheet.
type Service struct {
	dryRun    bool
	logger    *slog.Logger
	now       func() time.Time
	prefix    string
	recorder  RunRecorder
	reporting ReportingAPI
	sleep     func(ctx context.Context, d time.Duration) error
	store     TabularStore
}

// New creates a new sync service.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	store := cfg.Store
	if cfg.DryRun {
		store = newDryRunStore(cfg.Store, logger)
	}

	return &Service{
		dryRun:    cfg.DryRun,
		logger:    logger,
		now:       now,
		prefix:    cfg.SheetPrefix,
		recorder:  cfg.Recorder,
		reporting: cfg.Reporting,
		sleep:     cfg.Sleep,
		store:     store,
	}, nil
}

// Run executes a full sync cycle: read the sheet state, list campaigns,
// fetch their statistics and write the resulting rows.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	logger := s.logger.With("run_id", runID)
	now := s.now()

	result := &Result{DryRun: s.dryRun, RunID: runID}

	state, err := s.loadState(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("loading sheet state: %w", err)
	}
	result.LastCampaignDate = formatDate(state.LastCampaignDate)

	s.logPreviousRun(ctx, logger, result.LastCampaignDate)
	state.CampaignPeriod = inferPeriod(state.LastCampaignDate, now)
	result.Period = state.CampaignPeriod

	window := computeWindow(state.LastCampaignDate, now)
	result.WindowFrom = window.FromTS()
	result.WindowTo = window.ToTS()
	result.CountersSkipped = window.Empty()

	logger.InfoContext(ctx, "starting sync",
		"dry_run", s.dryRun,
		"has_headers", state.headersPresent(),
		"last_campaign_date", formatDate(state.LastCampaignDate),
		"period", state.CampaignPeriod,
		"window_from", result.WindowFrom,
		"window_to", result.WindowTo)

	campaigns, err := s.listCampaigns(ctx, logger, state.CampaignPeriod)
	if err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}

	if state.headersPresent() {
		if err := s.indexExisting(ctx, logger, state, campaigns); err != nil {
			return nil, fmt.Errorf("indexing existing rows: %w", err)
		}
	}

	if window.Empty() {
		logger.InfoContext(ctx, "no new days to report, skipping daily counters")
	}

	f := &fetcher{
		api:    s.reporting,
		logger: logger,
		policy: s.policy,
		result: result,
		state:  state,
	}
	for _, c := range campaigns {
		if err := f.fetchCampaign(ctx, c, window); err != nil {
			return nil, fmt.Errorf("fetching campaign %d: %w", c.ID, err)
		}
		result.Campaigns++
	}

	if err := s.write(ctx, logger, f.instructions, result); err != nil {
		return nil, fmt.Errorf("writing rows: %w", err)
	}

	if s.recorder != nil && !s.dryRun {
		status := storage.RunStatus{LastCampaignDate: result.LastCampaignDate, RunAt: now}
		if err := s.recorder.RecordRun(ctx, status); err != nil {
			return nil, fmt.Errorf("recording run: %w", err)
		}
	}

	logger.InfoContext(ctx, "sync complete",
		"campaigns", result.Campaigns,
		"appended", result.Appended.Total(),
		"updated", result.Updated.Total(),
		"duplicates", result.Duplicates.Total(),
		"header_writes", result.HeaderWrites,
		"last_campaign_date", result.LastCampaignDate,
		"batches", result.Batches,
		"expansions", result.Expansions,
		"counters_skipped", result.CountersSkipped)

	return result, nil
}

// logPreviousRun logs the last recorded run and warns when the campaign sheet now ends
// before the date that run left behind, which means rows were removed by hand.
func (s *Service) logPreviousRun(ctx context.Context, logger *slog.Logger, sheetDate string) {
	if s.recorder == nil {
		return
	}

	last, err := s.recorder.LastRun(ctx)
	if err != nil {
		logger.WarnContext(ctx, "reading last run status", "error", err)
		return
	}
	if last.RunAt.IsZero() {
		return
	}

	logger.InfoContext(ctx, "previous successful run",
		"at", last.RunAt,
		"last_campaign_date", last.LastCampaignDate)

	if last.LastCampaignDate != "" && sheetDate < last.LastCampaignDate {
		logger.WarnContext(ctx, "campaign sheet ends before the last recorded run",
			"recorded_date", last.LastCampaignDate,
			"sheet_date", sheetDate)
	}
}

// policy returns the retry policy for an operation; spreadsheet calls back off longer.
func (s *Service) policy(name string, store bool) retry.Policy {
	p := retry.Default(name)
	if store {
		p = retry.Store(name)
	}
	p.Logger = s.logger
	p.Sleep = s.sleep
	return p
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
