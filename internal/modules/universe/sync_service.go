package universe

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wealthnest/engine/internal/clients/fundfeed"
	"github.com/wealthnest/engine/internal/domain"
)

// FundFetcher pulls the raw fund list from the upstream feed.
// The fundfeed client implements it; tests substitute fixtures.
type FundFetcher interface {
	GetFunds(ctx context.Context) ([]fundfeed.FeedFund, error)
}

// SyncService refreshes the universe index from the feed.
type SyncService struct {
	fetcher FundFetcher
	repo    *Repository
	log     zerolog.Logger
}

// NewSyncService creates a new universe sync service
func NewSyncService(fetcher FundFetcher, repo *Repository, log zerolog.Logger) *SyncService {
	return &SyncService{
		fetcher: fetcher,
		repo:    repo,
		log:     log.With().Str("service", "universe_sync").Logger(),
	}
}

// Sync pulls the fund list from the feed and replaces the index.
// A failed fetch leaves the previous universe untouched: stale data
// beats no data for a recommendation engine.
func (s *SyncService) Sync(ctx context.Context) (*SyncRun, error) {
	run := SyncRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Status:    "running",
	}
	if err := s.repo.RecordSyncStart(run); err != nil {
		return nil, err
	}

	feedFunds, err := s.fetcher.GetFunds(ctx)
	if err != nil {
		_ = s.repo.RecordSyncFinish(run.ID, 0, err)
		return nil, fmt.Errorf("universe sync failed: %w", err)
	}

	funds := make([]Fund, 0, len(feedFunds))
	for _, ff := range feedFunds {
		funds = append(funds, mapFeedFund(ff))
	}

	if err := s.repo.ReplaceAll(funds); err != nil {
		_ = s.repo.RecordSyncFinish(run.ID, 0, err)
		return nil, fmt.Errorf("universe sync failed: %w", err)
	}

	if err := s.repo.RecordSyncFinish(run.ID, len(funds), nil); err != nil {
		return nil, err
	}

	run.FundCount = len(funds)
	run.Status = "completed"

	s.log.Info().
		Str("run_id", run.ID).
		Int("funds", len(funds)).
		Msg("Universe synced")

	return &run, nil
}

// mapFeedFund converts a feed row to a universe fund. The feed's own
// asset class tag wins when it parses; otherwise the scheme category
// decides.
func mapFeedFund(ff fundfeed.FeedFund) Fund {
	assetClass, err := domain.ParseAssetClass(ff.AssetClass)
	if err != nil {
		assetClass = domain.AssetClassForCategory(ff.Category)
	}

	return Fund{
		SchemeCode:   ff.SchemeCode,
		SchemeName:   ff.SchemeName,
		FundHouse:    ff.FundHouse,
		Category:     ff.Category,
		AssetClass:   assetClass,
		NAV:          ff.NAV,
		ExpenseRatio: ff.ExpenseRatio,
		AUM:          ff.AUM,
		Return1Y:     ff.Return1Y,
		Return3Y:     ff.Return3Y,
		Return5Y:     ff.Return5Y,
		SharpeRatio:  ff.SharpeRatio,
		Volatility:   ff.Volatility,
		RiskGrade:    ff.RiskGrade,
	}
}

// SyncJob adapts the sync service to the scheduler's Job interface.
type SyncJob struct {
	service *SyncService
	timeout time.Duration
}

// NewSyncJob creates a scheduler job that refreshes the universe
func NewSyncJob(service *SyncService, timeout time.Duration) *SyncJob {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &SyncJob{service: service, timeout: timeout}
}

// Name returns the job name for scheduler logging
func (j *SyncJob) Name() string {
	return "universe-sync"
}

// Run refreshes the universe once
func (j *SyncJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	_, err := j.service.Sync(ctx)
	return err
}
