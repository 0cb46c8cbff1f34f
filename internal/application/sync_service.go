package application

import (
	"context"
	"fmt"
	"time"

	"shopsheet-sync/internal/domain"
	"shopsheet-sync/internal/infrastructure/metrics"
	"shopsheet-sync/internal/ports"

	"github.com/rs/zerolog"
)

const spreadsheetTitle = "Shopify Products"

// SyncService orchestrates one catalog-to-spreadsheet sync run:
// credential resolution, lease acquisition, extraction, diff, plan, and
// the single batch write.
type SyncService struct {
	connectors   ports.ConnectorRepository
	connectorSvc *ConnectorService
	extractor    *Extractor
	sheets       ports.SpreadsheetClient
	locker       ports.SyncLocker
	metrics      *metrics.SyncMetrics
	logger       zerolog.Logger
}

// NewSyncService creates a new sync orchestrator
func NewSyncService(
	connectors ports.ConnectorRepository,
	connectorSvc *ConnectorService,
	extractor *Extractor,
	sheets ports.SpreadsheetClient,
	locker ports.SyncLocker,
	syncMetrics *metrics.SyncMetrics,
	logger zerolog.Logger,
) *SyncService {
	return &SyncService{
		connectors:   connectors,
		connectorSvc: connectorSvc,
		extractor:    extractor,
		sheets:       sheets,
		locker:       locker,
		metrics:      syncMetrics,
		logger:       logger,
	}
}

// Run executes one full sync for a shop and returns its summary.
func (s *SyncService) Run(ctx context.Context, shopDomain string) (*domain.SyncSummary, error) {
	started := time.Now()

	summary, err := s.run(ctx, shopDomain)
	if err != nil {
		s.metrics.ObserveRun("failure", time.Since(started))
		return nil, err
	}

	s.metrics.ObserveRun("success", time.Since(started))
	s.metrics.ObserveSummary(summary)

	s.logger.Info().
		Str("shop", shopDomain).
		Int("added", summary.Added).
		Int("updated", summary.Updated).
		Int("unchanged", summary.Unchanged).
		Dur("elapsed", time.Since(started)).
		Msg("Sync completed")

	return summary, nil
}

func (s *SyncService) run(ctx context.Context, shopDomain string) (*domain.SyncSummary, error) {
	shopifyConn, err := s.connectors.Get(ctx, shopDomain, domain.ProviderShopify)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve shopify connector: %w", err)
	}
	if shopifyConn == nil {
		return nil, fmt.Errorf("%w: shopify connector missing for %s", domain.ErrNotConnected, shopDomain)
	}

	googleConn, err := s.connectors.Get(ctx, shopDomain, domain.ProviderGoogle)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve google connector: %w", err)
	}
	if googleConn == nil {
		return nil, fmt.Errorf("%w: google connector missing for %s", domain.ErrNotConnected, shopDomain)
	}

	// No two runs for the same shop may overlap: row indices computed by
	// the diff are only valid while the sheet is untouched.
	release, err := s.locker.Acquire(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-read the google connector under the lease: a run finishing
	// between the check above and Acquire may have recorded a locator
	// or rotated the token, and acting on the stale copy would create
	// a second spreadsheet.
	googleConn, err = s.connectors.Get(ctx, shopDomain, domain.ProviderGoogle)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve google connector: %w", err)
	}
	if googleConn == nil {
		return nil, fmt.Errorf("%w: google connector missing for %s", domain.ErrNotConnected, shopDomain)
	}

	// Token refresh happens before any catalog or spreadsheet call, and
	// the rotated token is persisted before use.
	accessToken, err := s.connectorSvc.FreshGoogleToken(ctx, googleConn)
	if err != nil {
		return nil, err
	}

	spreadsheetID, spreadsheetURL, err := s.ensureSpreadsheet(ctx, googleConn, accessToken)
	if err != nil {
		return nil, err
	}

	products, err := s.extractor.ExtractAll(ctx, shopDomain, shopifyConn.AccessToken)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.sheets.ReadSnapshot(ctx, accessToken, spreadsheetID)
	if err != nil {
		return nil, err
	}
	firstSync := len(snapshot) == 0

	diff := Diff(products, snapshot)
	ops := Plan(diff, firstSync)

	if len(ops) > 0 {
		if err := s.sheets.ApplyBatch(ctx, accessToken, spreadsheetID, ops); err != nil {
			return nil, err
		}
	}

	return &domain.SyncSummary{
		Added:          len(diff.New),
		Updated:        len(diff.Changed),
		Unchanged:      diff.Unchanged,
		SpreadsheetURL: spreadsheetURL,
	}, nil
}

// ensureSpreadsheet resolves the shop's spreadsheet, creating one and
// persisting its locator before any data write. Creation is not
// idempotent, so a locator that cannot be saved is surfaced as a
// LocatorPersistError carrying the orphaned URL rather than retried.
func (s *SyncService) ensureSpreadsheet(ctx context.Context, googleConn *domain.Connector, accessToken string) (string, string, error) {
	if googleConn.SpreadsheetURL != "" {
		id, err := s.sheets.SpreadsheetIDFromURL(googleConn.SpreadsheetURL)
		if err != nil {
			return "", "", fmt.Errorf("stored spreadsheet locator is invalid: %w", err)
		}
		return id, googleConn.SpreadsheetURL, nil
	}

	id, url, err := s.sheets.Create(ctx, accessToken, spreadsheetTitle)
	if err != nil {
		return "", "", fmt.Errorf("failed to create spreadsheet: %w", err)
	}

	if _, err := s.connectors.Upsert(ctx, googleConn.ShopDomain, domain.ProviderGoogle, domain.ConnectorUpdate{
		SpreadsheetURL: &url,
	}); err != nil {
		return "", "", &domain.LocatorPersistError{SpreadsheetURL: url, Err: err}
	}

	s.logger.Info().
		Str("shop", googleConn.ShopDomain).
		Str("spreadsheetUrl", url).
		Msg("Spreadsheet created and recorded")

	return id, url, nil
}
