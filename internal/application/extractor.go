package application

import (
	"context"

	"shopsheet-sync/internal/domain"
	"shopsheet-sync/internal/ports"

	"github.com/rs/zerolog"
)

// Extractor drains the full product catalog through cursor pagination.
type Extractor struct {
	source   ports.CatalogSource
	pageSize int
	logger   zerolog.Logger
}

// NewExtractor creates a new catalog extractor
func NewExtractor(source ports.CatalogSource, pageSize int, logger zerolog.Logger) *Extractor {
	return &Extractor{
		source:   source,
		pageSize: pageSize,
		logger:   logger,
	}
}

// ExtractAll fetches every page in source order and returns the
// concatenated catalog. Each page's cursor depends on the previous
// response, so pages are fetched strictly sequentially. Any page failure
// aborts the whole extraction; no partial catalog is returned.
func (e *Extractor) ExtractAll(ctx context.Context, shopDomain, accessToken string) ([]domain.Product, error) {
	var products []domain.Product
	cursor := ""

	for {
		page, err := e.source.Page(ctx, shopDomain, accessToken, cursor, e.pageSize)
		if err != nil {
			return nil, &domain.ExtractionError{Err: err}
		}

		products = append(products, page.Items...)

		if !page.HasNextPage {
			break
		}
		cursor = page.EndCursor
	}

	e.logger.Info().
		Str("shop", shopDomain).
		Int("products", len(products)).
		Msg("Extracted catalog")

	return products, nil
}
