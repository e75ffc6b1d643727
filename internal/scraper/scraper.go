package scraper

import (
	"context"
	"errors"

	"github.com/tranvu/amazon-product-export/internal/models"
)

var (
	ErrInvalidInput      = errors.New("invalid ASIN or product URL")
	ErrMissingCredential = errors.New("proxy API key is required")
)

// Scraper extracts one ProductRecord per identifier. Past input
// validation it never fails: fetch and parse problems come back as an
// error-shaped record so batch callers always receive a row.
type Scraper interface {
	ExtractProduct(ctx context.Context, identifier, nicheHint, credential string) (*models.ProductRecord, error)
	ResolveASIN(identifier string) (asin string, url string, err error)
}

// Fetcher is the opaque raw-markup collaborator (the HTML proxy service).
type Fetcher interface {
	FetchMarkup(ctx context.Context, url, credential string) (string, error)
}
