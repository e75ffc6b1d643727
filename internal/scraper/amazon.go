package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/tranvu/amazon-product-export/internal/models"
	"github.com/tranvu/amazon-product-export/internal/parser"
)

const (
	amazonBaseURL     = "https://www.amazon.com"
	productURLPattern = `/dp/([A-Z0-9]{10})`
)

var asinFromURL = regexp.MustCompile(productURLPattern)

type AmazonScraper struct {
	fetcher Fetcher
	parser  parser.Parser
	logger  *slog.Logger
}

func NewAmazonScraper(f Fetcher, p parser.Parser, logger *slog.Logger) *AmazonScraper {
	return &AmazonScraper{
		fetcher: f,
		parser:  p,
		logger:  logger.With("component", "scraper"),
	}
}

// ResolveASIN accepts either a bare ASIN or a full product URL and returns
// the canonical identifier plus the page URL to fetch. A URL without a
// recognizable /dp/<ASIN> segment is invalid input.
func (s *AmazonScraper) ResolveASIN(identifier string) (string, string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", "", ErrInvalidInput
	}

	if strings.HasPrefix(identifier, "http") {
		matches := asinFromURL.FindStringSubmatch(identifier)
		if len(matches) < 2 {
			return "", "", fmt.Errorf("%w: no ASIN in URL %q", ErrInvalidInput, identifier)
		}
		return matches[1], identifier, nil
	}

	return identifier, fmt.Sprintf("%s/dp/%s", amazonBaseURL, identifier), nil
}

// ExtractProduct runs the whole pipeline for one identifier. Only input
// validation can fail; any fetch or parse problem is absorbed into an
// error-shaped record so one bad identifier never interrupts a batch.
func (s *AmazonScraper) ExtractProduct(ctx context.Context, identifier, nicheHint, credential string) (rec *models.ProductRecord, err error) {
	if credential == "" {
		return nil, ErrMissingCredential
	}

	asin, url, err := s.ResolveASIN(identifier)
	if err != nil {
		return nil, err
	}

	// The page markup is adversarial; whatever the parse does, the
	// caller gets a record.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("extraction panicked", "asin", asin, "panic", r)
			rec, err = NewErrorRecord(asin, url), nil
		}
	}()

	s.logger.Info("extracting product", "asin", asin, "url", url, "niche", nicheHint)

	html, err := s.fetcher.FetchMarkup(ctx, url, credential)
	if err != nil {
		s.logger.Warn("fetch failed, returning error record", "asin", asin, "error", err)
		return NewErrorRecord(asin, url), nil
	}

	rec, err = s.parser.ParseProductPage(html, asin, url)
	if err != nil {
		s.logger.Warn("parse failed, returning error record", "asin", asin, "error", err)
		return NewErrorRecord(asin, url), nil
	}

	return rec, nil
}

// NewErrorRecord is the degraded-but-complete fallback shape: uniform
// placeholders in every text field, empty image collections. Batch
// callers depend on always receiving a renderable record per identifier.
func NewErrorRecord(asin, url string) *models.ProductRecord {
	rec := models.NewProductRecord(asin, url)
	rec.IsError = true

	rec.Title = errPlaceholder("title")
	rec.Price = errPlaceholder("price")
	rec.Category = errPlaceholder("category")
	rec.SubCategory = errPlaceholder("sub-category")
	rec.StockStatus = errPlaceholder("stock status")
	rec.ShipsFrom = errPlaceholder("ships from")
	rec.SoldBy = errPlaceholder("sold by")
	rec.PrimaryDeliveryInfo = errPlaceholder("primary delivery info")
	rec.SecondaryDeliveryInfo = errPlaceholder("secondary delivery info")
	rec.PrimeIndicator = errPlaceholder("prime status")
	rec.Description = errPlaceholder("description")
	rec.Ingredients = errPlaceholder("ingredients")
	rec.DetailsSecondary = errPlaceholder("product details")
	rec.VariantsText = errPlaceholder("variant information")
	rec.MainImageASIN = asin

	return rec
}

func errPlaceholder(field string) string {
	return fmt.Sprintf("an error occurred fetching %s", field)
}
