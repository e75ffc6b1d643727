package scraper

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvu/amazon-product-export/internal/parser"
)

type stubFetcher struct {
	html    string
	err     error
	lastURL string
	calls   int
}

func (f *stubFetcher) FetchMarkup(ctx context.Context, url, credential string) (string, error) {
	f.calls++
	f.lastURL = url
	return f.html, f.err
}

func newTestScraper(f Fetcher) *AmazonScraper {
	return NewAmazonScraper(f, parser.NewAmazonParser(), slog.Default())
}

func TestResolveASIN(t *testing.T) {
	s := newTestScraper(&stubFetcher{})

	tests := []struct {
		name         string
		identifier   string
		expectedASIN string
		expectedURL  string
		wantErr      bool
	}{
		{
			name:         "bare ASIN",
			identifier:   "B0EXAMPLE1",
			expectedASIN: "B0EXAMPLE1",
			expectedURL:  "https://www.amazon.com/dp/B0EXAMPLE1",
		},
		{
			name:         "full product URL",
			identifier:   "https://www.amazon.com/Acme-Protein/dp/B0EXAMPLE1/ref=sr_1_1?keywords=protein",
			expectedASIN: "B0EXAMPLE1",
			expectedURL:  "https://www.amazon.com/Acme-Protein/dp/B0EXAMPLE1/ref=sr_1_1?keywords=protein",
		},
		{
			name:         "identifier with surrounding whitespace",
			identifier:   "  B0EXAMPLE1  ",
			expectedASIN: "B0EXAMPLE1",
			expectedURL:  "https://www.amazon.com/dp/B0EXAMPLE1",
		},
		{
			name:       "URL without dp segment",
			identifier: "https://www.amazon.com/gp/bestsellers",
			wantErr:    true,
		},
		{
			name:       "empty identifier",
			identifier: "",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asin, url, err := s.ResolveASIN(tt.identifier)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedASIN, asin)
			assert.Equal(t, tt.expectedURL, url)
		})
	}
}

func TestExtractProductResolvesBeforeFetch(t *testing.T) {
	fetcher := &stubFetcher{html: "<html><body></body></html>"}
	s := newTestScraper(fetcher)

	rec, err := s.ExtractProduct(context.Background(), "B0EXAMPLE1", "", "test-key")
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, "https://www.amazon.com/dp/B0EXAMPLE1", fetcher.lastURL)
	assert.Equal(t, "B0EXAMPLE1", rec.ASIN)
	assert.False(t, rec.IsError)
}

func TestExtractProductInvalidInputPropagates(t *testing.T) {
	fetcher := &stubFetcher{}
	s := newTestScraper(fetcher)

	rec, err := s.ExtractProduct(context.Background(), "https://www.amazon.com/gp/bestsellers", "", "test-key")

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Nil(t, rec)
	assert.Zero(t, fetcher.calls, "invalid input must not reach the fetcher")
}

func TestExtractProductMissingCredential(t *testing.T) {
	fetcher := &stubFetcher{}
	s := newTestScraper(fetcher)

	rec, err := s.ExtractProduct(context.Background(), "B0EXAMPLE1", "", "")

	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Nil(t, rec)
	assert.Zero(t, fetcher.calls)
}

func TestExtractProductFetchFailureYieldsErrorRecord(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("proxy unreachable")}
	s := newTestScraper(fetcher)

	rec, err := s.ExtractProduct(context.Background(), "B0EXAMPLE1", "", "test-key")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.True(t, rec.IsError)
	assert.Equal(t, "B0EXAMPLE1", rec.ASIN)
	assert.Equal(t, "an error occurred fetching title", rec.Title)
	assert.Equal(t, "an error occurred fetching price", rec.Price)
	assert.Equal(t, "an error occurred fetching variant information", rec.VariantsText)
	assert.NotNil(t, rec.MainImages)
	assert.Empty(t, rec.MainImages)
	assert.Equal(t, "B0EXAMPLE1", rec.MainImageASIN)
}

func TestNewErrorRecordShape(t *testing.T) {
	rec := NewErrorRecord("B0EXAMPLE1", "https://www.amazon.com/dp/B0EXAMPLE1")

	assert.True(t, rec.IsError)
	assert.Equal(t, "an error occurred fetching sub-category", rec.SubCategory)
	assert.Equal(t, "an error occurred fetching product details", rec.DetailsSecondary)
	assert.NotNil(t, rec.HiResImagesByASIN)
	assert.Empty(t, rec.HiResImagesByASIN)
	assert.Equal(t, 0, rec.DetailsTable.Len())
}
