package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/tranvu/amazon-product-export/internal/models"
)

const downloadConcurrency = 5

type imageEntry struct {
	name string
	url  string
}

// Bundler downloads every image URL referenced by a set of records and
// packs them into one zip archive, a folder per identifier. Individual
// download failures are logged and skipped: a missing image never fails
// the bundle.
type Bundler struct {
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

func NewBundler(userAgent string, logger *slog.Logger) *Bundler {
	return &Bundler{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  userAgent,
		logger:     logger.With("component", "image_bundler"),
	}
}

// BundleImages writes the archive to w.
func (b *Bundler) BundleImages(ctx context.Context, records []*models.ProductRecord, w io.Writer) error {
	entries := collectEntries(records)

	payloads := make(map[string][]byte, len(entries))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, downloadConcurrency)

	for _, e := range entries {
		wg.Add(1)
		sem <- struct{}{}

		go func(e imageEntry) {
			defer wg.Done()
			defer func() { <-sem }()

			data, err := b.download(ctx, e.url)
			if err != nil {
				b.logger.Warn("image download failed", "url", e.url, "error", err)
				return
			}

			mu.Lock()
			payloads[e.name] = data
			mu.Unlock()
		}(e)
	}
	wg.Wait()

	zw := zip.NewWriter(w)
	for _, e := range entries {
		data, ok := payloads[e.name]
		if !ok {
			continue
		}
		fw, err := zw.Create(e.name)
		if err != nil {
			zw.Close()
			return fmt.Errorf("failed to create archive entry %s: %w", e.name, err)
		}
		if _, err := fw.Write(data); err != nil {
			zw.Close()
			return fmt.Errorf("failed to write archive entry %s: %w", e.name, err)
		}
	}

	return zw.Close()
}

// BundleImagesToFile writes the archive to a file at p.
func (b *Bundler) BundleImagesToFile(ctx context.Context, records []*models.ProductRecord, p string) error {
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer f.Close()

	return b.BundleImages(ctx, records, f)
}

func collectEntries(records []*models.ProductRecord) []imageEntry {
	var entries []imageEntry
	seen := make(map[string]bool)

	add := func(folder, url string) {
		if url == "" {
			return
		}
		name := folder + "/" + archiveFilename(url)
		if seen[name] {
			return
		}
		seen[name] = true
		entries = append(entries, imageEntry{name: name, url: url})
	}

	for _, rec := range records {
		for _, url := range rec.MainImages {
			add(rec.ASIN, url)
		}
		for asin, images := range rec.HiResImagesByASIN {
			folder := rec.ASIN
			if asin != rec.MainImageASIN {
				folder = rec.ASIN + "/" + asin
			}
			for _, url := range images {
				add(folder, url)
			}
		}
	}

	return entries
}

func archiveFilename(url string) string {
	name := path.Base(url)
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	if name == "" || name == "." || name == "/" {
		name = "image.jpg"
	}
	return name
}

func (b *Bundler) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", b.userAgent)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}
