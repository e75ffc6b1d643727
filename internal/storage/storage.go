package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/tranvu/amazon-product-export/internal/models"
)

// RecordStorage keeps accumulated product records in a JSON file keyed by
// ASIN, so a CLI session can scrape incrementally and export later.
type RecordStorage struct {
	mu       sync.RWMutex
	records  map[string]*models.ProductRecord
	order    []string
	filename string
}

func NewRecordStorage(filename string) (*RecordStorage, error) {
	rs := &RecordStorage{
		records:  make(map[string]*models.ProductRecord),
		filename: filename,
	}

	if err := rs.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return rs, nil
}

func (rs *RecordStorage) Add(rec *models.ProductRecord) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rec.ASIN == "" {
		return fmt.Errorf("ASIN is required")
	}

	rs.put(rec)
	return rs.save()
}

func (rs *RecordStorage) AddBatch(recs []*models.ProductRecord) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	for _, rec := range recs {
		if rec.ASIN == "" {
			continue
		}
		rs.put(rec)
	}

	return rs.save()
}

func (rs *RecordStorage) Get(asin string) (*models.ProductRecord, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	rec, ok := rs.records[asin]
	return rec, ok
}

// List returns records in first-added order.
func (rs *RecordStorage) List() []*models.ProductRecord {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	out := make([]*models.ProductRecord, 0, len(rs.order))
	for _, asin := range rs.order {
		out = append(out, rs.records[asin])
	}
	return out
}

func (rs *RecordStorage) Len() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.records)
}

func (rs *RecordStorage) put(rec *models.ProductRecord) {
	if _, ok := rs.records[rec.ASIN]; !ok {
		rs.order = append(rs.order, rec.ASIN)
	}
	rs.records[rec.ASIN] = rec
}

type storageFile struct {
	Records []*models.ProductRecord `json:"records"`
}

func (rs *RecordStorage) load() error {
	data, err := os.ReadFile(rs.filename)
	if err != nil {
		return err
	}

	var file storageFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse storage file: %w", err)
	}

	for _, rec := range file.Records {
		if rec.ASIN != "" {
			rs.put(rec)
		}
	}
	return nil
}

func (rs *RecordStorage) save() error {
	file := storageFile{Records: make([]*models.ProductRecord, 0, len(rs.order))}
	for _, asin := range rs.order {
		file.Records = append(file.Records, rs.records[asin])
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	return os.WriteFile(rs.filename, data, 0644)
}
