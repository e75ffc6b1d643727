package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tranvu/amazon-product-export/internal/models"
)

var ErrRecordNotFound = errors.New("product record not found")

// Schema reference:
//
//	CREATE TABLE product_records (
//	    asin        TEXT PRIMARY KEY,
//	    source_url  TEXT NOT NULL,
//	    title       TEXT NOT NULL DEFAULT '',
//	    is_error    BOOLEAN NOT NULL DEFAULT FALSE,
//	    record      JSONB NOT NULL,
//	    scraped_at  TIMESTAMPTZ NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
//	    updated_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
//	);

// SaveRecord upserts one extracted record keyed by ASIN. The full record
// is stored as JSONB; the scalar columns exist for querying.
func (db *DB) SaveRecord(ctx context.Context, rec *models.ProductRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	query := `
		INSERT INTO product_records (asin, source_url, title, is_error, record, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (asin) DO UPDATE SET
			source_url = EXCLUDED.source_url,
			title = EXCLUDED.title,
			is_error = EXCLUDED.is_error,
			record = EXCLUDED.record,
			scraped_at = EXCLUDED.scraped_at,
			updated_at = CURRENT_TIMESTAMP`

	_, err = db.Exec(ctx, query,
		rec.ASIN, rec.SourceURL, rec.Title, rec.IsError, payload, rec.ScrapedAt)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	return nil
}

// GetRecord loads one record by ASIN.
func (db *DB) GetRecord(ctx context.Context, asin string) (*models.ProductRecord, error) {
	var payload []byte
	err := db.QueryRow(ctx,
		`SELECT record FROM product_records WHERE asin = $1`, asin,
	).Scan(&payload)
	if err == pgx.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var rec models.ProductRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	return &rec, nil
}

// ListRecords returns records scraped since the cutoff, oldest first.
func (db *DB) ListRecords(ctx context.Context, since time.Time, limit int) ([]*models.ProductRecord, error) {
	if limit <= 0 {
		limit = 1000
	}

	rows, err := db.Query(ctx, `
		SELECT record FROM product_records
		WHERE scraped_at >= $1
		ORDER BY scraped_at ASC
		LIMIT $2`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*models.ProductRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		var rec models.ProductRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			continue
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}
