package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"gmaps-scraper/models"
)

const (
	insertBatchSize = 50
	placeColumns    = 8
)

// PostgresWriter mirrors accepted listings into PostgreSQL, keyed by URL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS places (
			id             SERIAL PRIMARY KEY,
			name           TEXT        NOT NULL,
			address        TEXT        NOT NULL,
			phone          TEXT        NOT NULL DEFAULT '',
			url            TEXT        UNIQUE NOT NULL,
			hours          TEXT        NOT NULL DEFAULT '',
			review_count   TEXT        NOT NULL DEFAULT '',
			review_average TEXT        NOT NULL DEFAULT '',
			social_links   TEXT[]      NOT NULL DEFAULT '{}',
			scraped_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_places_name ON places(name);
	`)
	return err
}

// Write upserts listings in batches. A listing already stored under the same
// URL is refreshed with the new values.
func (pw *PostgresWriter) Write(ctx context.Context, listings []models.Listing) error {
	for i := 0; i < len(listings); i += insertBatchSize {
		end := i + insertBatchSize
		if end > len(listings) {
			end = len(listings)
		}
		query, args := buildUpsert(dedupeByURL(listings[i:end]))
		if _, err := pw.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: upsert batch at %d: %w", i, err)
		}
	}
	return nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// dedupeByURL keeps the last listing for each URL. Postgres rejects an
// ON CONFLICT DO UPDATE statement that touches the same row twice.
func dedupeByURL(batch []models.Listing) []models.Listing {
	index := make(map[string]int, len(batch))
	out := make([]models.Listing, 0, len(batch))
	for _, l := range batch {
		if i, ok := index[l.URL]; ok {
			out[i] = l
			continue
		}
		index[l.URL] = len(out)
		out = append(out, l)
	}
	return out
}

func buildUpsert(batch []models.Listing) (string, []interface{}) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*placeColumns)

	for idx, l := range batch {
		base := idx * placeColumns
		placeholders := make([]string, placeColumns)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		links := l.SocialLinks
		if links == nil {
			links = []string{}
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			l.Name, l.Address, l.Phone, l.URL, l.Hours,
			l.Reviews.Count, l.Reviews.Average, pq.Array(links))
	}

	query := fmt.Sprintf(`
		INSERT INTO places (name, address, phone, url, hours, review_count, review_average, social_links)
		VALUES %s
		ON CONFLICT (url) DO UPDATE SET
			name           = EXCLUDED.name,
			address        = EXCLUDED.address,
			phone          = EXCLUDED.phone,
			hours          = EXCLUDED.hours,
			review_count   = EXCLUDED.review_count,
			review_average = EXCLUDED.review_average,
			social_links   = EXCLUDED.social_links,
			scraped_at     = NOW()
	`, strings.Join(valueStrings, ","))

	return query, valueArgs
}
