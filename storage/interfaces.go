package storage

import (
	"context"

	"gmaps-scraper/models"
)

// RecordWriter is the interface any storage backend must satisfy.
type RecordWriter interface {
	Write(ctx context.Context, listings []models.Listing) error
	Close() error
}

var (
	_ RecordWriter = (*JSONStore)(nil)
	_ RecordWriter = (*PostgresWriter)(nil)
)
