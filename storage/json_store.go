package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gmaps-scraper/models"
	"gmaps-scraper/utils"
)

// errNotAnArray is returned when the output file holds valid JSON that is not
// a list of records, such as null.
var errNotAnArray = errors.New("top-level value is not an array")

// JSONStore appends listings to a JSON array file by reading the whole file,
// concatenating and rewriting it. It assumes a single writer.
type JSONStore struct {
	path   string
	logger *utils.Logger
}

// NewJSONStore returns a store backed by the file at path. The file does not
// need to exist yet.
func NewJSONStore(path string, logger *utils.Logger) *JSONStore {
	return &JSONStore{path: path, logger: logger}
}

// Path returns the output file location.
func (s *JSONStore) Path() string {
	return s.path
}

// Write merges listings after the records already stored and rewrites the file.
// A missing file counts as empty; any other read or parse failure is returned
// and the file is left untouched.
func (s *JSONStore) Write(_ context.Context, listings []models.Listing) error {
	existing, err := s.load()
	if err != nil {
		return err
	}

	merged := make([]json.RawMessage, 0, len(existing)+len(listings))
	merged = append(merged, existing...)
	for _, l := range listings {
		raw, err := encodeRecord(l)
		if err != nil {
			return fmt.Errorf("json: marshal %s: %w", l.URL, err)
		}
		merged = append(merged, raw)
	}

	if err := s.save(merged); err != nil {
		return err
	}

	s.logger.Info("[store] %d records added to %s (%d total)", len(listings), s.path, len(merged))
	return nil
}

// Load returns every listing currently stored.
func (s *JSONStore) Load() ([]models.Listing, error) {
	raw, err := s.load()
	if err != nil {
		return nil, err
	}
	listings := make([]models.Listing, 0, len(raw))
	for i, r := range raw {
		var l models.Listing
		if err := json.Unmarshal(r, &l); err != nil {
			return nil, fmt.Errorf("json: decode record %d in %q: %w", i, s.path, err)
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func (s *JSONStore) Close() error { return nil }

// load keeps stored records as raw JSON so fields this program does not know
// about survive the rewrite.
func (s *JSONStore) load() ([]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("[store] %s does not exist yet, starting empty", s.path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("json: read %q: %w", s.path, err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("json: parse %q: %w", s.path, err)
	}
	if records == nil {
		return nil, fmt.Errorf("json: parse %q: %w", s.path, errNotAnArray)
	}
	return records, nil
}

// encodeRecord marshals l without HTML escaping. Raw messages are copied
// verbatim by the encoder in save, so escaping has to be off here too.
func encodeRecord(l models.Listing) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(l); err != nil {
		return nil, err
	}
	return json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func (s *JSONStore) save(records []json.RawMessage) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("json: create output dir: %w", err)
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("json: encode: %w", err)
	}

	if err := os.WriteFile(s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("json: write %q: %w", s.path, err)
	}
	return nil
}
