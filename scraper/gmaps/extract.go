package gmaps

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"gmaps-scraper/models"
	"gmaps-scraper/utils"
)

// ErrNoMatch is returned by lookups when the selector matches nothing.
var ErrNoMatch = errors.New("no element matches selector")

// Snapshot is a parsed copy of the page's HTML at one point in time. Field
// extraction runs against it instead of issuing one browser call per field.
type Snapshot struct {
	doc    *goquery.Document
	logger *utils.Logger
}

// NewSnapshot parses html into a Snapshot.
func NewSnapshot(html string, logger *utils.Logger) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Snapshot{doc: doc, logger: logger}, nil
}

// Text returns the trimmed text of the first element matching selector, or ""
// when nothing matches or the selector is invalid. Failures are only logged.
func (s *Snapshot) Text(selector string) string {
	text, err := s.lookupText(selector)
	if err != nil {
		s.logFailure(selector, err)
		return ""
	}
	return text
}

// Links returns the href of every element matching selector in document
// order. Elements without an href are skipped. Failures give an empty list.
func (s *Snapshot) Links(selector string) []string {
	links, err := s.lookupLinks(selector)
	if err != nil {
		s.logFailure(selector, err)
		return []string{}
	}
	return links
}

func (s *Snapshot) lookupText(selector string) (string, error) {
	sel, err := s.find(selector)
	if err != nil {
		return "", err
	}
	if sel.Length() == 0 {
		return "", ErrNoMatch
	}
	return strings.TrimSpace(sel.First().Text()), nil
}

func (s *Snapshot) lookupLinks(selector string) ([]string, error) {
	sel, err := s.find(selector)
	if err != nil {
		return nil, err
	}

	links := make([]string, 0, sel.Length())
	sel.Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok && href != "" {
			links = append(links, href)
		}
	})
	return links, nil
}

func (s *Snapshot) find(selector string) (*goquery.Selection, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("compile selector: %w", err)
	}
	return s.doc.FindMatcher(matcher), nil
}

func (s *Snapshot) logFailure(selector string, err error) {
	if errors.Is(err, ErrNoMatch) {
		s.logger.Debug("[gmaps] No match for %q", selector)
		return
	}
	s.logger.Warn("[gmaps] Error extracting data for selector %q: %v", selector, err)
}

// extractListing reads every detail-pane field from snap. The values are raw;
// normalisation happens in the cleaner.
func extractListing(snap *Snapshot, url string) models.Listing {
	return models.Listing{
		Name:    snap.Text(NameSelector),
		Address: snap.Text(AddressSelector),
		Phone:   snap.Text(PhoneSelector),
		URL:     url,
		Hours:   snap.Text(HoursSelector),
		Reviews: models.Reviews{
			Count:   snap.Text(ReviewCountSelector),
			Average: snap.Text(ReviewAverageSelector),
		},
		SocialLinks: snap.Links(SocialLinkSelector),
	}
}
