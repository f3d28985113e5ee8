package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"gmaps-scraper/models"
	"gmaps-scraper/utils"
)

const narrowNoBreakSpace = "\u202f"

var (
	// ratingRegexp captures a numeric rating in the 0.0–5.0 range
	ratingRegexp = regexp.MustCompile(`^([0-5](?:\.\d{1,2})?)$`)

	reviewCountReplacer = strings.NewReplacer("(", "", ")", "", ",", "")
)

// Cleaner normalises freshly extracted listings and decides which are kept.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean returns a copy of l with every text field normalised:
//
//	Hours    "9\u202fAM–5\u202fPM"  → "9AM–5PM"
//	Count    "(1,234)"                → "1234"
//	Average  "4,5 "                   → "4.5"
func (c *Cleaner) Clean(l models.Listing) models.Listing {
	out := models.Listing{
		Name:    normaliseText(l.Name),
		Address: normaliseText(l.Address),
		Phone:   normaliseText(l.Phone),
		URL:     strings.TrimSpace(l.URL),
		Hours:   cleanHours(l.Hours),
		Reviews: models.Reviews{
			Count:   cleanReviewCount(l.Reviews.Count),
			Average: cleanReviewAverage(l.Reviews.Average),
		},
		SocialLinks: make([]string, 0, len(l.SocialLinks)),
	}

	for _, link := range l.SocialLinks {
		if link = strings.TrimSpace(link); link != "" {
			out.SocialLinks = append(out.SocialLinks, link)
		}
	}
	return out
}

// Accept reports whether l may be recorded. Only Name and Address gate
// inclusion; when l is rejected the reason is returned for logging.
func (c *Cleaner) Accept(l models.Listing) (bool, string) {
	var reason string
	switch {
	case l.Name == "" && l.Address == "":
		reason = "missing name and address"
	case l.Name == "":
		reason = "missing name"
	case l.Address == "":
		reason = "missing address"
	default:
		return true, ""
	}
	c.logger.Debug("[cleaner] Rejected %s: %s", l.URL, reason)
	return false, reason
}

func cleanHours(raw string) string {
	return normaliseText(strings.ReplaceAll(raw, narrowNoBreakSpace, ""))
}

func cleanReviewCount(raw string) string {
	return strings.TrimSpace(reviewCountReplacer.Replace(raw))
}

func cleanReviewAverage(raw string) string {
	noSpace := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	return strings.ReplaceAll(noSpace, ",", ".")
}

// parseRating extracts a 0.0–5.0 numeric rating from a cleaned average.
func parseRating(raw string) (float64, bool) {
	match := ratingRegexp.FindStringSubmatch(raw)
	if len(match) < 2 {
		return 0, false
	}
	val, err := strconv.ParseFloat(match[1], 64)
	if err != nil || val < 0 || val > 5 {
		return 0, false
	}
	return val, true
}

// parseReviewCount converts a cleaned count such as "1234" to an int.
func parseReviewCount(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
