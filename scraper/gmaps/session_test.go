package gmaps

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gmaps-scraper/utils"
)

// fakePage serves a scripted results feed and detail panes.
//
// feeds[i] is the list of listing links visible after i scrolls; once the
// feed runs out the last entry stays visible.
type fakePage struct {
	noSearchBox bool
	noResults   bool
	feeds       [][]string
	places      map[string]place
	clickErrs   map[string]error
	hangClicks  map[string]bool // Click blocks until its ctx is done

	navigated string
	filled    string
	submitted bool
	scrolls   int
	current   string
	clicks    []string
	closed    bool
}

func (f *fakePage) Navigate(_ context.Context, url string) error {
	f.navigated = url
	return nil
}

func (f *fakePage) AcceptConsent(context.Context) (bool, error) { return false, nil }

func (f *fakePage) Fill(_ context.Context, selector, text string) error {
	if selector != SearchBoxSelector {
		return errors.New("unexpected selector " + selector)
	}
	f.filled = text
	return nil
}

func (f *fakePage) PressEnter(context.Context) error {
	f.submitted = true
	return nil
}

func (f *fakePage) Scroll(_ context.Context, dy float64) error {
	if dy <= 0 {
		return errors.New("scroll distance must be positive")
	}
	f.scrolls++
	return nil
}

func (f *fakePage) visible() []string {
	if !f.submitted || f.noResults || len(f.feeds) == 0 {
		return nil
	}
	i := f.scrolls
	if i >= len(f.feeds) {
		i = len(f.feeds) - 1
	}
	return f.feeds[i]
}

func (f *fakePage) Count(_ context.Context, selector string) (int, error) {
	switch selector {
	case SearchBoxSelector:
		if f.noSearchBox {
			return 0, nil
		}
		return 1, nil
	case ListingLinkSelector:
		return len(f.visible()), nil
	}
	return 0, nil
}

func (f *fakePage) Click(ctx context.Context, href string) error {
	f.clicks = append(f.clicks, href)
	if f.hangClicks[href] {
		<-ctx.Done()
		return ctx.Err()
	}
	if err := f.clickErrs[href]; err != nil {
		return err
	}
	for _, l := range f.visible() {
		if l == href {
			f.current = href
			return nil
		}
	}
	return ErrLinkNotFound
}

func (f *fakePage) HTML(context.Context) (string, error) {
	detail := ""
	if p, ok := f.places[f.current]; ok {
		detail = detailHTML(p)
	}
	return pageHTML(f.visible(), detail), nil
}

func (f *fakePage) Close() error {
	f.closed = true
	return nil
}

func testOptions(total int) Options {
	opts := DefaultOptions("escape rooms", total)
	opts.NavigateTimeout = time.Second
	opts.ResultsTimeout = 20 * time.Millisecond
	opts.ScrollSettle = time.Millisecond
	opts.DetailSettle = 5 * time.Millisecond
	opts.PollInterval = time.Millisecond
	return opts
}

func runSession(t *testing.T, page *fakePage, total int) (*RunResult, error) {
	t.Helper()
	s := NewSession(page, testOptions(total), utils.NewDiscardLogger())
	return s.Run(context.Background())
}

func fullPlace(name string) place {
	return place{
		Name:    name,
		Address: name + " Street 1",
		Phone:   "+1 555 0100",
		Hours:   "Closes 10\u202fPM",
		Count:   "(1,024)",
		Average: "4,6",
		Socials: []string{"https://facebook.com/" + strings.ToLower(name)},
	}
}

func TestSessionSearchSubmitsQuery(t *testing.T) {
	page := &fakePage{
		feeds:  [][]string{{placeURL("a")}},
		places: map[string]place{placeURL("a"): fullPlace("Alpha")},
	}

	if _, err := runSession(t, page, 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if page.navigated != StartURL {
		t.Errorf("navigated to %q, want %q", page.navigated, StartURL)
	}
	if page.filled != "escape rooms" || !page.submitted {
		t.Errorf("query not submitted: filled=%q submitted=%v", page.filled, page.submitted)
	}
}

func TestSessionCollectsAndNormalises(t *testing.T) {
	a, b := placeURL("a"), placeURL("b")
	page := &fakePage{
		feeds:  [][]string{{a, b}},
		places: map[string]place{a: fullPlace("Alpha"), b: fullPlace("Bravo")},
	}

	res, err := runSession(t, page, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Listings) != 2 {
		t.Fatalf("listings: got %d, want 2", len(res.Listings))
	}

	for _, l := range res.Listings {
		if l.Name == "" || l.Address == "" {
			t.Errorf("accepted listing without name or address: %+v", l)
		}
		if strings.Contains(l.Hours, "\u202f") {
			t.Errorf("hours still contain U+202F: %q", l.Hours)
		}
		if strings.ContainsAny(l.Reviews.Count, "(),") {
			t.Errorf("review count not cleaned: %q", l.Reviews.Count)
		}
		if strings.Contains(l.Reviews.Average, " ") || strings.Contains(l.Reviews.Average, ",") {
			t.Errorf("review average not cleaned: %q", l.Reviews.Average)
		}
	}
	if res.Listings[0].URL != a || res.Listings[1].URL != b {
		t.Errorf("listing order: got %s, %s", res.Listings[0].URL, res.Listings[1].URL)
	}
	if res.Listings[0].Reviews.Count != "1024" || res.Listings[0].Reviews.Average != "4.6" {
		t.Errorf("reviews: got %+v", res.Listings[0].Reviews)
	}
}

func TestSessionStopsAtTargetWithoutMoreScrolling(t *testing.T) {
	a, b := placeURL("a"), placeURL("b")
	page := &fakePage{
		feeds:  [][]string{{a, b}, {a, b, placeURL("c")}},
		places: map[string]place{a: fullPlace("Alpha"), b: fullPlace("Bravo")},
	}

	res, err := runSession(t, page, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Listings) != 1 {
		t.Errorf("listings: got %d, want 1", len(res.Listings))
	}
	if page.scrolls != 1 || res.Scrolls != 1 {
		t.Errorf("scrolls: page=%d result=%d, want 1", page.scrolls, res.Scrolls)
	}
	if len(page.clicks) != 1 {
		t.Errorf("clicks: got %v, want only the first listing", page.clicks)
	}
}

func TestSessionSkipsListingWithoutAddress(t *testing.T) {
	a, b, c := placeURL("a"), placeURL("b"), placeURL("c")
	noAddress := fullPlace("Bravo")
	noAddress.Address = ""
	page := &fakePage{
		feeds:  [][]string{{a, b, c}},
		places: map[string]place{a: fullPlace("Alpha"), b: noAddress, c: fullPlace("Charlie")},
	}

	res, err := runSession(t, page, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Listings) != 2 {
		t.Fatalf("listings: got %d, want 2", len(res.Listings))
	}
	if res.Listings[1].Name != "Charlie" {
		t.Errorf("second listing: got %q, want Charlie", res.Listings[1].Name)
	}
	if res.Rejected != 1 {
		t.Errorf("rejected: got %d, want 1", res.Rejected)
	}
}

func TestSessionSkipsFailedClick(t *testing.T) {
	a, b := placeURL("a"), placeURL("b")
	page := &fakePage{
		feeds:     [][]string{{a, b}},
		places:    map[string]place{a: fullPlace("Alpha"), b: fullPlace("Bravo")},
		clickErrs: map[string]error{a: errors.New("node detached")},
	}

	res, err := runSession(t, page, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Listings) != 1 || res.Listings[0].Name != "Bravo" {
		t.Errorf("listings: got %+v, want only Bravo", res.Listings)
	}
	if res.Skipped != 1 {
		t.Errorf("skipped: got %d, want 1", res.Skipped)
	}
}

func TestSessionDeduplicatesByURL(t *testing.T) {
	a, b, c := placeURL("a"), placeURL("b"), placeURL("c")
	page := &fakePage{
		feeds:  [][]string{{a}, {a, a, b}, {a, b, c}},
		places: map[string]place{a: fullPlace("Alpha"), b: fullPlace("Bravo"), c: fullPlace("Charlie")},
	}

	res, err := runSession(t, page, 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	seen := make(map[string]bool)
	for _, l := range res.Listings {
		if seen[l.URL] {
			t.Errorf("duplicate URL accepted: %s", l.URL)
		}
		seen[l.URL] = true
	}
	if len(res.Listings) != 3 {
		t.Errorf("listings: got %d, want 3", len(res.Listings))
	}
}

func TestSessionStopsAtScrollCeiling(t *testing.T) {
	a := placeURL("a")
	page := &fakePage{
		feeds:  [][]string{{a}},
		places: map[string]place{a: fullPlace("Alpha")},
	}

	res, err := runSession(t, page, 50)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Scrolls != 10 || page.scrolls != 10 {
		t.Errorf("scrolls: page=%d result=%d, want 10", page.scrolls, res.Scrolls)
	}
	if len(res.Listings) != 1 {
		t.Errorf("listings: got %d, want 1", len(res.Listings))
	}
}

func TestSessionRetriesRejectedListingOnLaterPass(t *testing.T) {
	a := placeURL("a")
	noAddress := fullPlace("Alpha")
	noAddress.Address = ""
	page := &fakePage{
		feeds:  [][]string{{a}},
		places: map[string]place{a: noAddress},
	}

	res, err := runSession(t, page, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Listings) != 0 {
		t.Errorf("listings: got %d, want 0", len(res.Listings))
	}
	if len(page.clicks) != 10 {
		t.Errorf("a rejected listing is not marked seen, want 10 clicks, got %d", len(page.clicks))
	}
}

func TestSessionSameNameStillRecorded(t *testing.T) {
	a, b := placeURL("a"), placeURL("b")
	branchB := fullPlace("Chain Escape")
	branchB.Address = "Other Road 9"
	page := &fakePage{
		feeds:  [][]string{{a, b}},
		places: map[string]place{a: fullPlace("Chain Escape"), b: branchB},
	}

	res, err := runSession(t, page, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Listings) != 2 {
		t.Fatalf("listings: got %d, want 2", len(res.Listings))
	}
	if res.Listings[1].Address != "Other Road 9" {
		t.Errorf("second branch address: got %q", res.Listings[1].Address)
	}
}

func TestSessionSearchTimeout(t *testing.T) {
	page := &fakePage{noResults: true}

	_, err := runSession(t, page, 1)
	if !errors.Is(err, ErrSearchTimeout) {
		t.Errorf("err: got %v, want ErrSearchTimeout", err)
	}
	if page.scrolls != 0 {
		t.Errorf("no scrolling should happen after a failed search, got %d", page.scrolls)
	}
}

func TestSessionSearchBoxMissing(t *testing.T) {
	page := &fakePage{noSearchBox: true}

	_, err := runSession(t, page, 1)
	if !errors.Is(err, ErrSearchBoxMissing) {
		t.Errorf("err: got %v, want ErrSearchBoxMissing", err)
	}
	if page.filled != "" {
		t.Errorf("nothing should be typed without a search box, got %q", page.filled)
	}
}

func TestSessionCancelledContext(t *testing.T) {
	a := placeURL("a")
	page := &fakePage{
		feeds:  [][]string{{a}},
		places: map[string]place{a: fullPlace("Alpha")},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSession(page, testOptions(1), utils.NewDiscardLogger())
	if _, err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err: got %v, want context.Canceled", err)
	}
}

func TestSessionDeadlineKeepsAcceptedListings(t *testing.T) {
	a, b := placeURL("a"), placeURL("b")
	page := &fakePage{
		feeds:      [][]string{{a, b}},
		places:     map[string]place{a: fullPlace("Alpha"), b: fullPlace("Bravo")},
		hangClicks: map[string]bool{b: true},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	s := NewSession(page, testOptions(5), utils.NewDiscardLogger())
	res, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("a spent deadline should end the run cleanly, got %v", err)
	}
	if !res.TimedOut {
		t.Error("TimedOut should be set")
	}
	if len(res.Listings) != 1 || res.Listings[0].Name != "Alpha" {
		t.Errorf("listings: got %+v, want only Alpha", res.Listings)
	}
}

func TestSessionCancelMidRunIsAnError(t *testing.T) {
	a, b := placeURL("a"), placeURL("b")
	page := &fakePage{
		feeds:      [][]string{{a, b}},
		places:     map[string]place{a: fullPlace("Alpha"), b: fullPlace("Bravo")},
		hangClicks: map[string]bool{b: true},
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(200*time.Millisecond, cancel)

	s := NewSession(page, testOptions(5), utils.NewDiscardLogger())
	if _, err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err: got %v, want context.Canceled", err)
	}
}
