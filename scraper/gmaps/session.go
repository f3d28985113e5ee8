package gmaps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gmaps-scraper/models"
	"gmaps-scraper/services"
	"gmaps-scraper/utils"
)

var (
	// ErrSearchBoxMissing means the map page never showed a search input.
	ErrSearchBoxMissing = errors.New("search box not found")
	// ErrSearchTimeout means the search produced no listing links in time.
	ErrSearchTimeout = errors.New("no listings appeared after search")
)

// Options controls one scrape session. The zero value is not usable; start
// from DefaultOptions.
type Options struct {
	Query string
	Total int

	StartURL       string
	MaxScrolls     int
	ScrollDistance float64

	NavigateTimeout time.Duration
	ResultsTimeout  time.Duration
	ScrollSettle    time.Duration
	DetailSettle    time.Duration
	PollInterval    time.Duration
}

// DefaultOptions returns the budgets the scraper runs with in production.
func DefaultOptions(query string, total int) Options {
	return Options{
		Query: query,
		Total: total,

		StartURL:       StartURL,
		MaxScrolls:     10,
		ScrollDistance: 10000,

		NavigateTimeout: 60 * time.Second,
		ResultsTimeout:  30 * time.Second,
		ScrollSettle:    3 * time.Second,
		DetailSettle:    2 * time.Second,
		PollInterval:    250 * time.Millisecond,
	}
}

// RunResult is what a session hands back: the accepted listings plus
// counters for the final log line.
type RunResult struct {
	Listings []models.Listing
	Scrolls  int
	Rejected int
	Skipped  int
	TimedOut bool
}

// Session performs one search-scroll-extract pass over a single page.
type Session struct {
	page    Page
	opts    Options
	cleaner *services.Cleaner
	logger  *utils.Logger
}

// NewSession creates a Session. The caller keeps ownership of page and must
// close it.
func NewSession(page Page, opts Options, logger *utils.Logger) *Session {
	return &Session{
		page:    page,
		opts:    opts,
		cleaner: services.NewCleaner(logger),
		logger:  logger,
	}
}

// Run searches for the query and collects listings until Total are accepted or
// MaxScrolls scroll passes have been made. Per-listing failures are logged and
// skipped. A spent ctx deadline ends collection early and the listings
// accepted so far are returned; any returned error means the run must be
// abandoned.
func (s *Session) Run(ctx context.Context) (*RunResult, error) {
	s.logger.Info("[gmaps] Searching for %q, target: %d listings", s.opts.Query, s.opts.Total)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.search(ctx); err != nil {
		return nil, err
	}

	result := &RunResult{Listings: make([]models.Listing, 0)}
	seen := utils.NewURLSet()
	lastName := ""

collect:
	for len(result.Listings) < s.opts.Total && result.Scrolls < s.opts.MaxScrolls {
		if done, err := interrupted(ctx); done {
			if err != nil {
				return result, err
			}
			result.TimedOut = true
			break
		}
		links, err := s.scrollAndCollect(ctx)
		if err != nil {
			if done, ctxErr := interrupted(ctx); done && ctxErr == nil {
				result.TimedOut = true
				break
			}
			return result, fmt.Errorf("scroll pass %d: %w", result.Scrolls+1, err)
		}
		s.logger.Info("[gmaps] Found %d listings", len(links))

		for _, url := range links {
			if seen.Contains(url) {
				continue
			}
			s.logger.Debug("[gmaps] Processing URL: %s", url)

			listing, err := s.openListing(ctx, url, lastName)
			if err != nil {
				if done, ctxErr := interrupted(ctx); done {
					if ctxErr != nil {
						return result, ctxErr
					}
					result.TimedOut = true
					break collect
				}
				s.logger.Error("[gmaps] Error processing URL %q: %v", url, err)
				result.Skipped++
				continue
			}
			lastName = listing.Name

			if ok, reason := s.cleaner.Accept(listing); ok {
				result.Listings = append(result.Listings, listing)
				seen.Add(url)
				s.logger.Info("[gmaps] Added %q (%d/%d)", listing.Name, len(result.Listings), s.opts.Total)
			} else {
				result.Rejected++
				s.logger.Info("[gmaps] Skipping %s: %s", url, reason)
			}

			if len(result.Listings) >= s.opts.Total {
				break
			}
		}

		result.Scrolls++
	}

	if result.TimedOut {
		s.logger.Warn("[gmaps] Run deadline reached, keeping %d listings", len(result.Listings))
	}
	s.logger.Info("[gmaps] Final results count: %d (scrolls: %d, rejected: %d, skipped: %d)",
		len(result.Listings), result.Scrolls, result.Rejected, result.Skipped)
	return result, nil
}

// interrupted reports whether ctx has ended the collection loop. A spent
// deadline stops it like the scroll ceiling does; cancellation is returned as
// an error.
func interrupted(ctx context.Context) (bool, error) {
	err := ctx.Err()
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, context.DeadlineExceeded):
		return true, nil
	default:
		return true, err
	}
}

// search loads the start page, submits the query and waits for the first
// listing link.
func (s *Session) search(ctx context.Context) error {
	navCtx, cancel := context.WithTimeout(ctx, s.opts.NavigateTimeout)
	err := s.page.Navigate(navCtx, s.opts.StartURL)
	cancel()
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", s.opts.StartURL, err)
	}

	if clicked, err := s.page.AcceptConsent(ctx); err != nil {
		s.logger.Warn("[gmaps] Consent check failed: %v", err)
	} else if clicked {
		s.logger.Info("[gmaps] Accepted consent dialog")
	}

	found, err := s.waitForSelector(ctx, SearchBoxSelector, s.opts.ResultsTimeout)
	if err != nil {
		return fmt.Errorf("wait for search box: %w", err)
	}
	if !found {
		return ErrSearchBoxMissing
	}

	if err := s.page.Fill(ctx, SearchBoxSelector, s.opts.Query); err != nil {
		return fmt.Errorf("fill search box: %w", err)
	}
	if err := s.page.PressEnter(ctx); err != nil {
		return fmt.Errorf("submit search: %w", err)
	}

	found, err = s.waitForSelector(ctx, ListingLinkSelector, s.opts.ResultsTimeout)
	if err != nil {
		return fmt.Errorf("wait for results: %w", err)
	}
	if !found {
		return fmt.Errorf("%w within %v", ErrSearchTimeout, s.opts.ResultsTimeout)
	}
	return nil
}

// scrollAndCollect scrolls the result pane once, gives new results up to
// ScrollSettle to load and returns every listing link now on the page.
func (s *Session) scrollAndCollect(ctx context.Context) ([]string, error) {
	before, err := s.page.Count(ctx, ListingLinkSelector)
	if err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}

	if err := s.page.Scroll(ctx, s.opts.ScrollDistance); err != nil {
		return nil, fmt.Errorf("scroll: %w", err)
	}

	// The feed may be exhausted, so an unmet wait is fine.
	if _, err := s.wait(s.opts.ScrollSettle).Until(ctx, func(ctx context.Context) (bool, error) {
		n, err := s.count(ctx, ListingLinkSelector)
		return n > before, err
	}); err != nil {
		return nil, fmt.Errorf("wait for more listings: %w", err)
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Links(ListingLinkSelector), nil
}

// openListing clicks the listing, waits for its detail pane and extracts it.
// lastName is the name shown by the previously opened listing; the pane counts
// as loaded once it shows a different one. If it never does, whatever is shown
// after DetailSettle is extracted.
func (s *Session) openListing(ctx context.Context, url, lastName string) (models.Listing, error) {
	if err := s.page.Click(ctx, url); err != nil {
		return models.Listing{}, fmt.Errorf("click: %w", err)
	}

	var snap *Snapshot
	_, err := s.wait(s.opts.DetailSettle).Until(ctx, func(ctx context.Context) (bool, error) {
		var err error
		snap, err = s.snapshot(ctx)
		if err != nil {
			return false, err
		}
		name := snap.Text(NameSelector)
		return name != "" && name != lastName, nil
	})
	if err != nil {
		return models.Listing{}, fmt.Errorf("read detail pane: %w", err)
	}

	raw := extractListing(snap, url)
	if s.logger.DebugEnabled() {
		s.logger.Debug("[gmaps] Extracted data: %+v", raw)
	}
	return s.cleaner.Clean(raw), nil
}

func (s *Session) snapshot(ctx context.Context) (*Snapshot, error) {
	html, err := s.page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page html: %w", err)
	}
	return NewSnapshot(html, s.logger)
}

func (s *Session) waitForSelector(ctx context.Context, selector string, budget time.Duration) (bool, error) {
	return s.wait(budget).Until(ctx, func(ctx context.Context) (bool, error) {
		n, err := s.count(ctx, selector)
		return n > 0, err
	})
}

// count is Page.Count for use inside waits: the page may be mid-navigation, so
// a failed count reads as zero unless ctx itself is done.
func (s *Session) count(ctx context.Context, selector string) (int, error) {
	n, err := s.page.Count(ctx, selector)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		s.logger.Debug("[gmaps] Count %q failed: %v", selector, err)
		return 0, nil
	}
	return n, nil
}

func (s *Session) wait(budget time.Duration) utils.WaitConfig {
	return utils.WaitConfig{Budget: budget, Interval: s.opts.PollInterval}
}
