package gmaps

import (
	"context"
	"errors"
)

// ErrLinkNotFound is returned by Page.Click when no listing link has the href.
var ErrLinkNotFound = errors.New("listing link not found on page")

// Page is the browser capability the scrape session drives: one tab, used
// sequentially. ChromePage is the chromedp-backed implementation.
type Page interface {
	// Navigate loads url in the tab.
	Navigate(ctx context.Context, url string) error
	// AcceptConsent clicks through a cookie-consent wall if one is shown and
	// reports whether it did.
	AcceptConsent(ctx context.Context) (bool, error)
	// Fill replaces the value of the input matching selector with text.
	Fill(ctx context.Context, selector, text string) error
	// PressEnter sends an Enter key press to the focused element.
	PressEnter(ctx context.Context) error
	// Scroll sends a mouse-wheel event of dy pixels over the results pane.
	Scroll(ctx context.Context, dy float64) error
	// Count returns how many elements currently match selector.
	Count(ctx context.Context, selector string) (int, error)
	// Click clicks the listing link whose href attribute equals href.
	Click(ctx context.Context, href string) error
	// HTML returns the serialised document.
	HTML(ctx context.Context) (string, error)
	// Close releases the tab and the browser behind it.
	Close() error
}
