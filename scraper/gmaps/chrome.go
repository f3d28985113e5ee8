package gmaps

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"gmaps-scraper/utils"
)

// Mouse position for wheel events: over the results pane on the left of a
// 1440x900 window.
const (
	wheelX = 300
	wheelY = 500
)

// ChromePage drives a single Chrome tab through chromedp.
type ChromePage struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *utils.Logger
}

// NewChromePage launches Chrome and opens one tab. The returned page must be
// closed to release the browser process.
func NewChromePage(chromeBin string, headless bool, logger *utils.Logger) (*ChromePage, error) {
	allocCtx, cancelAlloc := utils.NewAllocator(context.Background(), chromeBin, headless)

	// Suppress chromedp log noise
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// An empty Run starts the browser so launch failures surface here.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &ChromePage{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		logger:      logger,
	}, nil
}

func (p *ChromePage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url))
}

func (p *ChromePage) AcceptConsent(ctx context.Context) (bool, error) {
	var clicked bool
	err := p.run(ctx, chromedp.Evaluate(consentScript, &clicked))
	return clicked, err
}

func (p *ChromePage) Fill(ctx context.Context, selector, text string) error {
	return p.run(ctx,
		chromedp.Focus(selector, chromedp.ByQuery),
		chromedp.SetValue(selector, "", chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
}

func (p *ChromePage) PressEnter(ctx context.Context) error {
	return p.run(ctx, chromedp.KeyEvent(kb.Enter))
}

func (p *ChromePage) Scroll(ctx context.Context, dy float64) error {
	return p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseWheel, wheelX, wheelY).
			WithDeltaX(0).
			WithDeltaY(dy).
			Do(ctx)
	}))
}

func (p *ChromePage) Count(ctx context.Context, selector string) (int, error) {
	var n int
	script := fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(selector))
	if err := p.run(ctx, chromedp.Evaluate(script, &n)); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *ChromePage) Click(ctx context.Context, href string) error {
	script := fmt.Sprintf(`
		(() => {
			const link = Array.from(document.querySelectorAll(%s))
				.find(a => a.getAttribute('href') === %s);
			if (!link) return false;
			link.scrollIntoView({block: 'center'});
			link.click();
			return true;
		})()
	`, jsString(ListingLinkSelector), jsString(href))

	var clicked bool
	if err := p.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return ErrLinkNotFound
	}
	return nil
}

func (p *ChromePage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Close shuts the tab and then the browser process.
func (p *ChromePage) Close() error {
	p.cancelTab()
	p.cancelAlloc()
	p.logger.Debug("[gmaps] Browser closed")
	return nil
}

// run executes actions on the tab while honouring ctx's deadline and
// cancellation. Cancelling the derived context stops the actions without
// closing the tab.
func (p *ChromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()

	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
