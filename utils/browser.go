package utils

import (
	"context"
	"os"
	"os/exec"

	"github.com/chromedp/chromedp"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// NewAllocator starts a Chrome exec allocator. An empty chromeBin lets
// FindChromeBinary pick one; if that fails too, chromedp's own lookup is used.
func NewAllocator(parent context.Context, chromeBin string, headless bool) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1440, 900),
	)

	if chromeBin == "" {
		chromeBin = FindChromeBinary()
	}
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	return chromedp.NewExecAllocator(parent, opts...)
}

// FindChromeBinary locates a Chrome/Chromium binary on PATH or in the usual
// install locations. It returns "" when nothing is found.
func FindChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
