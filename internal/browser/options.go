// Package browser provides the chromedp-backed browser session a run drives,
// with shared launch options and anti-bot-detection measures.
package browser

import (
	"github.com/chromedp/chromedp"

	"github.com/ibeckermayer/threadfeed/internal/config"
)

// DefaultUserAgent is a realistic Chrome user agent
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Options returns chromedp allocator options for cfg.
// All browser instances should use this to ensure consistent stealth configuration.
func Options(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),

		// Run without the OS sandbox so the browser starts under root and in containers
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),

		// Prevent navigator.webdriver = true detection
		chromedp.Flag("disable-blink-features", "AutomationControlled"),

		chromedp.UserAgent(userAgent),

		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
	)

	// Without an explicit size the page follows the window, like an ordinary browser
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	} else {
		opts = append(opts, chromedp.Flag("start-maximized", true))
	}

	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	if cfg.Headless {
		opts = append(opts, chromedp.Flag("disable-gpu", true))
	}

	return opts
}
