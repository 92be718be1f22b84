// Package messenger drives an open browser page to send lines into an
// end-to-end encrypted conversation thread.
package messenger

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/network"
)

// IdleOptions describes when a page counts as loaded: no more than
// MaxInflight requests for at least QuietPeriod.
type IdleOptions struct {
	MaxInflight int
	QuietPeriod time.Duration
}

// Page is the browser tab a run drives.
type Page interface {
	// SetCookies installs cookies into the page's cookie jar.
	SetCookies(ctx context.Context, cookies []*network.CookieParam) error
	// Navigate loads url and waits until the network is idle per opts.
	Navigate(ctx context.Context, url string, opts IdleOptions) error
	// WaitVisible blocks until an element matching any of selectors is visible.
	WaitVisible(ctx context.Context, selectors []string) (Element, error)
	// Screenshot captures the visible viewport as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
}

// Element is a handle to a located DOM node.
type Element interface {
	Focus(ctx context.Context) error
	// Key dispatches one key press to the focused element. Text keys are a
	// single character; control keys use chromedp/kb values such as kb.Enter.
	Key(ctx context.Context, key string) error
}
