package messenger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNavigationTimeout is returned when the thread page does not settle in time.
	ErrNavigationTimeout = errors.New("thread page did not finish loading")
	// ErrComposerNotFound is returned when no composer selector becomes visible in time.
	ErrComposerNotFound = errors.New("message input not found")
)

// ThreadURL returns the conversation URL for threadID under baseURL.
func ThreadURL(baseURL, threadID string) string {
	return strings.TrimRight(baseURL, "/") + threadPath + threadID
}

// Navigator opens a thread page with a bounded wait.
type Navigator struct {
	Timeout time.Duration
	Idle    IdleOptions
}

// Open navigates page to url. A deadline hit while loading yields ErrNavigationTimeout.
func (n Navigator) Open(ctx context.Context, page Page, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, n.Timeout)
	defer cancel()

	err := page.Navigate(navCtx, url, n.Idle)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && navCtx.Err() != nil {
		return fmt.Errorf("%w after %s: %s", ErrNavigationTimeout, n.Timeout, url)
	}
	return fmt.Errorf("failed to navigate to %s: %w", url, err)
}

// Locator finds the composition box.
type Locator struct {
	Selectors []string
	Timeout   time.Duration
}

// Find waits for the first visible element matching any of l.Selectors.
func (l Locator) Find(ctx context.Context, page Page) (Element, error) {
	findCtx, cancel := context.WithTimeout(ctx, l.Timeout)
	defer cancel()

	el, err := page.WaitVisible(findCtx, l.Selectors)
	if err == nil {
		return el, nil
	}
	if ctx.Err() == nil && findCtx.Err() != nil {
		return nil, fmt.Errorf("%w within %s", ErrComposerNotFound, l.Timeout)
	}
	return nil, fmt.Errorf("failed to locate composer: %w", err)
}
