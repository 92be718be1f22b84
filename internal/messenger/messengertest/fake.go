// Package messengertest provides an in-memory Page and a manual clock for
// exercising send runs without a browser.
package messengertest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp/kb"

	"github.com/ibeckermayer/threadfeed/internal/messenger"
)

// Clock is a fake clock whose Sleep advances time instantly.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

// NewClock returns a Clock starting at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep satisfies messenger.Sleeper.
func (c *Clock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	return nil
}

// Sleeps returns every duration passed to Sleep.
func (c *Clock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// Event kinds recorded by Page.
const (
	EventCookies    = "cookies"
	EventNavigate   = "navigate"
	EventWait       = "wait"
	EventFocus      = "focus"
	EventKey        = "key"
	EventScreenshot = "screenshot"
)

// Event is one call made against the fake page.
type Event struct {
	Kind  string
	Value string
	At    time.Time
}

// Page is a scripted messenger.Page.
type Page struct {
	Clock *Clock

	// Visible holds the selectors present on the page.
	Visible map[string]bool
	// HangNavigate makes Navigate block until its context ends.
	HangNavigate bool
	NavigateErr  error
	CookieErr    error
	// KeyErr, if set, is consulted before every key press.
	KeyErr func(key string) error

	mu      sync.Mutex
	events  []Event
	cookies []*network.CookieParam
}

// NewPage returns a page on which the given selectors are visible.
func NewPage(clock *Clock, visible ...string) *Page {
	p := &Page{Clock: clock, Visible: map[string]bool{}}
	for _, s := range visible {
		p.Visible[s] = true
	}
	return p
}

func (p *Page) record(kind, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var at time.Time
	if p.Clock != nil {
		at = p.Clock.Now()
	}
	p.events = append(p.events, Event{Kind: kind, Value: value, At: at})
}

func (p *Page) SetCookies(ctx context.Context, cookies []*network.CookieParam) error {
	p.record(EventCookies, "")
	if p.CookieErr != nil {
		return p.CookieErr
	}
	p.mu.Lock()
	p.cookies = append(p.cookies, cookies...)
	p.mu.Unlock()
	return nil
}

func (p *Page) Navigate(ctx context.Context, url string, opts messenger.IdleOptions) error {
	p.record(EventNavigate, url)
	if p.HangNavigate {
		<-ctx.Done()
		return ctx.Err()
	}
	return p.NavigateErr
}

func (p *Page) WaitVisible(ctx context.Context, selectors []string) (messenger.Element, error) {
	p.record(EventWait, strings.Join(selectors, ", "))
	for _, s := range selectors {
		if p.Visible[s] {
			return &element{page: p, selector: s}, nil
		}
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	p.record(EventScreenshot, "")
	return []byte("\x89PNG fake"), nil
}

// Events returns a copy of every recorded call.
func (p *Page) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// Count returns how many events of kind were recorded.
func (p *Page) Count(kind string) int {
	n := 0
	for _, e := range p.Events() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Cookies returns the cookies installed so far.
func (p *Page) Cookies() []*network.CookieParam {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*network.CookieParam(nil), p.cookies...)
}

// Submitted rebuilds the messages typed before each Enter press, in order.
func (p *Page) Submitted() []string {
	var out []string
	var cur strings.Builder
	for _, e := range p.Events() {
		if e.Kind != EventKey {
			continue
		}
		if e.Value == kb.Enter {
			out = append(out, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteString(e.Value)
	}
	return out
}

// SubmitTimes returns the fake-clock time of each Enter press.
func (p *Page) SubmitTimes() []time.Time {
	var out []time.Time
	for _, e := range p.Events() {
		if e.Kind == EventKey && e.Value == kb.Enter {
			out = append(out, e.At)
		}
	}
	return out
}

// ErrDetached mimics a composer node that left the DOM.
var ErrDetached = errors.New("node is detached from document")

type element struct {
	page     *Page
	selector string
}

func (e *element) Focus(ctx context.Context) error {
	e.page.record(EventFocus, e.selector)
	return ctx.Err()
}

func (e *element) Key(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.page.KeyErr != nil {
		if err := e.page.KeyErr(key); err != nil {
			return err
		}
	}
	e.page.record(EventKey, key)
	return nil
}
