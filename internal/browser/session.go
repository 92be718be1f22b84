package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/ibeckermayer/threadfeed/internal/config"
	"github.com/ibeckermayer/threadfeed/internal/messenger"
)

// Session is one running browser with a single tab. It implements messenger.Page.
type Session struct {
	ctx           context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	logger        *zap.Logger
	idle          *idleTracker

	closeOnce sync.Once
	gone      chan struct{}
	goneOnce  sync.Once
}

// Launcher starts browser sessions with a fixed configuration.
type Launcher struct {
	Config config.BrowserConfig
	Logger *zap.Logger
}

// Launch starts the browser process and opens its first tab.
func (l Launcher) Launch(ctx context.Context) (*Session, error) {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, Options(l.Config)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Sugar().Debugf),
		chromedp.WithErrorf(logger.Sugar().Debugf),
	)

	s := &Session{
		ctx:           browserCtx,
		allocCancel:   allocCancel,
		browserCancel: browserCancel,
		logger:        logger,
		idle:          newIdleTracker(time.Now),
		gone:          make(chan struct{}),
	}

	// The first Run starts the browser process
	if err := chromedp.Run(browserCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	tab := chromedp.FromContext(browserCtx).Target.TargetID
	chromedp.ListenTarget(browserCtx, func(ev any) {
		if _, ok := ev.(*inspector.EventDetached); ok {
			s.markGone()
			return
		}
		s.idle.handle(ev)
	})
	chromedp.ListenBrowser(browserCtx, func(ev any) {
		if e, ok := ev.(*target.EventTargetDestroyed); ok && e.TargetID == tab {
			s.markGone()
		}
	})

	if err := chromedp.Run(browserCtx, network.Enable()); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to enable network events: %w", err)
	}

	return s, nil
}

func (s *Session) markGone() {
	s.goneOnce.Do(func() { close(s.gone) })
}

// scope returns a context that carries the chromedp tab and ends when ctx does.
func (s *Session) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(s.ctx)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// SetCookies sets cookies in the browser before navigation
func (s *Session) SetCookies(ctx context.Context, cookies []*network.CookieParam) error {
	runCtx, cancel := s.scope(ctx)
	defer cancel()

	return chromedp.Run(runCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, c := range cookies {
				set := network.SetCookie(c.Name, c.Value).
					WithDomain(c.Domain).
					WithPath(c.Path).
					WithSecure(c.Secure).
					WithHTTPOnly(c.HTTPOnly)
				if c.URL != "" {
					set = set.WithURL(c.URL)
				}
				if c.SameSite != "" {
					set = set.WithSameSite(c.SameSite)
				}
				if c.Expires != nil {
					set = set.WithExpires(c.Expires)
				}

				if err := set.Do(ctx); err != nil {
					return fmt.Errorf("cookie %s: %w", c.Name, err)
				}
			}
			return nil
		}),
	)
}

// Navigate loads url, then waits for the network to go quiet.
func (s *Session) Navigate(ctx context.Context, url string, opts messenger.IdleOptions) error {
	runCtx, cancel := s.scope(ctx)
	defer cancel()

	s.idle.reset(opts.MaxInflight)
	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return err
	}

	s.logger.Debug("Page loaded, waiting for network idle",
		zap.Int("max_inflight", opts.MaxInflight),
		zap.Duration("quiet_period", opts.QuietPeriod))
	return s.idle.wait(runCtx, opts.QuietPeriod)
}

// WaitVisible resolves the first node in document order matching any of
// selectors (querySelector on the joined list) and waits for it to be visible.
func (s *Session) WaitVisible(ctx context.Context, selectors []string) (messenger.Element, error) {
	runCtx, cancel := s.scope(ctx)
	defer cancel()

	var nodes []*cdp.Node
	err := chromedp.Run(runCtx,
		chromedp.Nodes(strings.Join(selectors, ", "), &nodes, chromedp.ByQuery, chromedp.NodeVisible),
	)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("no node matched %v", selectors)
	}

	return &element{session: s, nodeID: nodes[0].NodeID}, nil
}

// Screenshot captures the current viewport as PNG
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	runCtx, cancel := s.scope(ctx)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(runCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

// Wait blocks until the user closes the browser tab or ctx ends.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.gone:
		return nil
	case <-s.ctx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.browserCancel()
		s.allocCancel()
	})
	return nil
}

type element struct {
	session *Session
	nodeID  cdp.NodeID
}

func (e *element) Focus(ctx context.Context) error {
	runCtx, cancel := e.session.scope(ctx)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.Focus([]cdp.NodeID{e.nodeID}, chromedp.ByNodeID))
}

func (e *element) Key(ctx context.Context, key string) error {
	runCtx, cancel := e.session.scope(ctx)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.KeyEvent(key))
}
