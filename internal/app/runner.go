package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"go.uber.org/zap"

	"github.com/ibeckermayer/threadfeed/internal/auth"
	"github.com/ibeckermayer/threadfeed/internal/browser"
	"github.com/ibeckermayer/threadfeed/internal/config"
	"github.com/ibeckermayer/threadfeed/internal/messages"
	"github.com/ibeckermayer/threadfeed/internal/messenger"
	"github.com/ibeckermayer/threadfeed/internal/report"
	"github.com/ibeckermayer/threadfeed/internal/store"
	"github.com/ibeckermayer/threadfeed/internal/types"
)

// Browser is a launched browser with one tab.
type Browser interface {
	messenger.Page
	// Wait blocks until the user closes the tab or ctx ends.
	Wait(ctx context.Context) error
	Close() error
}

// Launcher starts a Browser.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// ChromeLauncher launches Chrome through chromedp.
type ChromeLauncher struct {
	Launcher browser.Launcher
}

func (l ChromeLauncher) Launch(ctx context.Context) (Browser, error) {
	s, err := l.Launcher.Launch(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Recorder persists run progress. *store.History implements it.
type Recorder interface {
	StartRun(r *types.Report) error
	RecordSend(m types.SentMessage) error
	FinishRun(r *types.Report) error
}

// ArtifactSaver keeps debug files. *store.Artifacts implements it.
type ArtifactSaver interface {
	SaveJSON(kind store.Kind, v any) (string, error)
	SaveBytes(kind store.Kind, data []byte, ext string) (string, error)
}

// ReportSender delivers a rendered report. *notifier.Notifier implements it.
type ReportSender interface {
	SendReport(r *report.Rendered) error
}

// StepError is a run failure tagged with the state the run was in.
type StepError struct {
	State types.State
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Runner performs one send run against the configured thread.
// Launcher and Config are required; the rest is optional.
type Runner struct {
	Config   *config.Config
	Launcher Launcher
	Logger   *zap.Logger

	History   Recorder
	Artifacts ArtifactSaver
	Notifier  ReportSender

	// Sleep and Now default to real time.
	Sleep messenger.Sleeper
	Now   func() time.Time
}

// Run drives the thread from launch to the last message. A missing cookie
// file is not an error: the report comes back Aborted with a nil error.
func (r *Runner) Run(ctx context.Context) (*types.Report, error) {
	cfg := r.Config
	logger := r.logger()
	now := r.now()

	rep := types.NewReport(cfg.Thread.ID, now())
	logger = logger.With(zap.String("run_id", rep.RunID))

	if r.History != nil {
		if err := r.History.StartRun(rep); err != nil {
			logger.Warn("Failed to record run start", zap.Error(err))
		}
	}

	var sent []types.SentMessage
	defer func() { r.finish(rep, sent, logger) }()

	fail := func(err error) (*types.Report, error) {
		stepErr := &StepError{State: rep.State, Err: err}
		switch {
		case ctx.Err() != nil:
			rep.State = types.StateAborted
			rep.AbortReason = types.AbortCanceled
		case errors.Is(err, messenger.ErrNavigationTimeout):
			rep.State = types.StateAborted
			rep.AbortReason = types.AbortNavTimeout
		case errors.Is(err, messenger.ErrComposerNotFound):
			rep.State = types.StateAborted
			rep.AbortReason = types.AbortNoInput
		default:
			rep.State = types.StateFailed
		}
		rep.Error = err.Error()
		logger.Error("❌ Run failed", zap.String("step", string(stepErr.State)), zap.Error(err))
		return rep, stepErr
	}

	logger.Info("🚀 Launching browser...", zap.Bool("headless", cfg.Browser.Headless))
	b, err := r.Launcher.Launch(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to launch browser: %w", err))
	}
	defer b.Close()

	// Credentials
	cookies, err := r.loadCookies()
	if errors.Is(err, auth.ErrNoCookieFile) {
		logger.Warn("⚠️ No cookies.json file found!", zap.String("path", cfg.Files.Cookies))
		rep.State = types.StateAborted
		rep.AbortReason = types.AbortNoCookieFile
		return rep, nil
	}
	if err != nil {
		return fail(err)
	}
	if missing := auth.MissingSessionCookies(cookies, auth.SessionCookies, now()); len(missing) > 0 {
		logger.Warn("⚠️ Session cookies missing or expired, the page may ask to log in",
			zap.Strings("cookies", missing))
	}
	if err := b.SetCookies(ctx, cookies); err != nil {
		return fail(fmt.Errorf("failed to set cookies: %w", err))
	}
	rep.State = types.StateCookiesLoaded
	logger.Info("✅ Cookies loaded", zap.Int("count", len(cookies)))

	// Thread page
	url := messenger.ThreadURL(cfg.Thread.BaseURL, cfg.Thread.ID)
	logger.Info("🌐 Opening thread", zap.String("url", url))
	nav := messenger.Navigator{
		Timeout: cfg.Timing.NavigationTimeout.Std(),
		Idle: messenger.IdleOptions{
			MaxInflight: cfg.Timing.MaxInflight,
			QuietPeriod: cfg.Timing.QuietPeriod.Std(),
		},
	}
	if err := nav.Open(ctx, b, url); err != nil {
		return fail(err)
	}
	rep.State = types.StatePageLoaded

	// Composer
	logger.Info("⌛ Waiting for message box...")
	loc := messenger.Locator{
		Selectors: messenger.ComposerSelectors,
		Timeout:   cfg.Timing.ComposerTimeout.Std(),
	}
	el, err := loc.Find(ctx, b)
	if err != nil {
		if errors.Is(err, messenger.ErrComposerNotFound) {
			r.saveScreenshot(ctx, b, logger)
		}
		return fail(err)
	}
	rep.State = types.StateInputFound
	logger.Info("✅ Message box found")

	// Messages
	msgs, err := messages.Load(cfg.Files.Messages)
	if err != nil {
		return fail(err)
	}
	rep.Total = len(msgs)
	logger.Info(fmt.Sprintf("📜 Loaded %d messages", len(msgs)), zap.String("path", cfg.Files.Messages))

	rep.State = types.StateSending
	feeder := messenger.Feeder{
		KeystrokeDelay: cfg.Timing.KeystrokeDelay.Std(),
		MessageDelay:   cfg.Timing.MessageDelay.Std(),
		Sleep:          r.Sleep,
	}
	err = feeder.Send(ctx, el, msgs, func(i int, msg string) {
		m := types.SentMessage{RunID: rep.RunID, Seq: i, Content: msg, SentAt: now()}
		sent = append(sent, m)
		rep.Sent++
		rep.Last = msg
		logger.Info("💬 Sent: "+msg, zap.Int("n", i+1), zap.Int("of", len(msgs)))

		if r.History != nil {
			if err := r.History.RecordSend(m); err != nil {
				logger.Warn("Failed to record send", zap.Error(err))
			}
		}
	})
	if err != nil {
		return fail(err)
	}

	rep.State = types.StateDone
	logger.Info("✅ All messages sent!", zap.Int("sent", rep.Sent))

	if cfg.Browser.KeepOpen {
		logger.Info("👀 Leaving the browser open. Close it or press Ctrl+C to exit.")
		if err := b.Wait(ctx); err != nil {
			logger.Debug("Stopped waiting on browser", zap.Error(err))
		}
	}

	return rep, nil
}

func (r *Runner) loadCookies() ([]*network.CookieParam, error) {
	creds := r.Config.Credentials
	if creds.CookieHeader != "" {
		return auth.ParseCookieHeader(creds.CookieHeader, creds.CookieDomain)
	}
	return auth.Load(r.Config.Files.Cookies, creds.CookieDomain)
}

// saveScreenshot keeps the page as it looked when the composer never appeared.
func (r *Runner) saveScreenshot(ctx context.Context, page messenger.Page, logger *zap.Logger) {
	if r.Artifacts == nil || ctx.Err() != nil {
		return
	}
	shot, err := page.Screenshot(ctx)
	if err != nil {
		logger.Warn("Failed to capture screenshot", zap.Error(err))
		return
	}
	path, err := r.Artifacts.SaveBytes(store.KindScreenshot, shot, ".png")
	if err != nil {
		logger.Warn("Failed to save screenshot", zap.Error(err))
		return
	}
	logger.Info("📸 Saved screenshot", zap.String("path", path))
}

// finish stamps the report and hands it to history, artifacts and email.
func (r *Runner) finish(rep *types.Report, sent []types.SentMessage, logger *zap.Logger) {
	rep.FinishedAt = r.now()()

	if r.History != nil {
		if err := r.History.FinishRun(rep); err != nil {
			logger.Warn("Failed to record run result", zap.Error(err))
		}
	}

	if r.Artifacts != nil {
		if path, err := r.Artifacts.SaveJSON(store.KindReport, rep); err != nil {
			logger.Warn("Failed to save report", zap.Error(err))
		} else {
			logger.Debug("Saved report", zap.String("path", path))
		}
	}

	if r.Notifier != nil {
		if err := r.notify(rep, sent); err != nil {
			logger.Warn("Failed to email report", zap.Error(err))
		} else {
			logger.Info("📧 Report emailed")
		}
	}
}

func (r *Runner) notify(rep *types.Report, sent []types.SentMessage) error {
	builder, err := report.New()
	if err != nil {
		return err
	}
	rendered, err := builder.Build(rep, sent)
	if err != nil {
		return err
	}
	return r.Notifier.SendReport(rendered)
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Runner) now() func() time.Time {
	if r.Now == nil {
		return time.Now
	}
	return r.Now
}
