// Command tfdev is a dev CLI for threadfeed maintenance and debugging tasks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/browser"
	"go.uber.org/zap"

	"github.com/ibeckermayer/threadfeed/internal/auth"
	tfbrowser "github.com/ibeckermayer/threadfeed/internal/browser"
	"github.com/ibeckermayer/threadfeed/internal/config"
	"github.com/ibeckermayer/threadfeed/internal/messenger"
	"github.com/ibeckermayer/threadfeed/internal/observability"
	"github.com/ibeckermayer/threadfeed/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	logger, err := observability.New(config.LoggerConfig{Level: "debug", Format: "console"}, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer observability.Sync(logger)

	switch os.Args[1] {
	case "bot-test":
		err = runBotTest(logger)
	case "check-cookies":
		if len(os.Args) < 3 {
			fmt.Println("Usage: tfdev check-cookies <file>")
			os.Exit(1)
		}
		err = runCheckCookies(logger, os.Args[2])
	case "open":
		if len(os.Args) < 3 {
			fmt.Println("Usage: tfdev open <config|cache|screenshot|report>")
			os.Exit(1)
		}
		err = runOpen(os.Args[2])
	default:
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("Command failed", zap.String("command", os.Args[1]), zap.Error(err))
		observability.Sync(logger)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: tfdev <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  bot-test             Open bot.sannysoft.com to audit browser fingerprint")
	fmt.Println("  check-cookies FILE   Parse a cookie export and list missing session cookies")
	fmt.Println("  open config          Open config file in default editor")
	fmt.Println("  open cache           Open cache directory (history, reports, screenshots)")
	fmt.Println("  open screenshot      Open the latest composer-not-found screenshot")
	fmt.Println("  open report          Open the latest run report")
}

// runBotTest opens the fingerprint audit page with the same launch options
// as a send run and waits for the window to be closed.
func runBotTest(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	cfg.Browser.Headless = false // so you can see it

	logger.Info("Opening bot.sannysoft.com with the send browser options...")
	s, err := tfbrowser.Launcher{Config: cfg.Browser, Logger: logger}.Launch(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	nav := messenger.Navigator{
		Timeout: cfg.Timing.NavigationTimeout.Std(),
		Idle:    messenger.IdleOptions{MaxInflight: cfg.Timing.MaxInflight, QuietPeriod: cfg.Timing.QuietPeriod.Std()},
	}
	start := time.Now()
	if err := nav.Open(ctx, s, "https://bot.sannysoft.com"); err != nil {
		return err
	}
	logger.Info("Page is idle", zap.Duration("took", time.Since(start)))

	logger.Info("Close the browser window (or press Ctrl+C) when done inspecting.")
	return s.Wait(ctx)
}

func runCheckCookies(logger *zap.Logger, path string) error {
	cookies, err := auth.Load(path, config.Default().Credentials.CookieDomain)
	if err != nil {
		return err
	}

	for _, c := range cookies {
		logger.Info("Cookie", zap.String("name", c.Name), zap.String("domain", c.Domain), zap.Bool("session", c.Expires == nil))
	}

	missing := auth.MissingSessionCookies(cookies, auth.SessionCookies, time.Now())
	if len(missing) > 0 {
		logger.Warn("⚠️ Missing or expired session cookies", zap.Strings("cookies", missing))
		return nil
	}
	logger.Info("✅ Session cookies present", zap.Int("count", len(cookies)))
	return nil
}

func runOpen(target string) error {
	var path string
	var err error

	switch target {
	case "config":
		path, err = config.ConfigPath()
	case "cache":
		path, err = config.CacheDir()
	case "screenshot":
		path, err = latestArtifact(store.KindScreenshot)
	case "report":
		path, err = latestArtifact(store.KindReport)
	default:
		return fmt.Errorf("unknown target: %s", target)
	}

	if err != nil {
		return fmt.Errorf("failed to get path: %w", err)
	}

	return browser.OpenFile(path)
}

func latestArtifact(kind store.Kind) (string, error) {
	artifacts, err := store.DefaultArtifacts()
	if err != nil {
		return "", err
	}
	return artifacts.LatestFile(kind)
}
