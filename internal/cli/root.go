// Package cli wires configuration, logging and the run loop into the
// threadfeed command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ibeckermayer/threadfeed/internal/app"
	"github.com/ibeckermayer/threadfeed/internal/browser"
	"github.com/ibeckermayer/threadfeed/internal/config"
	"github.com/ibeckermayer/threadfeed/internal/notifier"
	"github.com/ibeckermayer/threadfeed/internal/observability"
	"github.com/ibeckermayer/threadfeed/internal/store"
)

// Version is set at build time.
var Version = "dev"

// options holds the flags that override the config file.
type options struct {
	configPath   string
	thread       string
	cookies      string
	messages     string
	cookieHeader string
	delay        time.Duration
	headless     bool
	keepOpen     bool
}

// NewRootCmd builds the command tree. Running it without a subcommand sends.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{})
}

func newRootCmd(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "threadfeed",
		Short:         "Type the lines of a file into a Messenger thread",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default is the user config dir)")
	flags.StringVar(&opts.thread, "thread", "", "numeric thread id")
	flags.StringVar(&opts.cookies, "cookies", "", "exported cookie file")
	flags.StringVar(&opts.messages, "messages", "", "message file, one message per line")
	flags.StringVar(&opts.cookieHeader, "cookie-header", "", `raw Cookie header ("c_user=...; xs=..."), used instead of the cookie file`)
	flags.DurationVar(&opts.delay, "delay", 0, "pause between messages")
	flags.BoolVar(&opts.headless, "headless", false, "run the browser without a window")
	flags.BoolVar(&opts.keepOpen, "keep-open", true, "leave the browser open after a successful run")

	rootCmd.AddCommand(newSendCmd(opts))
	rootCmd.AddCommand(newScheduleCmd(opts))
	rootCmd.AddCommand(newHistoryCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// Execute runs the root command with ctx, which is canceled on SIGINT/SIGTERM by main.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// loadConfig reads the config file, applies flag overrides and validates.
func loadConfig(flags *pflag.FlagSet, opts *options) (*config.Config, error) {
	cfg, err := readConfig(flags, opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// readConfig reads the config file and applies flag overrides. A missing
// default config file means built-in defaults.
func readConfig(flags *pflag.FlagSet, opts *options) (*config.Config, error) {
	path, err := configPath(opts)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || flags.Changed("config") {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		cfg = config.Default()
	}

	applyOverrides(flags, opts, cfg)
	return cfg, nil
}

func configPath(opts *options) (string, error) {
	if opts.configPath != "" {
		return opts.configPath, nil
	}
	return config.ConfigPath()
}

// applyOverrides copies every flag the user set onto cfg.
func applyOverrides(flags *pflag.FlagSet, opts *options, cfg *config.Config) {
	if flags.Changed("thread") {
		cfg.Thread.ID = opts.thread
	}
	if flags.Changed("cookies") {
		cfg.Files.Cookies = opts.cookies
	}
	if flags.Changed("messages") {
		cfg.Files.Messages = opts.messages
	}
	if flags.Changed("cookie-header") {
		cfg.Credentials.CookieHeader = opts.cookieHeader
	}
	if flags.Changed("delay") {
		cfg.Timing.MessageDelay = config.Duration(opts.delay)
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = opts.headless
	}
	if flags.Changed("keep-open") {
		cfg.Browser.KeepOpen = opts.keepOpen
	}
}

// newLogger builds the logger for cmd from cfg.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*zap.Logger, error) {
	return observability.New(cfg.Logger, cmd.OutOrStdout())
}

// buildDeps opens the stores a run writes to. The returned cleanup closes them.
func buildDeps(cfg *config.Config, logger *zap.Logger) (app.Deps, func(), error) {
	deps := app.Deps{
		Launcher: app.ChromeLauncher{Launcher: browser.Launcher{Config: cfg.Browser, Logger: logger}},
		Logger:   logger,
	}
	cleanup := func() {}

	if cfg.History.Enabled {
		h, err := openHistory(cfg)
		if err != nil {
			// History is a convenience; a run goes ahead without it
			logger.Warn("⚠️ Run history unavailable", zap.Error(err))
		} else {
			deps.History = h
			cleanup = func() { h.Close() }
		}
	}

	if artifacts, err := store.DefaultArtifacts(); err != nil {
		logger.Warn("⚠️ Debug artifacts unavailable", zap.Error(err))
	} else {
		deps.Artifacts = artifacts
	}

	if cfg.Email.Enabled {
		n, err := notifier.NewFromConfig(cfg.Email)
		if err != nil {
			cleanup()
			return app.Deps{}, nil, fmt.Errorf("failed to set up email: %w", err)
		}
		deps.Notifier = n
	}

	return deps, cleanup, nil
}

func openHistory(cfg *config.Config) (*store.History, error) {
	path := cfg.History.DBPath
	if path == "" {
		p, err := store.DefaultHistoryPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return store.New(path)
}

// interrupted reports whether err only says the run was stopped by a signal.
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, context.Canceled)
}
