package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ibeckermayer/threadfeed/internal/app"
	"github.com/ibeckermayer/threadfeed/internal/config"
	"github.com/ibeckermayer/threadfeed/internal/observability"
	"github.com/ibeckermayer/threadfeed/internal/scheduler"
)

func newScheduleCmd(opts *options) *cobra.Command {
	var cronExpr, at string
	var now bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run send on a schedule until interrupted",
		Long: `Runs send every time the schedule fires: a cron expression (--cron) or a
daily time of day (--at HH:MM). The config file is reread before each run, and
the browser is always closed when a run ends.`,
		Example: `  threadfeed schedule --cron "0 9 * * 1-5"
  threadfeed schedule --at 08:30 --now`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			load := func() (*config.Config, error) {
				cfg, err := loadConfig(flags, opts)
				if err != nil {
					return nil, err
				}
				cfg.Browser.KeepOpen = false
				if flags.Changed("cron") {
					cfg.Schedule.Cron = cronExpr
				}
				if flags.Changed("at") {
					cfg.Schedule.At = at
				}
				if flags.Changed("now") {
					cfg.Schedule.RunOnStart = now
				}
				return cfg, nil
			}

			cfg, err := load()
			if err != nil {
				return err
			}
			if err := checkSchedule(cfg.Schedule); err != nil {
				return err
			}

			logger, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer observability.Sync(logger)

			deps, cleanup, err := buildDeps(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			return runSchedule(cmd.Context(), app.New(cfg, load, deps), logger)
		},
	}

	cmd.Flags().StringVar(&cronExpr, "cron", "", `cron expression, e.g. "30 8 * * *" (overrides [schedule] cron)`)
	cmd.Flags().StringVar(&at, "at", "", `daily time of day, e.g. "08:30" (overrides [schedule] at)`)
	cmd.Flags().BoolVar(&now, "now", false, "also send once right away")
	return cmd
}

func checkSchedule(sc config.ScheduleConfig) error {
	switch {
	case sc.Cron == "" && sc.At == "":
		return fmt.Errorf("no schedule: pass --cron or --at, or set [schedule] cron or at")
	case sc.Cron != "" && sc.At != "":
		return fmt.Errorf("conflicting schedule: cron %q and at %q are both set", sc.Cron, sc.At)
	}
	return nil
}

// runSchedule blocks until ctx ends, then waits for a run in progress to stop.
func runSchedule(ctx context.Context, a *app.App, logger *zap.Logger) error {
	cfg := a.Config()

	s, err := scheduler.New(cfg.Schedule.Timezone, 0, logger)
	if err != nil {
		return err
	}

	job := func(ctx context.Context) error {
		if err := a.ReloadConfig(); err != nil {
			logger.Warn("⚠️ Keeping previous configuration", zap.Error(err))
		}
		rep, err := a.Send(ctx)
		if err != nil {
			return err
		}
		logger.Info("Scheduled run finished", zap.String("state", string(rep.State)), zap.Int("sent", rep.Sent))
		return nil
	}

	if cfg.Schedule.At != "" {
		err = s.AddDailyJob("send", cfg.Schedule.At, job)
	} else {
		err = s.AddJob("send", cfg.Schedule.Cron, job)
	}
	if err != nil {
		return err
	}

	s.Start(ctx)
	defer func() { <-s.Stop().Done() }()

	if cfg.Schedule.RunOnStart {
		if err := s.RunNow("send", job); err != nil && !interrupted(ctx, err) {
			logger.Error("❌ Startup run failed", zap.Error(err))
		}
	}

	for _, info := range s.ListJobs() {
		logger.Info("⏰ Next run", zap.String("job", info.Name), zap.Time("at", info.NextRun))
	}

	<-ctx.Done()
	return nil
}
