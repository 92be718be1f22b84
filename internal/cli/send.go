package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ibeckermayer/threadfeed/internal/app"
	"github.com/ibeckermayer/threadfeed/internal/observability"
)

func newSendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "send",
		Short: "Send every line of the message file to the thread",
		Long: `Launches Chrome with the exported cookies, opens the thread, waits for the
message box and types each non-empty line of the message file, pressing Enter
after each one. A missing cookie file stops the run without an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, opts)
		},
	}
}

func runSend(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd.Flags(), opts)
	if err != nil {
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

	ctx := cmd.Context()
	rep, err := app.New(cfg, nil, deps).Send(ctx)
	if err != nil {
		if interrupted(ctx, err) {
			logger.Warn("🛑 Stopped", zap.Int("sent", rep.Sent), zap.Int("total", rep.Total))
			return nil
		}
		return err
	}

	logger.Debug("Run finished",
		zap.String("state", string(rep.State)),
		zap.Int("sent", rep.Sent),
		zap.Duration("took", rep.Duration()))
	return nil
}
