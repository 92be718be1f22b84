package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/threadfeed/internal/types"
)

func newHistoryCmd(opts *options) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd.Flags(), opts)
			if err != nil {
				return err
			}

			h, err := openHistory(cfg)
			if err != nil {
				return fmt.Errorf("failed to open history: %w", err)
			}
			defer h.Close()

			if runID != "" {
				sends, err := h.SendsForRun(runID)
				if err != nil {
					return err
				}
				return printSends(cmd.OutOrStdout(), sends)
			}

			runs, err := h.RecentRuns(limit)
			if err != nil {
				return err
			}
			return printRuns(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show")
	cmd.Flags().StringVar(&runID, "run", "", "show the messages sent by one run")
	return cmd
}

func printRuns(out io.Writer, runs []types.Report) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No runs yet.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tRUN\tTHREAD\tSTATE\tSENT\tDETAIL")
	for _, r := range runs {
		state := string(r.State)
		if r.AbortReason != types.AbortNone {
			state += " (" + string(r.AbortReason) + ")"
		}
		detail := r.Error
		if detail == "" {
			detail = r.Last
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.RunID, r.ThreadID, state, r.Sent, r.Total, detail)
	}
	return w.Flush()
}

func printSends(out io.Writer, sends []types.SentMessage) error {
	if len(sends) == 0 {
		_, err := fmt.Fprintln(out, "No messages sent.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSENT\tMESSAGE")
	for _, m := range sends {
		fmt.Fprintf(w, "%d\t%s\t%s\n", m.Seq+1, m.SentAt.Local().Format("15:04:05"), m.Content)
	}
	return w.Flush()
}
