package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gateprobe/internal/probe"
	"gateprobe/internal/schedule"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <host> <port>",
	Short: "Probe a target on a schedule",
	Long: `Re-run the probe against a target at a fixed interval.

Each batch runs --repeat iterations exactly like a plain probe and prints
its tally. Batches never overlap. Stops after --count batches, or on Ctrl-C.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		target, err := probe.ParseTarget(args[0], args[1])
		if err != nil {
			return err
		}
		opts, err := readProbeFlags(cmd, appInstance.Config)
		if err != nil {
			return err
		}
		every, _ := cmd.Flags().GetDuration("every")
		count, _ := cmd.Flags().GetInt("count")

		tester, reporter, err := newTester(cmd, opts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		watcher, err := schedule.NewWatcher(tester, target, schedule.WatchConfig{
			Every:  every,
			Repeat: opts.Repeat,
			Count:  count,
		}, func(batch int, summary *probe.Summary) {
			fmt.Fprintf(out, "\n##### Batch %d (%s) #####", batch, time.Now().Format("2006-01-02 15:04:05"))
			reporter.Summary(summary)
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Watching %s every %s (Ctrl-C to stop)\n", target, every)
		return watcher.Run(ctx)
	},
}

func init() {
	addProbeFlags(watchCmd)
	watchCmd.Flags().Duration("every", time.Minute, "interval between batch starts")
	watchCmd.Flags().Int("count", 0, "number of batches to run (0 = until interrupted)")

	watchCmd.RegisterFlagCompletionFunc("every", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"30s", "1m", "5m", "15m"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(watchCmd)
}
