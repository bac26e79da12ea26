package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"gateprobe/internal/storage"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [host[:port]]",
	Short: "Show recorded probe runs",
	Long: `List probe runs stored with --record, newest first.

Optionally filter by host, or by host:port.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		limit, _ := cmd.Flags().GetInt("limit")

		filter := storage.RunFilter{Limit: limit}
		if len(args) == 1 {
			var err error
			filter, err = parseRunFilter(args[0], limit)
			if err != nil {
				return err
			}
		}

		store, err := appInstance.OpenStorage()
		if err != nil {
			return err
		}
		runs, err := store.GetRecentRuns(ctx, filter)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No recorded runs.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tSTARTED\tTARGET\tMODE\tRESULT\tRATE")
		fmt.Fprintln(w, "---\t-------\t------\t----\t------\t----")
		for _, run := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%.1f%%\n",
				shortID(run.ID), run.StartedAt.Format("2006-01-02 15:04:05"), run.Target(),
				run.Mode, run.Succeeded, run.Attempts, run.SuccessRate())
		}
		return w.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the attempts of a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		store, err := appInstance.OpenStorage()
		if err != nil {
			return err
		}
		run, err := store.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		attempts, err := store.GetAttempts(ctx, run.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run %s: %s (%s)\n", run.ID, run.Target(), run.Mode)
		fmt.Fprintln(out, strings.Repeat("═", 50))
		fmt.Fprintln(out)

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tTIME\tCONNECT\tSTATUS\tDETAIL")
		fmt.Fprintln(w, "-\t----\t-------\t------\t------")
		for _, a := range attempts {
			connect := "N/A"
			if a.ConnectMS != nil {
				connect = fmt.Sprintf("%.3f ms", *a.ConnectMS)
			}
			status, detail := "OK", a.ResponseHex
			if !a.Success {
				status, detail = "FAIL ("+a.ErrorKind+")", a.ErrorMessage
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				a.Iteration, a.TestedAt.Format("15:04:05.000"), connect, status, detail)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(out, "\nSucceeded: %d/%d (%.1f%%)\n", run.Succeeded, run.Attempts, run.SuccessRate())
		if run.FinishedAt == nil {
			fmt.Fprintln(os.Stderr, "Note: run did not finish (interrupted)")
		}
		return nil
	},
}

// parseRunFilter accepts "host" or "host:port".
func parseRunFilter(arg string, limit int) (storage.RunFilter, error) {
	filter := storage.RunFilter{Limit: limit}
	host, portStr, err := net.SplitHostPort(arg)
	if err != nil {
		h := strings.Trim(arg, "[]")
		filter.Host = &h
		return filter, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return filter, fmt.Errorf("invalid port in %q", arg)
	}
	filter.Host = &host
	filter.Port = &port
	return filter, nil
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of runs to list")

	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}
