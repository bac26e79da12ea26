package cli

import (
	"context"
	"fmt"
	"os"

	"gateprobe/internal/app"
	"gateprobe/internal/probe"
	"github.com/spf13/cobra"
)

var (
	appInstance *app.App
	version     = "dev"
)

// rootCmd probes a single target; subcommands add scheduling and history.
var rootCmd = &cobra.Command{
	Use:   "gateprobe <host> <port>",
	Short: "TCP reachability and framing probe for ISO 8583 gateways",
	Long: `gateprobe - TCP reachability and framing probe for ISO 8583 gateways

  Opens a TCP connection, sends a fixed 19-byte sign-in (0800) test frame,
  waits for one response and prints timestamped status lines followed by
  a success tally.

  Examples:
    gateprobe 10.0.0.5 8583
    gateprobe 10.0.0.5 8583 --repeat 5
    gateprobe 10.0.0.5 8583 --no-data
    gateprobe 10.0.0.5 8583 --keep-alive
    gateprobe 10.0.0.5 8583 --raw
    gateprobe watch 10.0.0.5 8583 --every 1m --record`,
	Version:       version,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		dbPath, _ := cmd.Flags().GetString("db")
		logLevel, _ := cmd.Flags().GetString("log-level")
		verbose, _ := cmd.Flags().GetBool("verbose")

		var err error
		appInstance, err = app.New(app.Options{
			ConfigPath: configPath,
			DBPath:     dbPath,
			LogLevel:   logLevel,
			Verbose:    verbose,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if appInstance != nil {
			return appInstance.Close()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		target, err := probe.ParseTarget(args[0], args[1])
		if err != nil {
			return err
		}
		opts, err := readProbeFlags(cmd, appInstance.Config)
		if err != nil {
			return err
		}

		tester, reporter, err := newTester(cmd, opts)
		if err != nil {
			return err
		}

		summary, err := tester.Run(ctx, target, opts.Repeat, nil)
		if err != nil {
			return err
		}
		reporter.Summary(summary)

		// The tally is the result; a low success rate is not a process error.
		return nil
	},
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "ini config file (timeouts, log level, history)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (debug diagnostics on stderr)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("db", "", "history database path")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	addProbeFlags(rootCmd)

	rootCmd.RegisterFlagCompletionFunc("log-level", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gateprobe %s\n", version)
	},
}
