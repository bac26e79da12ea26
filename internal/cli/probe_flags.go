package cli

import (
	"io"
	"os"

	"gateprobe/internal/config"
	"gateprobe/internal/logger"
	"gateprobe/internal/probe"
	"gateprobe/internal/storage"
	perrors "gateprobe/pkg/errors"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// probeOptions is everything needed to build a Tester, after merging flags
// over the loaded config.
type probeOptions struct {
	Mode     probe.Mode
	Strategy probe.StrategyConfig
	Tester   probe.TesterConfig
	Repeat   int
	Record   bool
	NoColor  bool
}

func addProbeFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-data", false, "do not send the test frame, only test the connection")
	cmd.Flags().Bool("keep-alive", false, "hold the connection open after the exchange")
	cmd.Flags().Bool("raw", false, "raw connection test: connect, hold, close, never send data")
	cmd.Flags().IntP("repeat", "n", 1, "number of sequential test iterations")
	cmd.Flags().Bool("record", false, "store the run in the history database")
	cmd.Flags().Duration("connect-timeout", 0, "connect timeout (default 10s)")
	cmd.Flags().Duration("receive-timeout", 0, "response timeout (default 5s)")
}

func readProbeFlags(cmd *cobra.Command, cfg *config.Config) (*probeOptions, error) {
	noData, _ := cmd.Flags().GetBool("no-data")
	keepAlive, _ := cmd.Flags().GetBool("keep-alive")
	raw, _ := cmd.Flags().GetBool("raw")
	repeat, _ := cmd.Flags().GetInt("repeat")
	record, _ := cmd.Flags().GetBool("record")
	noColor, _ := cmd.Flags().GetBool("no-color")

	if repeat < 1 {
		return nil, perrors.ErrInvalidRepeat
	}

	probeConf := cfg.ProbeConf
	if cmd.Flags().Changed("connect-timeout") {
		probeConf.ConnectTimeout, _ = cmd.Flags().GetDuration("connect-timeout")
	}
	if cmd.Flags().Changed("receive-timeout") {
		probeConf.ReceiveTimeout, _ = cmd.Flags().GetDuration("receive-timeout")
	}
	checked := *cfg
	checked.ProbeConf = probeConf
	if err := checked.Validate(); err != nil {
		return nil, err
	}

	mode := probe.ModeData
	if raw {
		mode = probe.ModeRaw
	}

	return &probeOptions{
		Mode: mode,
		Strategy: probe.StrategyConfig{
			SendData:       !noData,
			KeepAlive:      keepAlive,
			SendTimeout:    probeConf.ConnectTimeout,
			ReceiveTimeout: probeConf.ReceiveTimeout,
			KeepAliveHold:  probeConf.KeepAliveHold,
			RawHold:        probeConf.RawHold,
			ReadBuffer:     probeConf.ReadBuffer,
		},
		Tester: probe.TesterConfig{
			ConnectTimeout: probeConf.ConnectTimeout,
			Interval:       probeConf.Interval,
		},
		Repeat:  repeat,
		Record:  record || cfg.Record,
		NoColor: noColor,
	}, nil
}

// newTester wires the strategy, the status reporter on the command's output
// and, when recording, the history store.
func newTester(cmd *cobra.Command, opts *probeOptions) (*probe.Tester, *probe.Reporter, error) {
	strategy, err := probe.NewStrategy(opts.Mode, opts.Strategy)
	if err != nil {
		return nil, nil, err
	}

	var store storage.Storage
	if opts.Record {
		store, err = appInstance.OpenStorage()
		if err != nil {
			return nil, nil, err
		}
	}

	out := cmd.OutOrStdout()
	reporter := probe.NewReporter(out, logger.StatusOptions{Color: !opts.NoColor && isTerminal(out)})

	testerConfig := opts.Tester
	testerConfig.Strategy = strategy
	return probe.NewTester(store, reporter, testerConfig), reporter, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
