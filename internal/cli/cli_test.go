package cli

import (
	"bytes"
	"io"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gateprobe/internal/config"
	"gateprobe/internal/probe"
	perrors "gateprobe/pkg/errors"
)

func newFlagCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("no-color", false, "")
	addProbeFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestReadProbeFlags_Defaults(t *testing.T) {
	opts, err := readProbeFlags(newFlagCmd(t), config.Default())
	require.NoError(t, err)

	assert.Equal(t, probe.ModeData, opts.Mode)
	assert.True(t, opts.Strategy.SendData)
	assert.False(t, opts.Strategy.KeepAlive)
	assert.Equal(t, 1, opts.Repeat)
	assert.False(t, opts.Record)
	assert.Equal(t, 10*time.Second, opts.Tester.ConnectTimeout)
	assert.Equal(t, 10*time.Second, opts.Strategy.SendTimeout)
	assert.Equal(t, 5*time.Second, opts.Strategy.ReceiveTimeout)
	assert.Equal(t, 30*time.Second, opts.Strategy.KeepAliveHold)
	assert.Equal(t, 10*time.Second, opts.Strategy.RawHold)
	assert.Equal(t, time.Second, opts.Tester.Interval)
	assert.Equal(t, 1024, opts.Strategy.ReadBuffer)
}

func TestReadProbeFlags_Overrides(t *testing.T) {
	cfg := config.Default()
	cfg.Record = true

	cmd := newFlagCmd(t, "--raw", "--no-data", "--keep-alive", "--repeat", "4", "--connect-timeout", "2s")
	opts, err := readProbeFlags(cmd, cfg)
	require.NoError(t, err)

	assert.Equal(t, probe.ModeRaw, opts.Mode)
	assert.False(t, opts.Strategy.SendData)
	assert.True(t, opts.Strategy.KeepAlive)
	assert.Equal(t, 4, opts.Repeat)
	assert.True(t, opts.Record, "config can turn recording on")
	assert.Equal(t, 2*time.Second, opts.Tester.ConnectTimeout)
}

func TestReadProbeFlags_Invalid(t *testing.T) {
	_, err := readProbeFlags(newFlagCmd(t, "--repeat", "0"), config.Default())
	assert.ErrorIs(t, err, perrors.ErrInvalidRepeat)

	_, err = readProbeFlags(newFlagCmd(t, "--receive-timeout=-1s"), config.Default())
	assert.ErrorIs(t, err, perrors.ErrInvalidConfig)
}

func TestParseRunFilter(t *testing.T) {
	f, err := parseRunFilter("10.0.0.5:8583", 5)
	require.NoError(t, err)
	require.NotNil(t, f.Host)
	require.NotNil(t, f.Port)
	assert.Equal(t, "10.0.0.5", *f.Host)
	assert.Equal(t, 8583, *f.Port)
	assert.Equal(t, 5, f.Limit)

	f, err = parseRunFilter("gw.example", 0)
	require.NoError(t, err)
	assert.Equal(t, "gw.example", *f.Host)
	assert.Nil(t, f.Port)

	_, err = parseRunFilter("gw.example:http", 0)
	assert.Error(t, err)
}

func executeCommand(args ...string) (string, error) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// TestCommands_EndToEnd drives the global command tree; flag values persist
// between Execute calls, so the whole sequence lives in one test.
func TestCommands_EndToEnd(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				io.Copy(conn, conn)
			}()
		}
	}()
	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)

	dir := t.TempDir()
	iniPath := filepath.Join(dir, "gateprobe.ini")
	require.NoError(t, os.WriteFile(iniPath, []byte("[probe]\nreceive_timeout = 300ms\ninterval = 10ms\n"), 0600))
	dbPath := filepath.Join(dir, "history.db")

	// invalid port is an argument error
	_, err = executeCommand("--config", iniPath, "--db", dbPath, "127.0.0.1", "70000")
	assert.ErrorIs(t, err, perrors.ErrInvalidTarget)

	out, err := executeCommand("--config", iniPath, "--db", dbPath, "--record", "--repeat", "3", "127.0.0.1", port)
	require.NoError(t, err)
	assert.Contains(t, out, "=== Test 3/3 ===")
	assert.Contains(t, out, "Sending test frame (19 bytes): 0011600000")
	assert.Contains(t, out, "Succeeded: 3/3")
	assert.Contains(t, out, "Success rate: 100.0%")

	m := regexp.MustCompile(`Recorded as run ([0-9a-f-]{36})`).FindStringSubmatch(out)
	require.Len(t, m, 2)
	runID := m[1]

	out, err = executeCommand("--config", iniPath, "--db", dbPath, "history", "127.0.0.1:"+port)
	require.NoError(t, err)
	assert.Contains(t, out, runID[:8])
	assert.Contains(t, out, "3/3")
	assert.Contains(t, out, "100.0%")

	out, err = executeCommand("--config", iniPath, "--db", dbPath, "history", "show", runID[:8])
	require.NoError(t, err)
	assert.Contains(t, out, "Run "+runID)
	assert.Contains(t, out, "00116000000000080000000000000000000000")
	assert.Contains(t, out, "Succeeded: 3/3 (100.0%)")

	out, err = executeCommand("version")
	require.NoError(t, err)
	assert.Contains(t, out, "gateprobe dev")
}
