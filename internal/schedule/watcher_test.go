package schedule

import (
	"bytes"
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gateprobe/internal/logger"
	"gateprobe/internal/probe"
)

func startEchoServer(t *testing.T) probe.Target {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

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
	return probe.Target{Host: "127.0.0.1", Port: ln.Addr().(*net.TCPAddr).Port}
}

func newTester(t *testing.T) *probe.Tester {
	t.Helper()
	strategy, err := probe.NewStrategy(probe.ModeData, probe.StrategyConfig{
		SendData:       true,
		ReceiveTimeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)

	var out bytes.Buffer
	return probe.NewTester(nil, probe.NewReporter(&out, logger.StatusOptions{}), probe.TesterConfig{
		ConnectTimeout: time.Second,
		Interval:       10 * time.Millisecond,
		Strategy:       strategy,
	})
}

func TestWatcher_RunsCountBatches(t *testing.T) {
	target := startEchoServer(t)

	var mu sync.Mutex
	var batches []int
	w, err := NewWatcher(newTester(t), target, WatchConfig{Every: 50 * time.Millisecond, Repeat: 2, Count: 2},
		func(batch int, summary *probe.Summary) {
			mu.Lock()
			defer mu.Unlock()
			batches = append(batches, batch)
			assert.Equal(t, 2, summary.Attempts)
			assert.Equal(t, 2, summary.Succeeded)
		})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, w.Run(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, batches)
	assert.Equal(t, 2, w.Batches())
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	target := startEchoServer(t)

	w, err := NewWatcher(newTester(t), target, WatchConfig{Every: time.Hour}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	assert.Eventually(t, func() bool { return w.Batches() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	w.Wait(ctx)
	require.NoError(t, w.Stop())
	assert.Error(t, w.Stop(), "second stop reports not running")
}

func TestNewWatcher_RejectsZeroInterval(t *testing.T) {
	_, err := NewWatcher(newTester(t), probe.Target{Host: "127.0.0.1", Port: 1}, WatchConfig{}, nil)
	assert.Error(t, err)
}
