package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gateprobe/internal/storage"
	"gateprobe/internal/storage/models"
	perrors "gateprobe/pkg/errors"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newRun(host string, port int, started time.Time) *models.Run {
	return &models.Run{
		ID:        uuid.NewString(),
		Host:      host,
		Port:      port,
		Mode:      "data",
		Repeat:    3,
		StartedAt: started,
	}
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	run := newRun("10.0.0.5", 8583, time.Now())
	require.NoError(t, db.CreateRun(ctx, run))

	connectMS := 12.5
	require.NoError(t, db.RecordAttempt(ctx, &models.Attempt{
		RunID: run.ID, Iteration: 1, Success: true, ConnectMS: &connectMS, ResponseHex: "0011",
	}))
	require.NoError(t, db.RecordAttempt(ctx, &models.Attempt{
		RunID: run.ID, Iteration: 2, Success: false, ErrorKind: "refused", ErrorMessage: "connection refused",
	}))

	stored, err := db.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Attempts)
	assert.Equal(t, 1, stored.Succeeded)
	assert.Nil(t, stored.FinishedAt)

	run.Attempts, run.Succeeded = 2, 1
	require.NoError(t, db.FinishRun(ctx, run))

	stored, err = db.GetRun(ctx, run.ID[:8])
	require.NoError(t, err)
	require.NotNil(t, stored.FinishedAt)
	assert.Equal(t, "10.0.0.5:8583", stored.Target())
	assert.InDelta(t, 50.0, stored.SuccessRate(), 0.001)

	attempts, err := db.GetAttempts(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, 1, attempts[0].Iteration)
	require.NotNil(t, attempts[0].ConnectMS)
	assert.InDelta(t, 12.5, *attempts[0].ConnectMS, 0.001)
	assert.Equal(t, "0011", attempts[0].ResponseHex)
	assert.Nil(t, attempts[1].ConnectMS)
	assert.Equal(t, "refused", attempts[1].ErrorKind)
}

func TestGetRun_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetRun(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, perrors.ErrRunNotFound)
}

func TestRecordAttempt_UnknownRun(t *testing.T) {
	db := newTestDB(t)

	err := db.RecordAttempt(context.Background(), &models.Attempt{RunID: "missing", Iteration: 1})
	assert.Error(t, err)
}

func TestGetRecentRuns_FilterAndOrder(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	base := time.Now().Add(-time.Hour)
	older := newRun("gw.example", 8583, base)
	newer := newRun("gw.example", 8583, base.Add(time.Minute))
	other := newRun("gw.example", 9000, base.Add(2*time.Minute))
	for _, r := range []*models.Run{older, newer, other} {
		require.NoError(t, db.CreateRun(ctx, r))
	}

	all, err := db.GetRecentRuns(ctx, storage.RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, other.ID, all[0].ID)

	port := 8583
	filtered, err := db.GetRecentRuns(ctx, storage.RunFilter{Port: &port, Limit: 1})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, newer.ID, filtered[0].ID)
}
