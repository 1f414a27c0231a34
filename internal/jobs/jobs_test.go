package jobs_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wardenbot/warden/internal/jobs"
	"go.uber.org/zap"
)

func setupTest(t *testing.T) *jobs.Client {
	t.Helper()

	// Start miniredis server
	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Create Redis client
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:       []string{mr.Addr()},
		DisableCache:      true,
		ForceSingleClient: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return jobs.NewClient(client, zap.NewNop())
}

func TestScheduleAndDue(t *testing.T) {
	t.Parallel()

	backend := setupTest(t)
	ctx := t.Context()
	fireAt := time.Now().Add(-time.Minute)

	jobID, err := backend.ScheduleAt(ctx, fireAt, 100, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, jobID)

	due, err := backend.Due(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, jobID, due[0].ID)
	assert.Equal(t, uint64(100), due[0].GuildID)
	assert.Equal(t, int64(1), due[0].CaseID)
}

func TestDueSkipsFutureJobs(t *testing.T) {
	t.Parallel()

	backend := setupTest(t)
	ctx := t.Context()

	_, err := backend.ScheduleAt(ctx, time.Now().Add(time.Hour), 100, 1)
	require.NoError(t, err)

	due, err := backend.Due(ctx, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestCancel(t *testing.T) {
	t.Parallel()

	backend := setupTest(t)
	ctx := t.Context()

	jobID, err := backend.ScheduleAt(ctx, time.Now().Add(time.Hour), 100, 1)
	require.NoError(t, err)

	cancelled, err := backend.Cancel(ctx, jobID)
	require.NoError(t, err)
	assert.True(t, cancelled)

	// Second cancel is a no-op, not an error.
	cancelled, err = backend.Cancel(ctx, jobID)
	require.NoError(t, err)
	assert.False(t, cancelled)
}

func TestCancelMissingJob(t *testing.T) {
	t.Parallel()

	backend := setupTest(t)

	cancelled, err := backend.Cancel(t.Context(), "no-such-job")
	require.NoError(t, err)
	assert.False(t, cancelled)
}

func TestRescheduleKeepsHandle(t *testing.T) {
	t.Parallel()

	backend := setupTest(t)
	ctx := t.Context()

	jobID, err := backend.ScheduleAt(ctx, time.Now().Add(time.Hour), 100, 1)
	require.NoError(t, err)

	newID, err := backend.RescheduleOrReplace(ctx, jobID, time.Now().Add(-time.Minute), 100, 1)
	require.NoError(t, err)
	assert.Equal(t, jobID, newID)

	// The moved job is now due under the same handle.
	due, err := backend.Due(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, jobID, due[0].ID)
}

func TestRemoveAfterFiring(t *testing.T) {
	t.Parallel()

	backend := setupTest(t)
	ctx := t.Context()
	fireAt := time.Now().Add(-time.Minute)

	jobID, err := backend.ScheduleAt(ctx, fireAt, 100, 1)
	require.NoError(t, err)

	due, err := backend.Due(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)

	removed, err := backend.Remove(ctx, jobID, due[0].FireAt)
	require.NoError(t, err)
	assert.True(t, removed)

	due, err = backend.Due(ctx, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestRemoveSkipsRescheduledJob(t *testing.T) {
	t.Parallel()

	backend := setupTest(t)
	ctx := t.Context()
	now := time.Now()

	jobID, err := backend.ScheduleAt(ctx, now.Add(-time.Minute), 100, 1)
	require.NoError(t, err)

	// Worker pulls the due job, then the expiration is moved into the future
	// under the same handle before the worker removes it.
	due, err := backend.Due(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)

	newFireAt := now.Add(time.Hour)
	_, err = backend.RescheduleOrReplace(ctx, jobID, newFireAt, 100, 1)
	require.NoError(t, err)

	removed, err := backend.Remove(ctx, jobID, due[0].FireAt)
	require.NoError(t, err)
	assert.False(t, removed)

	// The rescheduled firing survives with its payload intact.
	due, err = backend.Due(ctx, newFireAt.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, jobID, due[0].ID)
	assert.Equal(t, uint64(100), due[0].GuildID)
	assert.Equal(t, int64(1), due[0].CaseID)
}

func TestDueOrdersOldestFirst(t *testing.T) {
	t.Parallel()

	backend := setupTest(t)
	ctx := t.Context()
	now := time.Now()

	second, err := backend.ScheduleAt(ctx, now.Add(-time.Minute), 100, 2)
	require.NoError(t, err)

	first, err := backend.ScheduleAt(ctx, now.Add(-time.Hour), 100, 1)
	require.NoError(t, err)

	due, err := backend.Due(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, first, due[0].ID)
	assert.Equal(t, second, due[1].ID)
}
