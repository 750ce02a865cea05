package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhomen368/overseerr-mcp/internal/testutil"
)

func TestScheduler_RegisterAndRunNow(t *testing.T) {
	sched, err := New(testutil.NopLogger())
	require.NoError(t, err)

	var runs atomic.Int32
	require.NoError(t, sched.RegisterTask(TaskConfig{
		ID:   "prune",
		Name: "Prune",
		Cron: "0 0 1 1 *",
		Func: func(context.Context) error {
			runs.Add(1)
			return errors.New("boom")
		},
	}))

	sched.Start(context.Background())
	defer func() { _ = sched.Stop() }()

	require.NoError(t, sched.RunNow("prune"))
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		info, err := sched.GetTask("prune")
		return err == nil && info.Runs == 1 && !info.Running
	}, time.Second, 5*time.Millisecond)

	info, err := sched.GetTask("prune")
	require.NoError(t, err)
	assert.Equal(t, "boom", info.LastError)
	assert.NotNil(t, info.LastRun)
}

func TestScheduler_Errors(t *testing.T) {
	sched, err := New(testutil.NopLogger())
	require.NoError(t, err)

	task := TaskConfig{ID: "a", Cron: "*/5 * * * *", Func: func(context.Context) error { return nil }}
	require.NoError(t, sched.RegisterTask(task))
	assert.ErrorIs(t, sched.RegisterTask(task), ErrDuplicateTask)

	assert.ErrorIs(t, sched.RunNow("missing"), ErrTaskNotFound)
	_, err = sched.GetTask("missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	assert.Error(t, sched.RegisterTask(TaskConfig{ID: "bad", Cron: "not a cron", Func: task.Func}))
}

func TestScheduler_EmptyCronDisablesTask(t *testing.T) {
	sched, err := New(testutil.NopLogger())
	require.NoError(t, err)

	require.NoError(t, sched.RegisterTask(TaskConfig{ID: "off", Func: func(context.Context) error { return nil }}))
	assert.Empty(t, sched.ListTasks())
}
