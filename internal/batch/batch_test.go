package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusError struct {
	code int
}

func (e *statusError) Error() string   { return fmt.Sprintf("status %d", e.code) }
func (e *statusError) Retryable() bool { return e.code >= 500 }

func fastPolicy() Policy {
	p := DefaultPolicy()
	p.Backoff = []time.Duration{time.Millisecond}
	return p
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	var calls int32
	got, err := Retry(context.Background(), func(context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return "", &statusError{code: 503}
		}
		return "ok", nil
	}, fastPolicy())

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(3), calls)
}

func TestRetry_ReturnsLastErrorWhenExhausted(t *testing.T) {
	var calls int32
	_, err := Retry(context.Background(), func(context.Context) (int, error) {
		n := atomic.AddInt32(&calls, 1)
		return 0, &statusError{code: 500 + int(n)}
	}, fastPolicy())

	require.Error(t, err)
	var se *statusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 503, se.code)
	assert.Equal(t, int32(3), calls)
}

func TestRetry_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	_, err := Retry(context.Background(), func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, &statusError{code: 404}
	}, fastPolicy())

	require.Error(t, err)
	assert.Equal(t, int32(1), calls)
}

func TestRetry_DoesNotRetryValidationErrors(t *testing.T) {
	var calls int32
	err := RetryErr(context.Background(), func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return Invalid("seasons", "required for tv requests")
	}, fastPolicy())

	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, "seasons: required for tv requests", err.Error())
	assert.Equal(t, int32(1), calls)
}

func TestPolicy_DelayReusesLastBackoff(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 100*time.Millisecond, p.delay(0))
	assert.Equal(t, 500*time.Millisecond, p.delay(1))
	assert.Equal(t, time.Second, p.delay(2))
	assert.Equal(t, time.Second, p.delay(7))
	assert.Equal(t, time.Duration(0), Policy{}.delay(3))
}

func TestRetry_WaitsFollowBackoffInOrder(t *testing.T) {
	p := DefaultPolicy()
	p.Backoff = []time.Duration{20 * time.Millisecond, 200 * time.Millisecond}

	var attempts []time.Time
	_, err := Retry(context.Background(), func(context.Context) (int, error) {
		attempts = append(attempts, time.Now())
		return 0, &statusError{code: 503}
	}, p)

	require.Error(t, err)
	require.Len(t, attempts, 3)

	first := attempts[1].Sub(attempts[0])
	second := attempts[2].Sub(attempts[1])
	assert.GreaterOrEqual(t, first, 20*time.Millisecond)
	assert.Less(t, first, 200*time.Millisecond, "first retry must use the first backoff entry")
	assert.GreaterOrEqual(t, second, 200*time.Millisecond)
}

func TestDefaultShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"server error", &statusError{code: 502}, true},
		{"client error", &statusError{code: 400}, false},
		{"wrapped server error", fmt.Errorf("fetch: %w", &statusError{code: 500}), true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"timeout", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"validation", Invalid("mediaId", "must be positive"), false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultShouldRetry(tt.err))
		})
	}
}

func TestRun_OnePermanentFailure(t *testing.T) {
	items := []string{"a", "b", "bad", "d", "e"}

	results := Run(context.Background(), items, func(_ context.Context, s string) (string, error) {
		if s == "bad" {
			return "", &statusError{code: 400}
		}
		return s + "!", nil
	}, fastPolicy())

	require.Len(t, results, len(items))
	for i, r := range results {
		assert.Equal(t, items[i], r.Item)
		assert.Equal(t, i, r.Index)
	}
	assert.False(t, results[2].Success)
	assert.Error(t, results[2].Err)
	assert.Equal(t, "d!", results[3].Result)

	s := Summarize(results)
	assert.Equal(t, Summary{Total: 5, Succeeded: 4, Failed: 1}, s)

	errs := Errors(results, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, 2, errs[0].Index)
	assert.Equal(t, "bad", errs[0].Item)
}

func TestRun_ItemsStartConcurrently(t *testing.T) {
	const n = 8
	started := make(chan struct{}, n)
	release := make(chan struct{})

	done := make(chan []ItemResult[int, int])
	go func() {
		done <- Run(context.Background(), make([]int, n), func(_ context.Context, i int) (int, error) {
			started <- struct{}{}
			<-release
			return i, nil
		}, NoRetry())
	}()

	for range n {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("items did not all start before any finished")
		}
	}
	close(release)

	results := <-done
	assert.Equal(t, n, Summarize(results).Succeeded)
}

func TestRun_SlowItemDoesNotReorderResults(t *testing.T) {
	items := []int{30, 1, 10}

	results := Run(context.Background(), items, func(_ context.Context, ms int) (int, error) {
		time.Sleep(time.Duration(ms) * time.Millisecond)
		return ms, nil
	}, NoRetry())

	for i, r := range results {
		assert.Equal(t, items[i], r.Result)
	}
}

func TestRun_PanicIsCapturedPerItem(t *testing.T) {
	results := Run(context.Background(), []int{1, 2, 3}, func(_ context.Context, i int) (int, error) {
		if i == 2 {
			panic("kaboom")
		}
		return i, nil
	}, NoRetry())

	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Err.Error(), "kaboom")
	assert.True(t, results[2].Success)
}

func TestRun_Empty(t *testing.T) {
	results := Run(context.Background(), nil, func(_ context.Context, i int) (int, error) {
		return i, nil
	}, DefaultPolicy())
	assert.Empty(t, results)
}
