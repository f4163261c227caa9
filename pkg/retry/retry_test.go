package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failingThenOK(failures int) (func(context.Context) (string, error), *int) {
	calls := 0
	return func(context.Context) (string, error) {
		calls++
		if calls <= failures {
			return "", fmt.Errorf("failure %d", calls)
		}
		return "ok", nil
	}, &calls
}

func TestDoBound(t *testing.T) {
	tests := []struct {
		failures  int
		attempts  int
		wantOK    bool
		wantCalls int
	}{
		{0, 3, true, 1},
		{2, 3, true, 3},
		{3, 3, false, 3},
		{5, 3, false, 3},
		{1, 2, true, 2},
		{2, 2, false, 2},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d failures of %d attempts", tt.failures, tt.attempts), func(t *testing.T) {
			fn, calls := failingThenOK(tt.failures)
			got, err := Do(context.Background(), tt.attempts, time.Millisecond, fn)

			assert.Equal(t, tt.wantCalls, *calls)
			if tt.wantOK {
				require.NoError(t, err)
				assert.Equal(t, "ok", got)
				return
			}
			require.Error(t, err)
			assert.Equal(t, fmt.Sprintf("failure %d", tt.attempts), err.Error())
		})
	}
}

func TestDoReturnsLastErrorUnchanged(t *testing.T) {
	sentinel := errors.New("backend down")
	_, err := Do(context.Background(), 2, time.Millisecond, func(context.Context) (int, error) {
		return 0, sentinel
	})
	assert.Same(t, sentinel, err)
}

func TestDoStopsOnContextError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), 3, time.Millisecond, func(context.Context) (int, error) {
		calls++
		return 0, context.DeadlineExceeded
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Do(ctx, 3, time.Millisecond, func(context.Context) (int, error) {
		t.Fatal("fn must not run on a cancelled context")
		return 0, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoBackoffDoubles(t *testing.T) {
	var stamps []time.Time
	_, _ = Do(context.Background(), 3, 20*time.Millisecond, func(context.Context) (int, error) {
		stamps = append(stamps, time.Now())
		return 0, errors.New("fail")
	})

	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 20*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 40*time.Millisecond)
}
