package background

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerDetachesFromCallerContext(t *testing.T) {
	r := NewRunner(2, time.Second, nil)
	reqCtx, cancel := context.WithCancel(context.Background())

	var ran atomic.Bool
	require.NoError(t, r.Go("detached", func(ctx context.Context) error {
		cancel()
		time.Sleep(10 * time.Millisecond)
		if ctx.Err() == nil {
			ran.Store(true)
		}
		return nil
	}))
	require.NoError(t, r.Close(context.Background()))
	assert.Error(t, reqCtx.Err())
	assert.True(t, ran.Load())
}

func TestRunnerBoundsConcurrency(t *testing.T) {
	r := NewRunner(2, 0, nil)
	var cur, peak atomic.Int32
	for i := 0; i < 8; i++ {
		require.NoError(t, r.Go("bounded", func(context.Context) error {
			n := cur.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			cur.Add(-1)
			return nil
		}))
	}
	require.NoError(t, r.Close(context.Background()))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunnerSurvivesFailuresAndPanics(t *testing.T) {
	r := NewRunner(1, 0, nil)
	require.NoError(t, r.Go("fails", func(context.Context) error { return errors.New("nope") }))
	require.NoError(t, r.Go("panics", func(context.Context) error { panic("boom") }))
	var after atomic.Bool
	require.NoError(t, r.Go("after", func(context.Context) error { after.Store(true); return nil }))
	require.NoError(t, r.Close(context.Background()))
	assert.True(t, after.Load())
}

func TestRunnerRejectsAfterClose(t *testing.T) {
	r := NewRunner(1, 0, nil)
	require.NoError(t, r.Close(context.Background()))
	assert.ErrorIs(t, r.Go("late", func(context.Context) error { return nil }), ErrClosed)
}

func TestCloseCancelsStragglers(t *testing.T) {
	r := NewRunner(1, 0, nil)
	require.NoError(t, r.Go("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Close(ctx), context.DeadlineExceeded)
}
