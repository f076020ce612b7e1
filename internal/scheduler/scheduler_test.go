package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRunner struct {
	calls    int32
	err      error
	deadline bool
}

func (r *countingRunner) RunAndStore(ctx context.Context) error {
	atomic.AddInt32(&r.calls, 1)
	_, r.deadline = ctx.Deadline()
	return r.err
}

func TestScheduler_RunsJobOnInterval(t *testing.T) {
	r := &countingRunner{}
	s := New(r, 50*time.Millisecond, time.Second, zap.NewNop())
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&r.calls) >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_RunBoundsContext(t *testing.T) {
	r := &countingRunner{err: errors.New("dataset down")}
	s := New(r, 0, 0, nil)
	assert.Equal(t, defaultInterval, s.interval)
	assert.Equal(t, defaultTimeout, s.timeout)

	s.run()
	assert.EqualValues(t, 1, r.calls)
	assert.True(t, r.deadline)
}
