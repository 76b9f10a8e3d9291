package reclaim

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) Run(context.Context) (int, error) {
	r.calls.Add(1)
	return 0, r.err
}

type blockingRunner struct {
	started chan struct{}
}

func (r *blockingRunner) Run(ctx context.Context) (int, error) {
	close(r.started)
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestNewScheduler_Validation(t *testing.T) {
	_, err := NewScheduler("not a cron", &countingRunner{}, logging.Nop{})
	assert.Error(t, err)

	_, err = NewScheduler("* * * * * *", &countingRunner{}, logging.Nop{})
	assert.Error(t, err, "seconds field is not accepted")

	s, err := NewScheduler("", &countingRunner{}, logging.Nop{})
	require.NoError(t, err)
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_FiresAndSurvivesErrors(t *testing.T) {
	r := &countingRunner{err: errors.New("db down")}
	s, err := NewScheduler("@every 1s", r, logging.Nop{})
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return r.calls.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))
	after := r.calls.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, after, r.calls.Load())
}

func TestScheduler_StopTimesOutOnStuckRun(t *testing.T) {
	r := &blockingRunner{started: make(chan struct{})}
	s, err := NewScheduler("@every 1s", r, logging.Nop{})
	require.NoError(t, err)

	s.Start()
	select {
	case <-r.started:
	case <-time.After(5 * time.Second):
		t.Fatal("job never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)
}
