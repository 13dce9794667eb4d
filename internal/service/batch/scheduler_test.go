package batch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type blockingRunner struct {
	release chan struct{}
	calls   atomic.Int32
	err     error
}

func (r *blockingRunner) RunAll(ctx context.Context) (Summary, error) {
	r.calls.Add(1)
	<-r.release
	s := NewSummary()
	s.Add(DomainResult{Status: StatusSaved})
	return s, r.err
}

func TestScheduler_RejectsReentry(t *testing.T) {
	r := &blockingRunner{release: make(chan struct{})}
	s := NewScheduler(context.Background(), r)
	assert.Equal(t, StateIdle, s.State())

	assert.True(t, s.Start())
	assert.Equal(t, StateRunning, s.State())
	assert.False(t, s.Start(), "second start while running")

	close(r.release)
	s.Wait()

	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, int32(1), r.calls.Load())
	snap := s.Snapshot()
	if assert.NotNil(t, snap.Last) {
		assert.Equal(t, 1, snap.Last.Counts[StatusSaved])
	}
	assert.Empty(t, snap.LastError)
}

func TestScheduler_RestartsAfterFinish(t *testing.T) {
	r := &blockingRunner{release: make(chan struct{}), err: errors.New("store down")}
	close(r.release)
	s := NewScheduler(context.Background(), r)

	assert.True(t, s.Start())
	s.Wait()
	assert.Equal(t, "store down", s.Snapshot().LastError)

	assert.True(t, s.Start())
	s.Wait()
	assert.Equal(t, int32(2), r.calls.Load())
}
