package workers

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingWorker struct {
	runs     atomic.Int32
	behavior func(runs int32) error
}

func (w *countingWorker) Run(context.Context) error {
	return w.behavior(w.runs.Add(1))
}

type panickingWorker struct {
	runs atomic.Int32
}

func (w *panickingWorker) Run(context.Context) error {
	if w.runs.Add(1) == 1 {
		panic("boom")
	}
	return nil
}

func TestSupervisor_FinishedWorkerIsNotRestarted(t *testing.T) {
	sup := NewSupervisor(testLogger(), time.Millisecond)
	worker := &countingWorker{behavior: func(int32) error { return nil }}
	sup.Add(worker)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	sup.Run(ctx)

	require.Equal(t, int32(1), worker.runs.Load())
}

func TestSupervisor_RecoversPanicAndRestarts(t *testing.T) {
	sup := NewSupervisor(testLogger(), time.Millisecond)
	worker := &panickingWorker{}
	sup.Add(worker)

	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	// First run panics, the supervisor restarts it, the second run
	// finishes cleanly and the supervisor lets it retire.
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not drain after restart")
	}
	require.Equal(t, int32(2), worker.runs.Load())
}

func TestSupervisor_StopCancelsRunningWorkers(t *testing.T) {
	sup := NewSupervisor(testLogger(), time.Millisecond)

	started := make(chan struct{})
	sup.Add(workerFunc(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return nil
	}))

	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	<-started
	sup.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop")
	}
}

type workerFunc func(ctx context.Context) error

func (f workerFunc) Run(ctx context.Context) error { return f(ctx) }
