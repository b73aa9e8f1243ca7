package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/clock"
	podsummarydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/podsummary/domain"
	requestdomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/request/domain"
)

// stubSummaries implements the aggregator with a canned batch result.
type stubSummaries struct {
	batchCalls atomic.Int64
	changed    int
	err        error
}

func (s *stubSummaries) BatchUpdateAllStatuses(context.Context) (int, error) {
	s.batchCalls.Add(1)
	return s.changed, s.err
}

func (s *stubSummaries) CreateOrGet(context.Context, snowflake.ID, string, snowflake.ID) (*podsummarydomain.PodSummary, bool, error) {
	return nil, false, nil
}

func (s *stubSummaries) Get(context.Context, snowflake.ID, snowflake.ID) (*podsummarydomain.PodSummary, error) {
	return nil, nil
}

func (s *stubSummaries) List(context.Context, snowflake.ID) ([]podsummarydomain.PodSummary, error) {
	return nil, nil
}

func (s *stubSummaries) Recompute(context.Context, snowflake.ID, string, string) error { return nil }

func (s *stubSummaries) RecomputeForRequest(context.Context, requestdomain.StreamKey) error {
	return nil
}

func (s *stubSummaries) SyncFromRequests(context.Context, snowflake.ID) (*podsummarydomain.SyncResult, error) {
	return nil, nil
}

func (s *stubSummaries) RequestShipping(context.Context, snowflake.ID, snowflake.ID) (*podsummarydomain.PodSummary, error) {
	return nil, nil
}

func (s *stubSummaries) MarkShippingDispatched(context.Context, snowflake.ID, snowflake.ID) (*podsummarydomain.PodSummary, error) {
	return nil, nil
}

func (s *stubSummaries) MarkShippingDelivered(context.Context, snowflake.ID, snowflake.ID) (*podsummarydomain.PodSummary, error) {
	return nil, nil
}

func (s *stubSummaries) MarkShippingFailed(context.Context, snowflake.ID, snowflake.ID) (*podsummarydomain.PodSummary, error) {
	return nil, nil
}

func newTestRefresher(stub *stubSummaries, interval time.Duration) *Refresher {
	return NewRefresher(Params{
		Log:       zap.NewNop(),
		Summaries: stub,
		Clock:     clock.SystemClock{},
		Config:    Config{RefreshInterval: interval},
	})
}

func TestRunOnce(t *testing.T) {
	stub := &stubSummaries{changed: 3}
	r := newTestRefresher(stub, time.Minute)

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if got := stub.batchCalls.Load(); got != 1 {
		t.Fatalf("expected one batch call, got %d", got)
	}
}

func TestRunOncePropagatesError(t *testing.T) {
	sentinel := errors.New("db down")
	stub := &stubSummaries{err: sentinel}
	r := newTestRefresher(stub, time.Minute)

	if err := r.RunOnce(context.Background()); !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
}

func TestRunForeverTicksUntilCancelled(t *testing.T) {
	stub := &stubSummaries{}
	r := newTestRefresher(stub, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.RunForever(ctx)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop after cancel")
	}

	if got := stub.batchCalls.Load(); got == 0 {
		t.Fatal("expected at least one refresh run")
	}
}

func TestRunForeverStopsImmediatelyWhenCancelled(t *testing.T) {
	stub := &stubSummaries{}
	r := newTestRefresher(stub, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		r.RunForever(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not observe cancellation")
	}
	if got := stub.batchCalls.Load(); got != 0 {
		t.Fatalf("expected no runs before the first tick, got %d", got)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.RefreshInterval != 5*time.Minute {
		t.Fatalf("expected default interval, got %v", cfg.RefreshInterval)
	}

	cfg = Config{RefreshInterval: time.Second}.withDefaults()
	if cfg.RefreshInterval != time.Second {
		t.Fatalf("expected configured interval kept, got %v", cfg.RefreshInterval)
	}
}
