package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pipeline/internal/amqp"
	"pipeline/internal/cache"
	"pipeline/internal/core"
)

type fakeReloader struct {
	err   error
	calls int
}

func (f *fakeReloader) Reload(context.Context) (*cache.Batch, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &cache.Batch{Dataset: &core.Dataset{}}, nil
}

func TestHandleReloadRequest(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"success", nil, false},
		{"schema error is acknowledged", &core.SchemaError{Missing: []string{"Partner"}}, false},
		{"empty input is acknowledged", &core.EmptyInputError{TitleRows: 1}, false},
		{"source failure is retried", errors.New("sheets unavailable"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &fakeReloader{err: tc.err}
			w := NewReloadWorker(r)
			err := w.HandleReloadRequest(context.Background(), amqp.NewReloadRequest("r1", "test"))
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if r.calls != 1 {
				t.Fatalf("reload calls = %d", r.calls)
			}
		})
	}
}

type fakeReloadPublisher struct {
	mu   sync.Mutex
	reqs []*amqp.ReloadRequest
	err  error
}

func (f *fakeReloadPublisher) PublishReload(_ context.Context, req *amqp.ReloadRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.err
}

func (f *fakeReloadPublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func TestSchedulerPublishesOnStartAndTick(t *testing.T) {
	pub := &fakeReloadPublisher{err: errors.New("broker down")}
	s := NewScheduler(pub, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run returned %v", err)
	}
	if n := pub.count(); n < 2 {
		t.Fatalf("expected startup and scheduled requests, got %d", n)
	}
	if pub.reqs[0].Reason != "startup" || pub.reqs[0].RequestID == "" {
		t.Fatalf("first request = %+v", pub.reqs[0])
	}
}

func TestSchedulerRejectsZeroInterval(t *testing.T) {
	if err := NewScheduler(&fakeReloadPublisher{}, 0).Run(context.Background()); err == nil {
		t.Fatal("expected error for zero interval")
	}
}
