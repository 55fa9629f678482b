package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{15, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"closed connection", errors.New("connection closed"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"other error", errors.New("some other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "pipeline", queueName: "pipeline.reload"}

	if client.isCircuitOpen() {
		t.Fatal("circuit breaker should be closed initially")
	}

	for i := 0; i < maxFailures; i++ {
		client.recordFailure()
	}
	if !client.isCircuitOpen() {
		t.Fatal("circuit breaker should be open after max failures")
	}

	client.lastFailure = time.Now().Add(-openTimeout - time.Second)
	if client.isCircuitOpen() {
		t.Fatal("circuit should move to half-open after the timeout")
	}
	if atomic.LoadInt32(&client.state) != StateHalfOpen {
		t.Fatal("state should be half-open")
	}

	client.recordSuccess()
	if atomic.LoadInt64(&client.failureCount) != 0 || atomic.LoadInt32(&client.state) != StateClosed {
		t.Fatal("success should reset the breaker")
	}
}

func TestClient_PublishGuards(t *testing.T) {
	client := &Client{exchangeName: "pipeline", queueName: "pipeline.reload"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.PublishReload(ctx, NewReloadRequest("r1", "test")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	atomic.StoreInt32(&client.state, StateOpen)
	client.lastFailure = time.Now()
	err := client.PublishBatchLoaded(context.Background(), BatchLoaded{BatchID: "b"})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(bool) error {
	f.acked = true
	return nil
}

func (f *fakeAck) Nack(_ bool, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}

func TestProcessDelivery(t *testing.T) {
	ok := func(context.Context, *ReloadRequest) error { return nil }
	fail := func(context.Context, *ReloadRequest) error { return errors.New("source down") }
	body, _ := NewReloadRequest("r1", "schedule").ToJSON()

	cases := []struct {
		name        string
		body        []byte
		handler     func(context.Context, *ReloadRequest) error
		wantAck     bool
		wantRequeue bool
	}{
		{"success acks", body, ok, true, false},
		{"handler failure requeues", body, fail, false, true},
		{"malformed message is dropped", []byte("{"), ok, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := &fakeAck{}
			process(context.Background(), tc.body, a, tc.handler)
			if a.acked != tc.wantAck || a.requeued != tc.wantRequeue {
				t.Fatalf("ack=%v requeue=%v", a.acked, a.requeued)
			}
			if !tc.wantAck && !a.nacked {
				t.Fatal("expected a nack")
			}
		})
	}
}

func TestReloadRequestJSON(t *testing.T) {
	msg := &ReloadRequest{RequestID: "abc", Reason: "schedule", Timestamp: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	b, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !strings.Contains(string(b), `"request_id":"abc"`) {
		t.Fatalf("unexpected json: %s", b)
	}
	parsed, err := ReloadRequestFromJSON(b)
	if err != nil || parsed.RequestID != "abc" || !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Fatalf("parsed = %+v, err = %v", parsed, err)
	}
	if _, err := ReloadRequestFromJSON([]byte(`{"request_id": 5}`)); err == nil {
		t.Fatal("expected error for wrong field type")
	}
}
