package amqp

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, maxBackoff, maxBackoff}
	for attempt, w := range want {
		if got := exponentialBackoff(attempt); got != w {
			t.Errorf("exponentialBackoff(%d) = %v, want %v", attempt, got, w)
		}
	}
	if got := exponentialBackoff(-3); got != time.Second {
		t.Errorf("exponentialBackoff(-3) = %v, want 1s", got)
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("unexpected EOF"), true},
		{errors.New("write: broken pipe"), true},
		{errors.New("consume: channel/connection is not open"), true},
		{errors.New("PRECONDITION_FAILED - inequivalent arg"), false},
	}
	for _, tt := range tests {
		if got := isConnectionError(tt.err); got != tt.want {
			t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestBreakerTransitions(t *testing.T) {
	c := &Client{queueName: "records"}

	if c.isCircuitOpen() {
		t.Fatal("new client breaker should be closed")
	}

	for i := 0; i < maxFailures-1; i++ {
		c.recordFailure()
	}
	if c.isCircuitOpen() {
		t.Fatalf("breaker opened after %d failures, want %d", maxFailures-1, maxFailures)
	}
	c.recordFailure()
	if !c.isCircuitOpen() {
		t.Fatal("breaker should open at maxFailures")
	}

	// Past the open timeout one attempt is let through.
	c.breakerMu.Lock()
	c.lastFailure = time.Now().Add(-openTimeout - time.Second)
	c.breakerMu.Unlock()
	if c.isCircuitOpen() {
		t.Fatal("breaker should be half-open after the timeout")
	}
	if c.state != StateHalfOpen {
		t.Fatalf("state = %d, want half-open", c.state)
	}

	// A failure while half-open reopens immediately.
	c.recordFailure()
	if !c.isCircuitOpen() {
		t.Fatal("failure in half-open state should reopen the breaker")
	}

	c.recordSuccess()
	if c.isCircuitOpen() || c.failureCount != 0 {
		t.Fatalf("success should reset the breaker, state=%d failures=%d", c.state, c.failureCount)
	}
}

func TestPublishRecordSyncRefusals(t *testing.T) {
	t.Run("open breaker", func(t *testing.T) {
		c := &Client{state: StateOpen, lastFailure: time.Now()}
		err := c.PublishRecordSync(context.Background(), 42, 1)
		if !errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("err = %v, want ErrCircuitOpen", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c := &Client{}
		if err := c.PublishRecordSync(ctx, 42, 1); !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	})
}
