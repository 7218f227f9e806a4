package amqp

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

func TestNewBackOff(t *testing.T) {
	b := newBackOff()

	if b.InitialInterval != time.Second {
		t.Errorf("InitialInterval = %v, want 1s", b.InitialInterval)
	}
	if b.MaxInterval != 30*time.Second {
		t.Errorf("MaxInterval = %v, want 30s", b.MaxInterval)
	}
	if b.MaxElapsedTime != 2*time.Minute {
		t.Errorf("MaxElapsedTime = %v, want 2m", b.MaxElapsedTime)
	}

	b.Reset()
	for i := 0; i < 20; i++ {
		if d := b.NextBackOff(); d > 36*time.Second {
			t.Fatalf("attempt %d waited %v, beyond the jittered cap", i, d)
		}
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"closed sentinel", amqp091.ErrClosed, true},
		{"wrapped closed sentinel", fmt.Errorf("publish: %w", amqp091.ErrClosed), true},
		{"connection refused", errors.New("connection refused"), true},
		{"unexpected EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("broken pipe"), true},
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
	client := &Client{exchangeName: "budgetx", queueName: "state_changed"}

	t.Run("initial state is closed", func(t *testing.T) {
		if client.isCircuitOpen() {
			t.Error("circuit should be closed initially")
		}
	})

	t.Run("failures open the circuit", func(t *testing.T) {
		for i := 0; i < maxFailures; i++ {
			client.recordFailure()
		}
		if !client.isCircuitOpen() {
			t.Error("circuit should be open after max failures")
		}
	})

	t.Run("success closes the circuit", func(t *testing.T) {
		client.recordSuccess()
		if client.isCircuitOpen() {
			t.Error("circuit should be closed after success")
		}
		if atomic.LoadInt64(&client.failureCount) != 0 {
			t.Error("failure count should be reset")
		}
	})

	t.Run("half-open after timeout", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now().Add(-openTimeout - time.Second)

		if client.isCircuitOpen() {
			t.Error("circuit should let a probe through after the timeout")
		}
		if atomic.LoadInt32(&client.state) != StateHalfOpen {
			t.Error("state should be half-open")
		}
	})

	t.Run("failed probe reopens", func(t *testing.T) {
		atomic.StoreInt64(&client.failureCount, 0)
		atomic.StoreInt32(&client.state, StateHalfOpen)
		client.recordFailure()
		if atomic.LoadInt32(&client.state) != StateOpen {
			t.Error("a failure while half-open should reopen the circuit")
		}
	})
}

func TestClient_PublishStateChanged_FailsFast(t *testing.T) {
	client := &Client{exchangeName: "budgetx", queueName: "state_changed"}

	t.Run("circuit open", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now()

		err := client.PublishStateChanged(context.Background(), KindEntries, 3)
		if !errors.Is(err, ErrCircuitOpen) {
			t.Errorf("expected ErrCircuitOpen, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		client.recordSuccess()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := client.PublishStateChanged(ctx, KindEntries, 3); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestStateChangedMessage(t *testing.T) {
	msg := NewStateChangedMessage(KindHistory, 7)
	if msg.Timestamp.IsZero() || time.Since(msg.Timestamp) > time.Second {
		t.Error("timestamp should be recent")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	parsed, err := StateChangedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("StateChangedMessageFromJSON() error = %v", err)
	}
	if parsed.Kind != KindHistory || parsed.Revision != 7 || !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("round trip mismatch: %+v vs %+v", parsed, msg)
	}
}

func TestStateChangedMessage_Rejects(t *testing.T) {
	for _, body := range []string{
		`{"kind":"entries","revision":"x"}`,
		`{"kind":"bogus","revision":1}`,
		`not json`,
	} {
		if _, err := StateChangedMessageFromJSON([]byte(body)); err == nil {
			t.Errorf("expected error for %s", body)
		}
	}
}
