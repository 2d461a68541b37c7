package circuit

import (
	"errors"
	"testing"
	"time"
)

var errDown = errors.New("dependency down")

func testConfig() Config {
	return Config{
		FailureThreshold: 3,
		Cooldown:         50 * time.Millisecond,
		SuccessThreshold: 2,
	}
}

func failing() error { return errDown }
func passing() error { return nil }

func TestBreakerStartsClosed(t *testing.T) {
	b := NewBreaker("test", testConfig(), nil)

	if b.State() != StateClosed {
		t.Fatalf("expected initial state CLOSED, got %s", b.State())
	}

	if err := b.Execute(passing); err != nil {
		t.Fatalf("expected call to pass through, got %v", err)
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker("test", testConfig(), nil)

	for i := 0; i < 3; i++ {
		if err := b.Execute(failing); !errors.Is(err, errDown) {
			t.Fatalf("call %d: expected dependency error, got %v", i, err)
		}
	}

	if b.State() != StateOpen {
		t.Fatalf("expected state OPEN after threshold, got %s", b.State())
	}

	if err := b.Execute(passing); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen while open, got %v", err)
	}
}

func TestBreakerFailureCountResetsOnSuccess(t *testing.T) {
	b := NewBreaker("test", testConfig(), nil)

	b.Execute(failing)
	b.Execute(failing)
	b.Execute(passing)
	b.Execute(failing)
	b.Execute(failing)

	if b.State() != StateClosed {
		t.Fatalf("expected state CLOSED, got %s", b.State())
	}
}

func TestBreakerProbesAfterCooldown(t *testing.T) {
	b := NewBreaker("test", testConfig(), nil)

	for i := 0; i < 3; i++ {
		b.Execute(failing)
	}

	time.Sleep(60 * time.Millisecond)

	// First probe succeeds, breaker stays half-open
	if err := b.Execute(passing); err != nil {
		t.Fatalf("expected probe to pass through, got %v", err)
	}
	if b.State() != StateHalfOpen {
		t.Fatalf("expected state HALF_OPEN after one probe, got %s", b.State())
	}

	// Second success closes the circuit
	if err := b.Execute(passing); err != nil {
		t.Fatalf("expected second probe to pass through, got %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("expected state CLOSED after recovery, got %s", b.State())
	}
}

func TestBreakerReopensOnProbeFailure(t *testing.T) {
	b := NewBreaker("test", testConfig(), nil)

	for i := 0; i < 3; i++ {
		b.Execute(failing)
	}

	time.Sleep(60 * time.Millisecond)

	if err := b.Execute(failing); !errors.Is(err, errDown) {
		t.Fatalf("expected probe to reach dependency, got %v", err)
	}

	if b.State() != StateOpen {
		t.Fatalf("expected state OPEN after failed probe, got %s", b.State())
	}

	if err := b.Execute(passing); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected fast failure before cooldown, got %v", err)
	}
}

func TestBreakerStats(t *testing.T) {
	b := NewBreaker("mailer", testConfig(), nil)

	b.Execute(failing)
	stats := b.Stats()

	if stats.Name != "mailer" {
		t.Errorf("expected name mailer, got %s", stats.Name)
	}
	if stats.State != "CLOSED" {
		t.Errorf("expected state CLOSED, got %s", stats.State)
	}
	if stats.Failures != 1 {
		t.Errorf("expected 1 failure, got %d", stats.Failures)
	}
	if stats.LastFailure.IsZero() {
		t.Error("expected last failure timestamp to be set")
	}
}
