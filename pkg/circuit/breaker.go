package circuit

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State represents circuit breaker state
type State int

const (
	StateClosed   State = iota // Normal operation - calls pass through
	StateOpen                  // Circuit is open - calls fail fast
	StateHalfOpen              // Probing whether the dependency recovered
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// ErrCircuitOpen is returned when the breaker rejects a call
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Config defines circuit breaker configuration
type Config struct {
	FailureThreshold int           // Consecutive failures before opening
	Cooldown         time.Duration // Time to wait before allowing a probe
	SuccessThreshold int           // Probe successes needed to close again
}

// DefaultConfig returns sensible defaults for an outbound dependency
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		SuccessThreshold: 2,
	}
}

// Stats is a snapshot of breaker state
type Stats struct {
	Name        string    `json:"name"`
	State       string    `json:"state"`
	Failures    int       `json:"failures"`
	LastFailure time.Time `json:"last_failure,omitempty"`
}

// Breaker protects an outbound dependency with the circuit breaker pattern.
// A probe is allowed once per cooldown window while the circuit is open.
type Breaker struct {
	mu          sync.Mutex
	name        string
	config      Config
	logger      *zap.Logger
	state       State
	failures    int
	probeWins   int
	probeInFly  bool
	lastFailure time.Time
}

// NewBreaker creates a new circuit breaker
func NewBreaker(name string, config Config, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Breaker{
		name:   name,
		config: config,
		logger: logger,
		state:  StateClosed,
	}
}

// Execute runs fn if the breaker allows it and records the outcome
func (b *Breaker) Execute(fn func() error) error {
	if !b.allow() {
		return ErrCircuitOpen
	}

	err := fn()
	b.record(err)
	return err
}

// State returns the current state
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns a snapshot of the breaker
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Name:        b.name,
		State:       b.state.String(),
		Failures:    b.failures,
		LastFailure: b.lastFailure,
	}
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true

	case StateOpen:
		if time.Since(b.lastFailure) < b.config.Cooldown {
			return false
		}
		b.transition(StateHalfOpen)
		b.probeInFly = true
		return true

	case StateHalfOpen:
		if b.probeInFly {
			return false
		}
		b.probeInFly = true
		return true
	}

	return false
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probeInFly = false

	if err != nil {
		b.failures++
		b.lastFailure = time.Now()

		if b.state == StateHalfOpen || (b.state == StateClosed && b.failures >= b.config.FailureThreshold) {
			b.transition(StateOpen)
		}
		return
	}

	switch b.state {
	case StateClosed:
		b.failures = 0

	case StateHalfOpen:
		b.probeWins++
		if b.probeWins >= b.config.SuccessThreshold {
			b.transition(StateClosed)
		}
	}
}

// transition changes state (must hold lock)
func (b *Breaker) transition(next State) {
	prev := b.state
	b.state = next
	b.probeWins = 0

	if next == StateClosed {
		b.failures = 0
	}

	b.logger.Info("Circuit breaker state changed",
		zap.String("name", b.name),
		zap.String("from", prev.String()),
		zap.String("to", next.String()),
	)
}
