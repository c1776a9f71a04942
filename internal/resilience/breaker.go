package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// BreakerState represents the state of a circuit breaker.
type BreakerState int

const (
	// StateClosed is normal operation; calls flow through.
	StateClosed BreakerState = iota
	// StateOpen rejects calls immediately after repeated failures.
	StateOpen
	// StateHalfOpen lets a probe call through to test recovery.
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is returned when a call is rejected because the breaker is open.
var ErrBreakerOpen = eris.New("circuit breaker is open")

// BreakerConfig controls circuit breaker behavior.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening.
	FailureThreshold int
	// ResetTimeout is how long the breaker stays open before half-open.
	ResetTimeout time.Duration
	// ShouldTrip overrides the default any-error check when non-nil.
	ShouldTrip func(err error) bool
	// OnStateChange is called on state transitions.
	OnStateChange func(from, to BreakerState)
}

// DefaultBreakerConfig returns the per-provider breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     60 * time.Second,
	}
}

// Breaker implements the circuit breaker pattern for a single provider.
type Breaker struct {
	cfg BreakerConfig

	mu                  sync.Mutex
	state               BreakerState
	consecutiveFailures int
	lastFailureTime     time.Time

	nowFunc func() time.Time // injectable for tests
}

// NewBreaker creates a circuit breaker with the given config.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 60 * time.Second
	}
	return &Breaker{
		cfg:     cfg,
		state:   StateClosed,
		nowFunc: time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (b *Breaker) WithNow(now func() time.Time) *Breaker {
	b.nowFunc = now
	return b
}

// Execute runs fn through the breaker, returning ErrBreakerOpen without
// calling fn when the breaker is open.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := fn(ctx)
	b.record(err)
	return err
}

// State returns the current breaker state, accounting for reset timeout.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.nowFunc().Sub(b.lastFailureTime) >= b.cfg.ResetTimeout {
		return StateHalfOpen
	}
	return b.state
}

// Reset forces the breaker back to closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	old := b.state
	b.state = StateClosed
	b.consecutiveFailures = 0
	if old != StateClosed && b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(old, StateClosed)
	}
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.nowFunc().Sub(b.lastFailureTime) >= b.cfg.ResetTimeout {
			b.transition(StateHalfOpen)
			return nil // probe
		}
		return ErrBreakerOpen
	default:
		return nil
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	shouldTrip := b.cfg.ShouldTrip
	if shouldTrip == nil {
		shouldTrip = func(e error) bool { return e != nil }
	}

	if err == nil || !shouldTrip(err) {
		if b.state == StateHalfOpen {
			b.transition(StateClosed)
		}
		b.consecutiveFailures = 0
		return
	}

	b.consecutiveFailures++
	b.lastFailureTime = b.nowFunc()

	switch b.state {
	case StateClosed:
		if b.consecutiveFailures >= b.cfg.FailureThreshold {
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		b.transition(StateOpen)
	}
}

func (b *Breaker) transition(to BreakerState) {
	from := b.state
	b.state = to
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}

// BreakerSet manages one breaker per provider.
type BreakerSet struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	cfg      BreakerConfig
}

// NewBreakerSet creates a registry of per-provider circuit breakers.
func NewBreakerSet(cfg BreakerConfig) *BreakerSet {
	return &BreakerSet{
		breakers: make(map[string]*Breaker),
		cfg:      cfg,
	}
}

// Get returns the breaker for a provider, creating one if needed.
func (s *BreakerSet) Get(provider string) *Breaker {
	s.mu.RLock()
	b, ok := s.breakers[provider]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok = s.breakers[provider]; ok {
		return b
	}
	b = NewBreaker(s.cfg)
	s.breakers[provider] = b
	return b
}

// States returns a snapshot of all breaker states.
func (s *BreakerSet) States() map[string]BreakerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	states := make(map[string]BreakerState, len(s.breakers))
	for name, b := range s.breakers {
		states[name] = b.State()
	}
	return states
}
