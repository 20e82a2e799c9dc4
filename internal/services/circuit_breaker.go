package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"expense-tracker/internal/models"
)

var (
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

type CircuitBreakerConfig struct {
	MaxFailures     int
	ResetTimeout    time.Duration
	HalfOpenMaxSucc int
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxFailures:     5,
		ResetTimeout:    30 * time.Second,
		HalfOpenMaxSucc: 2,
	}
}

// CircuitState is the breaker's position
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

// CircuitBreaker stops calling an upstream that keeps failing and lets a
// trial call through once ResetTimeout has passed
type CircuitBreaker struct {
	mu                sync.Mutex
	config            CircuitBreakerConfig
	state             CircuitState
	failures          int
	halfOpenSuccesses int
	lastFailureTime   time.Time
	now               func() time.Time
}

func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
		now:    time.Now,
	}
}

// Allow reports whether a call may proceed, moving an expired open breaker to half-open
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.now().Sub(cb.lastFailureTime) > cb.config.ResetTimeout {
		cb.state = StateHalfOpen
		cb.halfOpenSuccesses = 0
	}

	return cb.state != StateOpen
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		cb.halfOpenSuccesses++
		if cb.halfOpenSuccesses >= cb.config.HalfOpenMaxSucc {
			cb.state = StateClosed
			cb.failures = 0
			cb.halfOpenSuccesses = 0
		}
	case StateClosed:
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailureTime = cb.now()

	switch cb.state {
	case StateHalfOpen:
		cb.state = StateOpen
		cb.halfOpenSuccesses = 0
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.config.MaxFailures {
			cb.state = StateOpen
		}
	}
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GuardedIdentityProvider fails sign-ins fast while the identity provider is down
type GuardedIdentityProvider struct {
	next    IdentityProviderInterface
	breaker *CircuitBreaker
}

// NewGuardedIdentityProvider wraps next with a circuit breaker
func NewGuardedIdentityProvider(next IdentityProviderInterface, config CircuitBreakerConfig) IdentityProviderInterface {
	return &GuardedIdentityProvider{
		next:    next,
		breaker: NewCircuitBreaker(config),
	}
}

func (p *GuardedIdentityProvider) AuthCodeURL(state string) string {
	return p.next.AuthCodeURL(state)
}

// Exchange counts only upstream failures; a bad or missing code from the
// browser says nothing about the provider's health
func (p *GuardedIdentityProvider) Exchange(ctx context.Context, code string) (*models.IdentityProfile, error) {
	if !p.breaker.Allow() {
		return nil, ErrCircuitBreakerOpen
	}

	profile, err := p.next.Exchange(ctx, code)
	switch {
	case err == nil:
		p.breaker.RecordSuccess()
	case errors.Is(err, ErrCodeExchangeFailed), errors.Is(err, ErrProfileUnavailable):
		p.breaker.RecordFailure()
	}

	return profile, err
}
