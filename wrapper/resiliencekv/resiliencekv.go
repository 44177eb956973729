// Package resiliencekv wraps a dogbutler.KeyValueStore with failsafe-go retry
// and circuit-breaker policies, for network-backed stores (redis, mongo,
// postgres, ...) whose occasional transient failure shouldn't immediately
// surface to the cache/cookie/redirect managers above them.
package resiliencekv

import (
	"context"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/vsirisanthana/dogbutler"
)

// Config holds the resilience policies to apply. Both are optional; nil
// disables that policy.
type Config struct {
	RetryPolicy    retrypolicy.RetryPolicy[any]
	CircuitBreaker circuitbreaker.CircuitBreaker[any]
}

// RetryPolicyBuilder returns a builder pre-configured for KeyValueStore
// operations: retries on any error, up to 3 retries (4 attempts in all),
// exponential backoff.
func RetryPolicyBuilder() retrypolicy.Builder[any] {
	return retrypolicy.NewBuilder[any]().
		HandleIf(func(_ any, err error) bool { return err != nil }).
		WithMaxRetries(3).
		WithBackoff(100*time.Millisecond, 10*time.Second)
}

// CircuitBreakerBuilder returns a builder pre-configured for KeyValueStore
// operations: opens after 5 consecutive failures, half-opens after 60s.
func CircuitBreakerBuilder() circuitbreaker.Builder[any] {
	return circuitbreaker.NewBuilder[any]().
		HandleIf(func(_ any, err error) bool { return err != nil }).
		WithFailureThreshold(5).
		WithSuccessThreshold(2).
		WithDelay(60 * time.Second)
}

// Store wraps inner, running every operation through the configured
// policies.
type Store struct {
	inner  dogbutler.KeyValueStore
	config Config
}

// New wraps inner with the given Config.
func New(inner dogbutler.KeyValueStore, config Config) *Store {
	return &Store{inner: inner, config: config}
}

func (s *Store) policies() []failsafe.Policy[any] {
	var policies []failsafe.Policy[any]
	if s.config.RetryPolicy != nil {
		policies = append(policies, s.config.RetryPolicy)
	}
	if s.config.CircuitBreaker != nil {
		policies = append(policies, s.config.CircuitBreaker)
	}
	return policies
}

type getResult struct {
	value []byte
	ok    bool
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	policies := s.policies()
	fn := func() (any, error) {
		value, ok, err := s.inner.Get(ctx, key)
		return getResult{value: value, ok: ok}, err
	}
	if len(policies) == 0 {
		res, err := fn()
		gr := res.(getResult)
		return gr.value, gr.ok, err
	}
	res, err := failsafe.With(policies...).Get(fn)
	if res == nil {
		return nil, false, err
	}
	gr := res.(getResult)
	return gr.value, gr.ok, err
}

func (s *Store) run(fn func() error) error {
	policies := s.policies()
	if len(policies) == 0 {
		return fn()
	}
	_, err := failsafe.With(policies...).Get(func() (any, error) {
		return nil, fn()
	})
	return err
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.run(func() error { return s.inner.Set(ctx, key, value, ttl) })
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.run(func() error { return s.inner.Delete(ctx, key) })
}

func (s *Store) Clear(ctx context.Context) error {
	return s.run(func() error { return s.inner.Clear(ctx) })
}

var _ dogbutler.KeyValueStore = (*Store)(nil)
