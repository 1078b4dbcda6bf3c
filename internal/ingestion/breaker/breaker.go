// Package breaker implements the threshold/cooldown circuit breaker that
// wraps the embedder and graph-upsert calls during ingestion (spec §4.2).
//
// No library in the dependency pack provides a circuit breaker; this is a
// small stateful guard, not a domain concern suited to a third-party
// dependency, so it is hand-rolled (see DESIGN.md).
package breaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Call when the breaker is open and fast-failing.
var ErrOpen = errors.New("circuit breaker open")

type state int

const (
	closed state = iota
	open
	halfOpen
)

// Breaker is a threshold/cooldown circuit breaker: it opens after
// `threshold` consecutive failures, fast-fails while open, and allows a
// single half-open trial call after `cooldown` elapses.
type Breaker struct {
	threshold int
	cooldown  time.Duration

	mu          sync.Mutex
	state       state
	failures    int
	openedAt    time.Time
	halfOpenTry bool
}

// New builds a Breaker with the configured failure threshold and cooldown.
func New(threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	return &Breaker{threshold: threshold, cooldown: cooldown}
}

// Call executes fn guarded by the breaker's current state.
func (b *Breaker) Call(fn func() error) error {
	if !b.allow() {
		return ErrOpen
	}
	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case closed:
		return true
	case open:
		if time.Since(b.openedAt) < b.cooldown {
			return false
		}
		b.state = halfOpen
		b.halfOpenTry = false
		return true
	case halfOpen:
		if b.halfOpenTry {
			b.halfOpenTry = false
			return true
		}
		return false
	default:
		return true
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		b.state = closed
		return
	}

	switch b.state {
	case halfOpen:
		b.state = open
		b.openedAt = time.Now()
	default:
		b.failures++
		if b.failures >= b.threshold {
			b.state = open
			b.openedAt = time.Now()
		}
	}
}

// Open reports whether the breaker is currently fast-failing calls.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == open && time.Since(b.openedAt) < b.cooldown
}
