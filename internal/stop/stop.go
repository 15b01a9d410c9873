// Package stop implements the cooperative "stop generation" control. A
// Controller mints one Token per request; the process-wide stop action trips
// whatever token is active. Dispatchers consult the token at coarse
// checkpoints (after model load, after the main inference call, before each
// post-process step) and abandon further work when it has fired. A single
// long-running inference call already in progress is never interrupted.
package stop

import (
	"errors"
	"sync"
)

// StoppedMessage is the canonical user-facing result for a cancelled request.
const StoppedMessage = "Generation stopped"

// ErrStopped is returned from checkpoints once the active token has fired.
var ErrStopped = errors.New(StoppedMessage)

// IsStopped reports whether err is the cooperative-cancellation sentinel.
func IsStopped(err error) bool { return errors.Is(err, ErrStopped) }

// Token is the per-request cancellation handle.
type Token struct {
	mu      sync.Mutex
	stopped bool
}

// Stopped reports whether the stop action fired for this request.
func (t *Token) Stopped() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Err returns ErrStopped once the token has fired, nil otherwise. Dispatcher
// checkpoints are a plain `if err := tok.Err(); err != nil { return ... }`.
func (t *Token) Err() error {
	if t.Stopped() {
		return ErrStopped
	}
	return nil
}

func (t *Token) trip() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

// Controller owns the active token. There is at most one generation in
// flight, so tracking a single current token is sufficient.
type Controller struct {
	mu  sync.Mutex
	cur *Token
}

func NewController() *Controller { return &Controller{} }

// Begin resets the stop state for a new request and returns its token. A
// request can therefore never be cancelled by a stop that preceded it.
func (c *Controller) Begin() *Token {
	t := &Token{}
	c.mu.Lock()
	c.cur = t
	c.mu.Unlock()
	return t
}

// Stop trips the active token. No-op when nothing is in flight.
func (c *Controller) Stop() {
	c.mu.Lock()
	t := c.cur
	c.mu.Unlock()
	if t != nil {
		t.trip()
	}
}
