package swap

import (
	"errors"
	"sync"
)

// ErrPending is returned when an action starts while another is still pending.
var ErrPending = errors.New("another transaction is pending")

// Guard is a pending flag that is always cleared when the guarded action ends.
type Guard struct {
	mu      sync.Mutex
	pending bool
}

// Begin marks the guard pending. The returned release func clears it and is
// safe to call more than once.
func (g *Guard) Begin() (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending {
		return nil, ErrPending
	}
	g.pending = true

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.pending = false
			g.mu.Unlock()
		})
	}, nil
}

func (g *Guard) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}
