package ledger

import "sync"

// TickSource reports the current tick. A tick is whatever discrete time unit
// the deployment advances by: a block height, a counter, a coarse clock.
// Ticks must never move backwards past the last checkpoint.
type TickSource interface {
	CurrentTick() (uint64, error)
}

// TickFunc adapts a plain function to a TickSource.
type TickFunc func() (uint64, error)

func (f TickFunc) CurrentTick() (uint64, error) { return f() }

// ManualTicker is a TickSource advanced explicitly by the caller. Used in
// tests and in deployments that drive the ledger from an external clock.
type ManualTicker struct {
	mu   sync.Mutex
	tick uint64
}

// NewManualTicker returns a ticker positioned at start.
func NewManualTicker(start uint64) *ManualTicker {
	return &ManualTicker{tick: start}
}

func (t *ManualTicker) CurrentTick() (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tick, nil
}

// Advance moves the ticker forward by n ticks.
func (t *ManualTicker) Advance(n uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tick += n
}

// Set positions the ticker at an absolute tick.
func (t *ManualTicker) Set(tick uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tick = tick
}
