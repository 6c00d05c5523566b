package sequencer

import "sync/atomic"

// Gate lets one sequence run at a time. It rejects rather than queues.
type Gate struct {
	busy     atomic.Bool
	onChange func(busy bool)
}

// NewGate creates a gate; onChange, if set, is called with true when the
// gate closes and with false when it opens again.
func NewGate(onChange func(busy bool)) *Gate {
	return &Gate{onChange: onChange}
}

func (g *Gate) TryEnter() bool {
	if !g.busy.CompareAndSwap(false, true) {
		return false
	}
	if g.onChange != nil {
		g.onChange(true)
	}
	return true
}

// Leave opens the gate. Only the first call after TryEnter has an effect.
func (g *Gate) Leave() {
	if !g.busy.CompareAndSwap(true, false) {
		return
	}
	if g.onChange != nil {
		g.onChange(false)
	}
}

func (g *Gate) Busy() bool {
	return g.busy.Load()
}
