// Package pacing produces the human-like randomized delays inserted
// between UI actions. Every discrete action maps to one pause kind; the
// driver never sleeps outside a Pacer, which lets tests swap in Zero and
// run the full interaction sequence instantly.
package pacing

import (
	"math/rand"
	"sync"
	"time"
)

// Kind weights a pause by the action it follows.
type Kind int

const (
	// Keystroke separates individual typed characters.
	Keystroke Kind = iota
	// Short follows a small interaction such as a single click or field fill.
	Short
	// Action follows a page-level step such as a navigation settling.
	Action
	// Step separates major stages, e.g. moving between communities.
	Step
)

// Pacer sleeps a randomized duration appropriate for the action kind.
type Pacer interface {
	Pause(k Kind)
}

// Bounds is an inclusive uniform delay range.
type Bounds struct {
	Min time.Duration
	Max time.Duration
}

// Human is the production pacer. Each Pause draws uniformly from the
// configured range for its kind.
type Human struct {
	mu     sync.Mutex
	rng    *rand.Rand
	ranges map[Kind]Bounds
}

// DefaultRanges mirrors the cadence the bot has always used: 50-150ms
// between keystrokes, a second or two after small interactions, several
// seconds around page-level steps.
func DefaultRanges() map[Kind]Bounds {
	return map[Kind]Bounds{
		Keystroke: {50 * time.Millisecond, 150 * time.Millisecond},
		Short:     {1 * time.Second, 2 * time.Second},
		Action:    {2 * time.Second, 4 * time.Second},
		Step:      {3 * time.Second, 5 * time.Second},
	}
}

// NewHuman creates a pacer with the given ranges, or DefaultRanges when
// nil, seeded from the provided source.
func NewHuman(rng *rand.Rand, ranges map[Kind]Bounds) *Human {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if ranges == nil {
		ranges = DefaultRanges()
	}
	return &Human{rng: rng, ranges: ranges}
}

// Pause sleeps for a uniform random duration within the kind's bounds.
func (h *Human) Pause(k Kind) {
	time.Sleep(h.span(k))
}

func (h *Human) span(k Kind) time.Duration {
	b, ok := h.ranges[k]
	if !ok || b.Max < b.Min {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if b.Max == b.Min {
		return b.Min
	}
	return b.Min + time.Duration(h.rng.Int63n(int64(b.Max-b.Min)+1))
}

// Zero is a no-delay pacer for tests.
type Zero struct{}

func (Zero) Pause(Kind) {}
