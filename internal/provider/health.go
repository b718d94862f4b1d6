package provider

import (
	"math"
	"sort"
	"sync"
	"time"
)

// outcome is one recorded invocation result.
type outcome struct {
	ok      bool
	latency time.Duration
}

// HealthTracker keeps a small rolling window of recent outcomes per
// provider. It is the only mutable state shared between concurrent jobs, so
// all access goes through the mutex.
type HealthTracker struct {
	mu       sync.Mutex
	window   int
	outcomes map[string][]outcome
}

func NewHealthTracker(window int) *HealthTracker {
	if window <= 0 {
		window = 20
	}
	return &HealthTracker{
		window:   window,
		outcomes: make(map[string][]outcome),
	}
}

// Record appends one invocation outcome, evicting the oldest entry once the
// window is full.
func (t *HealthTracker) Record(name string, ok bool, latency time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	recent := append(t.outcomes[name], outcome{ok: ok, latency: latency})
	if len(recent) > t.window {
		recent = recent[len(recent)-t.window:]
	}
	t.outcomes[name] = recent
}

// Rank orders provider ids for the next attempt chain. Providers with zero
// recent successes sort last; among the rest, lower mean success latency
// sorts first. Providers with no history yet rank after proven-healthy ones
// but ahead of failing ones. Ties keep declaration order. The ranking is
// advisory: a caller-pinned provider always attempts first regardless.
func (t *HealthTracker) Rank(declared []string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	type entry struct {
		name     string
		declared int
		score    float64
	}

	entries := make([]entry, 0, len(declared))
	for i, name := range declared {
		entries = append(entries, entry{name: name, declared: i, score: t.scoreLocked(name)})
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].score < entries[b].score
	})

	ranked := make([]string, 0, len(entries))
	for _, e := range entries {
		ranked = append(ranked, e.name)
	}
	return ranked
}

const (
	untriedScore   = float64(math.MaxInt64 / 4)
	unhealthyScore = float64(math.MaxInt64 / 2)
)

// scoreLocked computes the sort key for one provider. Caller holds the mutex.
func (t *HealthTracker) scoreLocked(name string) float64 {
	recent := t.outcomes[name]
	if len(recent) == 0 {
		return untriedScore
	}

	var successes int
	var total time.Duration
	for _, o := range recent {
		if o.ok {
			successes++
			total += o.latency
		}
	}
	if successes == 0 {
		return unhealthyScore
	}
	return float64(total) / float64(successes)
}
