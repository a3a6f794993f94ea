// Package testutil provides deterministic helpers for tests.
package testutil

import (
	"strconv"
	"sync"
)

// SequenceGenerator returns node IDs "<prefix>-1", "<prefix>-2", ... so
// deserialized trees compare equal across runs.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// NewSequenceGenerator creates a generator. An empty prefix means "node".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "node"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return g.prefix + "-" + strconv.Itoa(g.seq)
}

// Reset restarts the sequence at 1.
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
