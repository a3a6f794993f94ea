package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator("r")
	assert.Equal(t, "r-1", gen.Generate())
	assert.Equal(t, "r-2", gen.Generate())

	gen.Reset()
	assert.Equal(t, "r-1", gen.Generate())
}

func TestSequenceGenerator_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "node-1", NewSequenceGenerator("").Generate())
}

func TestSequenceGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequenceGenerator("t")

	var mu sync.Mutex
	seen := map[string]bool{}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := gen.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1000, "every ID must be unique")
}
