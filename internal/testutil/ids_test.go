package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDs_Sequence(t *testing.T) {
	ids := NewSequentialIDs("")
	assert.Equal(t, "run-0001", ids.Generate())
	assert.Equal(t, "run-0002", ids.Generate())
	assert.Equal(t, 2, ids.Issued())

	ids.Reset()
	assert.Equal(t, 0, ids.Issued())
	assert.Equal(t, "run-0001", ids.Generate())
}

func TestSequentialIDs_Concurrent(t *testing.T) {
	ids := NewSequentialIDs("x")

	var wg sync.WaitGroup
	seen := make(chan string, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- ids.Generate()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[string]bool)
	for id := range seen {
		unique[id] = true
	}
	assert.Len(t, unique, 100)
	assert.Equal(t, 100, ids.Issued())
}
