package testfixtures

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces deterministic, strictly increasing UUIDs for tests.
// The first byte carries the namespace and the last eight the counter, so
// identifiers from one generator sort in the order they were issued.
type IDGenerator struct {
	mu        sync.Mutex
	namespace byte
	counter   uint64
}

// NewIDGenerator constructs a generator for the given namespace byte.
func NewIDGenerator(namespace byte) *IDGenerator {
	return &IDGenerator{namespace: namespace}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return g.at(g.counter)
}

// At returns the identifier the generator issues for counter n without
// advancing it.
func (g *IDGenerator) At(n uint64) uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.at(n)
}

func (g *IDGenerator) at(n uint64) uuid.UUID {
	var id uuid.UUID
	id[0] = g.namespace
	// version 4 / RFC 4122 variant bits keep the value well formed
	id[6] = 0x40
	binary.BigEndian.PutUint64(id[8:], n)
	id[8] |= 0x80
	return id
}

// NextFunc exposes Next as a function suitable for dependency injection.
func (g *IDGenerator) NextFunc() func() uuid.UUID {
	if g == nil {
		return uuid.New
	}
	return g.Next
}

// SetCounter overrides the internal counter, enabling deterministic resets.
func (g *IDGenerator) SetCounter(counter uint64) {
	g.mu.Lock()
	g.counter = counter
	g.mu.Unlock()
}
