package testfixtures

import (
	"fmt"
	"sync"
)

// defaultBaseID keeps generated Telegram ids clear of small hand-written ones.
const defaultBaseID int64 = 100000

// IDGenerator produces deterministic Telegram ids and nicknames for tests.
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	base    int64
	counter int64
}

// NewIDGenerator yields nicknames of the form "<prefix>_<n>". When prefix is
// empty, "volunteer" is used.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "volunteer"
	}
	return &IDGenerator{prefix: prefix, base: defaultBaseID}
}

// Next returns the next Telegram id and its matching nickname.
func (g *IDGenerator) Next() (int64, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return g.base + g.counter, fmt.Sprintf("%s_%d", g.prefix, g.counter)
}

// Reset restarts the sequence.
func (g *IDGenerator) Reset() {
	g.mu.Lock()
	g.counter = 0
	g.mu.Unlock()
}
