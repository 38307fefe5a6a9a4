package storage

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryGateway is an in-process Gateway for tests and single-node hosts.
// Values are stored JSON-encoded so round-trip behavior matches the Redis
// implementation exactly.
type MemoryGateway struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{data: make(map[string][]byte)}
}

func (g *MemoryGateway) Get(_ context.Context, key string, dest any) (bool, error) {
	g.mu.RLock()
	raw, ok := g.data[key]
	g.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (g *MemoryGateway) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.data[key] = raw
	g.mu.Unlock()
	return nil
}

func (g *MemoryGateway) Remove(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.data, key)
	g.mu.Unlock()
	return nil
}

// Exists reports key presence (for tests).
func (g *MemoryGateway) Exists(key string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.data[key]
	return ok
}
