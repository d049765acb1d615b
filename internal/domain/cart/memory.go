package cart

import (
	"context"
	"encoding/json"
	"sync"
)

var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-process Repository used by tests and single-node
// development setups. Carts are stored as deep copies so callers cannot alias
// repository state.
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

// NewMemoryRepository returns an empty in-memory cart repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: make(map[string][]byte)}
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*Cart, error) {
	r.mu.RLock()
	raw, ok := r.carts[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *MemoryRepository) Save(_ context.Context, c *Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.carts[c.ID] = raw
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.carts, id)
	r.mu.Unlock()
	return nil
}
