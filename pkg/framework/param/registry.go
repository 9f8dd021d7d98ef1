package param

import (
	"sync"
)

// Registry manages the parameter descriptions of a kernel. It is a
// control-plane structure; the render thread never touches it.
type Registry struct {
	params map[uint32]*Parameter
	order  []uint32 // Maintain order for indexed access
	mu     sync.RWMutex
}

// NewRegistry creates a new parameter registry
func NewRegistry() *Registry {
	return &Registry{
		params: make(map[uint32]*Parameter),
		order:  make([]uint32, 0),
	}
}

// Add registers new parameters, skipping duplicate addresses
func (r *Registry) Add(params ...*Parameter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range params {
		if _, exists := r.params[p.Address]; exists {
			continue
		}
		r.params[p.Address] = p
		r.order = append(r.order, p.Address)
	}
}

// Get retrieves a parameter by address, or nil
func (r *Registry) Get(address uint32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.params[address]
}

// GetByIndex retrieves a parameter by registration order
func (r *Registry) GetByIndex(index int) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= len(r.order) {
		return nil
	}

	return r.params[r.order[index]]
}

// Count returns the number of parameters
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// All returns all parameters in registration order
func (r *Registry) All() []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Parameter, len(r.order))
	for i, address := range r.order {
		result[i] = r.params[address]
	}

	return result
}
