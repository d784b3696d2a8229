// Package processor implements the Node Processor Registry (C2, spec §4.2):
// one Processor per closed NodeType, registered in a thread-safe Registry
// and invoked by internal/engine.Executor. Grounded on the teacher's
// pkg/executor.Registry, keyed here by domain.NodeType's closed set instead
// of the teacher's open string-keyed plugin registry.
package processor

import (
	"fmt"
	"sync"

	"github.com/flowengine/engine/internal/domain"
	"github.com/flowengine/engine/internal/engine"
)

// Registry is a thread-safe type -> Processor map implementing
// engine.Registry.
type Registry struct {
	mu         sync.RWMutex
	processors map[domain.NodeType]engine.Processor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{processors: make(map[domain.NodeType]engine.Processor)}
}

// Register binds nodeType to p, overwriting any existing binding.
func (r *Registry) Register(nodeType domain.NodeType, p engine.Processor) error {
	if p == nil {
		return fmt.Errorf("processor cannot be nil for node type %s", nodeType)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processors[nodeType] = p
	return nil
}

// Get implements engine.Registry.
func (r *Registry) Get(nodeType domain.NodeType) (engine.Processor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.processors[nodeType]
	return p, ok
}

var _ engine.Registry = (*Registry)(nil)
