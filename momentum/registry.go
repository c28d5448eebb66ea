package momentum

import "sync"

// Registry tracks every simulator in a window so that a touch-start anywhere
// cancels all in-flight momentum.
type Registry struct {
	mu   sync.Mutex
	sims map[*Simulator]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sims: make(map[*Simulator]struct{})}
}

// Add registers a simulator.
func (r *Registry) Add(s *Simulator) {
	r.mu.Lock()
	r.sims[s] = struct{}{}
	r.mu.Unlock()
}

// Remove unregisters a simulator.
func (r *Registry) Remove(s *Simulator) {
	r.mu.Lock()
	delete(r.sims, s)
	r.mu.Unlock()
}

// Count returns the number of registered simulators.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sims)
}

// CancelAll stops every coasting simulator and returns how many were
// coasting. It is the window-level touch-start hook.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	sims := make([]*Simulator, 0, len(r.sims))
	for s := range r.sims {
		sims = append(sims, s)
	}
	r.mu.Unlock()

	n := 0
	for _, s := range sims {
		if s.phase == Coasting {
			n++
		}
		s.Cancel()
	}
	return n
}
