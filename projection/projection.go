// Package projection keeps the latest known status per entity.
package projection

import (
	"sync"

	"controlroom/pkg/api/watchtower"
)

// Projection is a keyed map from entity id to its most recent status event.
// Later events overwrite earlier ones for the same id; no history is kept.
// The Seq stamped onto each applied event orders entries for display only.
type Projection struct {
	mu      sync.RWMutex
	entries map[string]watchtower.StatusEvent
	seq     uint64
}

// New creates an empty projection.
func New() *Projection {
	return &Projection{entries: make(map[string]watchtower.StatusEvent)}
}

// Apply folds an event into the projection, last received wins. Returns the
// stored event with its display sequence assigned.
func (p *Projection) Apply(ev watchtower.StatusEvent) watchtower.StatusEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	ev.Seq = p.seq
	p.entries[ev.EntityID] = ev
	return ev
}

// Get returns the latest event for an entity id.
func (p *Projection) Get(entityID string) (watchtower.StatusEvent, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ev, ok := p.entries[entityID]
	return ev, ok
}

// Snapshot returns a copy of every entry, for table rendering.
func (p *Projection) Snapshot() map[string]watchtower.StatusEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]watchtower.StatusEvent, len(p.entries))
	for id, ev := range p.entries {
		out[id] = ev
	}
	return out
}

// Len returns the number of tracked entities.
func (p *Projection) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// Clear drops every entry. Called on tenant switch so the next tenant
// starts from an empty board.
func (p *Projection) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = make(map[string]watchtower.StatusEvent)
}
