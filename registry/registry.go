// Package registry provides the in-memory agent registry: registration under
// unique ids, lookup, and capability-tag filtering with deterministic
// insertion-order enumeration.
package registry

import (
	"sync"

	"github.com/hupe1980/agentweave/core"
)

// entry is the internal registration record for one agent.
type entry struct {
	agent        core.Agent
	capabilities map[string]struct{}
}

// Registry maps agent ids to agents plus their declared capability tags.
// It performs no I/O; reads are guarded by an RWMutex and Snapshot produces
// a copy-on-write view so a Concurrent pattern's resolution phase never
// observes a torn state during dynamic re-registration.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	order   []string // insertion order for deterministic List
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register inserts an agent under id with the given capability tags. It
// returns a *core.DuplicateIDError if the id is already present; use
// RegisterOverwrite to replace an existing entry.
func (r *Registry) Register(id string, agent core.Agent, capabilities ...string) error {
	return r.register(id, agent, false, capabilities)
}

// RegisterOverwrite inserts or replaces the agent registered under id.
// Replacement keeps the id's original position in the insertion order.
func (r *Registry) RegisterOverwrite(id string, agent core.Agent, capabilities ...string) error {
	return r.register(id, agent, true, capabilities)
}

func (r *Registry) register(id string, agent core.Agent, overwrite bool, capabilities []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.entries[id]
	if exists && !overwrite {
		return &core.DuplicateIDError{ID: id}
	}

	caps := make(map[string]struct{}, len(capabilities))
	for _, c := range capabilities {
		caps[c] = struct{}{}
	}

	r.entries[id] = entry{agent: agent, capabilities: caps}
	if !exists {
		r.order = append(r.order, id)
	}

	return nil
}

// Get returns the agent registered under id or a *core.UnknownAgentError.
func (r *Registry) Get(id string) (core.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, &core.UnknownAgentError{ID: id}
	}

	return e.agent, nil
}

// List returns registered ids in insertion order. When capability filters are
// given, only ids whose capability set contains every filter tag are returned.
func (r *Registry) List(capabilities ...string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if hasAll(r.entries[id].capabilities, capabilities) {
			ids = append(ids, id)
		}
	}

	return ids
}

// Capabilities returns the capability tags declared for id, or nil if the id
// is unknown.
func (r *Registry) Capabilities(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil
	}

	caps := make([]string, 0, len(e.capabilities))
	for c := range e.capabilities {
		caps = append(caps, c)
	}

	return caps
}

// Snapshot resolves the given ids into an id->agent view plus an id->tags
// capability lookup, taken under a single read lock. It fails fast with a
// *core.UnknownAgentError on the first missing id so no partial dispatch can
// occur.
func (r *Registry) Snapshot(ids []string) (map[string]core.Agent, map[string][]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agents := make(map[string]core.Agent, len(ids))
	caps := make(map[string][]string, len(ids))

	for _, id := range ids {
		e, ok := r.entries[id]
		if !ok {
			return nil, nil, &core.UnknownAgentError{ID: id}
		}
		agents[id] = e.agent
		tags := make([]string, 0, len(e.capabilities))
		for c := range e.capabilities {
			tags = append(tags, c)
		}
		caps[id] = tags
	}

	return agents, caps, nil
}

func hasAll(set map[string]struct{}, filters []string) bool {
	for _, f := range filters {
		if _, ok := set[f]; !ok {
			return false
		}
	}
	return true
}
