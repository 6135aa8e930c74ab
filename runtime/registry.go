package runtime

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Registry maps display names to connected peers. Names are unique.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.Peer
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]contract.Peer)}
}

// Register claims name for peer, or fails with ErrNameTaken.
func (r *Registry) Register(name string, peer contract.Peer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[name]; ok {
		return fmt.Errorf("%w: %s", errors.ErrNameTaken, name)
	}
	r.sessions[name] = peer
	return nil
}

func (r *Registry) Lookup(name string) (contract.Peer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	peer, ok := r.sessions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrNameNotFound, name)
	}
	return peer, nil
}

// Unregister removes peer only if it still owns its name. It reports
// whether an entry was removed, so repeated calls are harmless.
func (r *Registry) Unregister(peer contract.Peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.sessions[peer.Name()]
	if !ok || current != peer {
		return false
	}
	delete(r.sessions, peer.Name())
	return true
}

// All returns a snapshot; later registrations do not affect it.
func (r *Registry) All() []contract.Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.sessions)
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	names := lo.Keys(r.sessions)
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
