package runtime

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"sync"

	"github.com/samber/lo"
)

// Directory owns every group. Groups are never deleted and keep members
// that have disconnected; delivery skips them.
type Directory struct {
	mu     sync.RWMutex
	groups map[string]*domain.Group
}

func NewDirectory() *Directory {
	return &Directory{groups: make(map[string]*domain.Group)}
}

func (d *Directory) Create(name, creator string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.groups[name]; ok {
		return fmt.Errorf("%w: %s", errors.ErrGroupExists, name)
	}
	d.groups[name] = domain.NewGroup(name, creator)
	return nil
}

func (d *Directory) Exists(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.groups[name]
	return ok
}

// AddMember reports whether member was newly added. Adding an existing
// member is not an error.
func (d *Directory) AddMember(group, member string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.groups[group]
	if !ok {
		return false, fmt.Errorf("%w: %s", errors.ErrGroupNotFound, group)
	}
	return g.Add(member), nil
}

// RemoveMember checks, in order: the group exists, member belongs to it,
// and member is not the requester.
func (d *Directory) RemoveMember(group, member, requester string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.groups[group]
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrGroupNotFound, group)
	}
	if !g.Has(member) {
		return fmt.Errorf("%w: %s in %s", errors.ErrNotAMember, member, group)
	}
	if member == requester {
		return errors.ErrSelfRemoval
	}
	g.Remove(member)
	return nil
}

// Recipients returns the members a message from sender must reach.
func (d *Directory) Recipients(group, sender string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	g, ok := d.groups[group]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrGroupNotFound, group)
	}
	if !g.Has(sender) {
		return nil, fmt.Errorf("%w: %s in %s", errors.ErrSenderNotMember, sender, group)
	}
	return lo.Without(g.Members(), sender), nil
}

func (d *Directory) Members(group string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	g, ok := d.groups[group]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrGroupNotFound, group)
	}
	return g.Members(), nil
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.groups)
}

// Snapshot copies every group and its members.
func (d *Directory) Snapshot() map[string][]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return lo.MapValues(d.groups, func(g *domain.Group, _ string) []string {
		return g.Members()
	})
}
