package domain

import "sort"

type Set map[string]struct{}

// Group is a named set of display names. The creator is its first member.
// A Group is not safe for concurrent use; the directory owning it serialises access.
type Group struct {
	Name    string
	Creator string
	members Set
}

func NewGroup(name, creator string) *Group {
	return &Group{
		Name:    name,
		Creator: creator,
		members: Set{creator: {}},
	}
}

// Add reports whether member was not already present.
func (g *Group) Add(member string) bool {
	if _, ok := g.members[member]; ok {
		return false
	}
	g.members[member] = struct{}{}
	return true
}

func (g *Group) Remove(member string) bool {
	if _, ok := g.members[member]; !ok {
		return false
	}
	delete(g.members, member)
	return true
}

func (g *Group) Has(member string) bool {
	_, ok := g.members[member]
	return ok
}

func (g *Group) Len() int { return len(g.members) }

// Members returns a sorted copy of the member names.
func (g *Group) Members() []string {
	out := make([]string, 0, len(g.members))
	for m := range g.members {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
