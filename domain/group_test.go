package domain

import (
	"chat-relay/errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroup_CreatorIsFirstMember(t *testing.T) {
	req := require.New(t)

	// When a group is created
	g := NewGroup("devs", "alice")

	// Then its creator is the only member
	req.Equal(1, g.Len())
	req.True(g.Has("alice"))
	req.Equal([]string{"alice"}, g.Members())
}

func TestGroup_AddRemove(t *testing.T) {
	req := require.New(t)
	g := NewGroup("devs", "alice")

	req.True(g.Add("bob"))
	req.False(g.Add("bob"))
	req.Equal([]string{"alice", "bob"}, g.Members())

	req.True(g.Remove("bob"))
	req.False(g.Remove("bob"))
	req.False(g.Has("bob"))
}

func TestValidateName(t *testing.T) {
	req := require.New(t)

	req.NoError(ValidateName("alice"))
	req.NoError(ValidateName("Zoë"))
	req.ErrorIs(ValidateName(""), errors.ErrInvalidName)
	req.ErrorIs(ValidateName("alice smith"), errors.ErrInvalidName)
	req.ErrorIs(ValidateName("tab\tname"), errors.ErrInvalidName)
	req.ErrorIs(ValidateName(strings.Repeat("a", MaxNameLength+1)), errors.ErrInvalidName)
}
