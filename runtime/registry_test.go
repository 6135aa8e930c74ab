package runtime

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := newFakePeer("alice")

	// Given nobody is connected
	req.Zero(registry.Len())

	// When alice registers
	req.NoError(registry.Register("alice", alice))

	// Then she can be found by name
	peer, err := registry.Lookup("alice")
	req.NoError(err)
	req.Equal(alice, peer)
	req.Equal([]string{"alice"}, registry.Names())

	_, err = registry.Lookup("bob")
	req.ErrorIs(err, errors.ErrNameNotFound)
}

func TestRegistry_NameTaken(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := newFakePeer("alice")
	second := newFakePeer("alice")
	req.NoError(registry.Register("alice", first))

	// When a second client claims the same name
	err := registry.Register("alice", second)

	// Then it is refused and the first owner keeps the name
	req.ErrorIs(err, errors.ErrNameTaken)
	peer, err := registry.Lookup("alice")
	req.NoError(err)
	req.Same(first, peer)

	// And the refused client cannot evict the owner
	req.False(registry.Unregister(second))
	req.Equal(1, registry.Len())
}

func TestRegistry_UnregisterIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := newFakePeer("alice")
	req.NoError(registry.Register("alice", alice))

	req.True(registry.Unregister(alice))
	req.False(registry.Unregister(alice))

	_, err := registry.Lookup("alice")
	req.ErrorIs(err, errors.ErrNameNotFound)
}

func TestRegistry_AllIsASnapshot(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	req.NoError(registry.Register("alice", newFakePeer("alice")))
	req.NoError(registry.Register("bob", newFakePeer("bob")))

	// Given a snapshot taken before more clients join
	all := registry.All()
	req.NoError(registry.Register("carol", newFakePeer("carol")))

	// Then the snapshot is unchanged
	req.Len(all, 2)
	req.Len(registry.All(), 3)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	done := make(chan struct{})

	peers := make([]contract.Peer, 50)
	for i := range peers {
		peers[i] = newFakePeer(string(rune('a'+i%26)) + string(rune('0'+i/26)))
	}
	for _, p := range peers {
		go func(p contract.Peer) {
			defer func() { done <- struct{}{} }()
			_ = registry.Register(p.Name(), p)
			_ = registry.All()
			registry.Unregister(p)
		}(p)
	}
	for range peers {
		<-done
	}
	req.Zero(registry.Len())
}
