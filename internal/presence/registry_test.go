package presence_test

import (
	"fmt"
	"sync"
	"testing"

	"chatrelay/backend/internal/presence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_StartsEmpty(t *testing.T) {
	r := presence.NewRegistry()

	assert.Equal(t, 0, r.Len())
	assert.NotNil(t, r.List())
	assert.Empty(t, r.List())
}

func TestRegistry_SetKeepsAnnounceOrder(t *testing.T) {
	r := presence.NewRegistry()

	require.True(t, r.Set("conn-a", "alice"))
	require.True(t, r.Set("conn-b", "bob"))
	require.True(t, r.Set("conn-c", "carol"))

	assert.Equal(t, []string{"alice", "bob", "carol"}, r.List())
}

func TestRegistry_SetRejectsEmptyIdentifier(t *testing.T) {
	r := presence.NewRegistry()
	r.Set("conn-a", "alice")

	assert.False(t, r.Set("conn-b", ""))
	assert.False(t, r.Set("conn-c", "   "))
	assert.False(t, r.Set("", "nobody"))

	assert.Equal(t, []string{"alice"}, r.List())
}

func TestRegistry_SetOverwritesInPlace(t *testing.T) {
	r := presence.NewRegistry()
	r.Set("conn-a", "alice")
	r.Set("conn-b", "bob")

	require.True(t, r.Set("conn-a", "alice@example.com"))

	assert.Equal(t, []string{"alice@example.com", "bob"}, r.List())
	assert.Equal(t, 2, r.Len())

	identifier, ok := r.Identifier("conn-a")
	assert.True(t, ok)
	assert.Equal(t, "alice@example.com", identifier)
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	r := presence.NewRegistry()
	r.Set("conn-a", "alice")
	r.Set("conn-b", "bob")
	r.Set("conn-c", "carol")

	assert.True(t, r.Remove("conn-b"))
	assert.False(t, r.Remove("conn-b"))
	assert.False(t, r.Remove("never-seen"))

	assert.Equal(t, []string{"alice", "carol"}, r.List())
}

func TestRegistry_SameIdentifierOnTwoConnections(t *testing.T) {
	r := presence.NewRegistry()
	r.Set("tab-1", "alice")
	r.Set("tab-2", "alice")

	assert.Equal(t, []string{"alice", "alice"}, r.List())

	r.Remove("tab-1")
	assert.Equal(t, []string{"alice"}, r.List())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := presence.NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			connID := fmt.Sprintf("conn-%d", i)
			r.Set(connID, fmt.Sprintf("user-%d", i))
			_ = r.List()
			if i%2 == 0 {
				r.Remove(connID)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, r.Len())
	assert.Len(t, r.List(), 25)
}
