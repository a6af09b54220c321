package wsgateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionRegistry_AddRemove(t *testing.T) {
	registry := NewConnectionRegistry()

	conn := &Connection{ID: "conn-1"}
	registry.Add(conn)

	retrieved, exists := registry.Get("conn-1")
	require.True(t, exists)
	assert.Equal(t, "conn-1", retrieved.ID)
	assert.Equal(t, 1, registry.Count())

	assert.True(t, registry.Remove("conn-1"))
	assert.False(t, registry.Remove("conn-1"))

	_, exists = registry.Get("conn-1")
	assert.False(t, exists)
	assert.Equal(t, 0, registry.Count())
}

func TestConnectionRegistry_TryAdd(t *testing.T) {
	registry := NewConnectionRegistry()

	assert.True(t, registry.TryAdd(&Connection{ID: "conn-1"}, 2))
	assert.True(t, registry.TryAdd(&Connection{ID: "conn-2"}, 2))
	assert.False(t, registry.TryAdd(&Connection{ID: "conn-3"}, 2))
	assert.Equal(t, 2, registry.Count())

	// zero limit is unlimited
	assert.True(t, registry.TryAdd(&Connection{ID: "conn-3"}, 0))
}

func TestConnectionRegistry_GetAll(t *testing.T) {
	registry := NewConnectionRegistry()
	registry.Add(&Connection{ID: "conn-1"})
	registry.Add(&Connection{ID: "conn-2"})
	registry.Add(&Connection{ID: "conn-3"})

	ids := make([]string, 0, 3)
	for _, c := range registry.GetAll() {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{"conn-1", "conn-2", "conn-3"}, ids)
}
