package hub

import (
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func boolPtr(v bool) *bool { return &v }

func TestRegistry_AddDefaults(t *testing.T) {
	r := newRegistry()
	conn := &websocket.Conn{}

	c := r.add(conn, nil)

	assert.True(t, c.Alive)
	assert.False(t, c.Authenticated)
	assert.Zero(t, c.TenantID)
	assert.Nil(t, c.UserID)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", c.ID.String())
	assert.Same(t, c, r.get(conn))
	assert.Equal(t, 1, r.len())
}

func TestRegistry_RemoveIdempotent(t *testing.T) {
	r := newRegistry()
	conn := &websocket.Conn{}
	r.add(conn, nil)

	assert.NotNil(t, r.remove(conn))
	assert.Nil(t, r.remove(conn))
	assert.Equal(t, 0, r.len())
}

func TestRegistry_UpdateMergesFields(t *testing.T) {
	r := newRegistry()
	conn := &websocket.Conn{}
	r.add(conn, nil)

	// Identity update leaves liveness untouched
	ok := r.update(conn, connUpdate{
		tenantID:      int64Ptr(5),
		userID:        int64Ptr(42),
		authenticated: boolPtr(true),
	})
	require.True(t, ok)

	c := r.get(conn)
	assert.Equal(t, int64(5), c.TenantID)
	assert.True(t, c.Authenticated)
	assert.True(t, c.Alive)

	// Liveness update leaves identity untouched
	ok = r.update(conn, connUpdate{alive: boolPtr(false)})
	require.True(t, ok)

	c = r.get(conn)
	assert.False(t, c.Alive)
	assert.Equal(t, int64(5), c.TenantID)
	assert.True(t, c.Authenticated)
	require.NotNil(t, c.UserID)
	assert.Equal(t, int64(42), *c.UserID)
}

func TestRegistry_UpdateUnknownConnection(t *testing.T) {
	r := newRegistry()
	assert.False(t, r.update(&websocket.Conn{}, connUpdate{alive: boolPtr(true)}))
}

func TestRegistry_ForEachAuthenticated(t *testing.T) {
	r := newRegistry()

	authT5a := &websocket.Conn{}
	r.add(authT5a, nil)
	r.update(authT5a, connUpdate{tenantID: int64Ptr(5), authenticated: boolPtr(true)})

	authT5b := &websocket.Conn{}
	r.add(authT5b, nil)
	r.update(authT5b, connUpdate{tenantID: int64Ptr(5), authenticated: boolPtr(true)})

	authT6 := &websocket.Conn{}
	r.add(authT6, nil)
	r.update(authT6, connUpdate{tenantID: int64Ptr(6), authenticated: boolPtr(true)})

	// Unauthenticated connection claiming a tenant ID must never match.
	anon := &websocket.Conn{}
	r.add(anon, nil)
	r.update(anon, connUpdate{tenantID: int64Ptr(5)})

	visited := make(map[*websocket.Conn]bool)
	r.forEachAuthenticated(5, func(conn *websocket.Conn, c *Connection) {
		visited[conn] = true
		assert.True(t, c.Authenticated)
		assert.Equal(t, int64(5), c.TenantID)
	})

	assert.Len(t, visited, 2)
	assert.True(t, visited[authT5a])
	assert.True(t, visited[authT5b])
	assert.False(t, visited[authT6])
	assert.False(t, visited[anon])

	assert.Equal(t, 2, r.countAuthenticated(5))
	assert.Equal(t, 1, r.countAuthenticated(6))
	assert.Equal(t, 0, r.countAuthenticated(7))
}
