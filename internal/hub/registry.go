package hub

import (
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection is the hub's record of one live transport session. TenantID is
// only set once the auth handshake succeeds; Alive is cleared each heartbeat
// cycle and set again by a pong.
type Connection struct {
	ID            uuid.UUID
	TenantID      int64
	UserID        *int64
	SessionID     string
	Authenticated bool
	Alive         bool

	writer *clientWriter
}

// connUpdate is a field-level merge applied to a Connection record. Only
// non-nil fields are written, so a liveness update and an identity update
// can never clobber each other.
type connUpdate struct {
	tenantID      *int64
	userID        *int64
	sessionID     *string
	authenticated *bool
	alive         *bool
}

// registry maps transport connections to their records. It is owned by the
// hub goroutine and must never be touched from outside it.
type registry struct {
	conns map[*websocket.Conn]*Connection
}

func newRegistry() *registry {
	return &registry{conns: make(map[*websocket.Conn]*Connection)}
}

// add inserts a connection with default state: alive, unauthenticated.
func (r *registry) add(conn *websocket.Conn, writer *clientWriter) *Connection {
	c := &Connection{
		ID:     uuid.New(),
		Alive:  true,
		writer: writer,
	}
	r.conns[conn] = c
	return c
}

// remove deletes and returns the record, or nil if already gone.
func (r *registry) remove(conn *websocket.Conn) *Connection {
	c, exists := r.conns[conn]
	if !exists {
		return nil
	}
	delete(r.conns, conn)
	return c
}

func (r *registry) get(conn *websocket.Conn) *Connection {
	return r.conns[conn]
}

// update merges the non-nil fields of u into the record. Returns false if
// the connection is no longer registered.
func (r *registry) update(conn *websocket.Conn, u connUpdate) bool {
	c, exists := r.conns[conn]
	if !exists {
		return false
	}
	if u.tenantID != nil {
		c.TenantID = *u.tenantID
	}
	if u.userID != nil {
		c.UserID = u.userID
	}
	if u.sessionID != nil {
		c.SessionID = *u.sessionID
	}
	if u.authenticated != nil {
		c.Authenticated = *u.authenticated
	}
	if u.alive != nil {
		c.Alive = *u.alive
	}
	return true
}

// forEachAuthenticated invokes fn for every connection authenticated for
// exactly the given tenant. This is the sole tenant-isolation enforcement
// point: every broadcast goes through here.
func (r *registry) forEachAuthenticated(tenantID int64, fn func(conn *websocket.Conn, c *Connection)) {
	for conn, c := range r.conns {
		if c.Authenticated && c.TenantID == tenantID {
			fn(conn, c)
		}
	}
}

// countAuthenticated returns the number of authenticated connections for a
// tenant.
func (r *registry) countAuthenticated(tenantID int64) int {
	count := 0
	r.forEachAuthenticated(tenantID, func(*websocket.Conn, *Connection) { count++ })
	return count
}

func (r *registry) len() int {
	return len(r.conns)
}
