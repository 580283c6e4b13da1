// Package database provides the PostgreSQL connection pool and the identity
// store repository consulted during the websocket auth handshake.
package database
