// Package hub implements the multi-tenant websocket broadcast hub: it tracks
// every live connection and its authentication state, sweeps out unresponsive
// connections on a heartbeat interval, runs the tenant/user auth handshake,
// and fans server-originated events out to the connections authenticated for
// the matching tenant.
//
// All registry state is owned by a single goroutine consuming typed commands
// from a channel; each connection additionally gets a dedicated writer
// goroutine with a bounded queue so one slow client cannot stall a broadcast
// to the rest.
package hub
