// Package server wires the HTTP layer: the websocket endpoint feeding the
// hub, plus health and metrics endpoints.
package server
