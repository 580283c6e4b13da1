// Package protocol defines the wire frames exchanged over the websocket and
// the envelope validation applied to every inbound message.
package protocol
