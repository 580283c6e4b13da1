package protocol

import (
	"encoding/json"
	"time"

	apperrors "github.com/akash925/Dock-Optimizer-Rebuild-sub003/internal/errors"
)

// Frame type names on the wire.
const (
	TypeConnected   = "connected"
	TypeAuth        = "auth"
	TypeAuthSuccess = "auth_success"
	TypeError       = "error"
)

// Frame is one parsed inbound message. Data is left undecoded for frame
// types the hub does not handle itself; per-type handlers decode it.
type Frame struct {
	Type string
	Data json.RawMessage

	raw []byte
}

// AuthRequest is the payload of an "auth" frame. Identity fields sit at the
// top level of the envelope, next to "type".
type AuthRequest struct {
	TenantID  int64  `json:"tenantId"`
	UserID    *int64 `json:"userId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Token     string `json:"token,omitempty"`
}

// Parse validates the generic envelope shape {type: string, data: any}.
// Anything unparseable, or parseable but not an object with a string "type",
// is a protocol error; the caller replies with an error frame and moves on.
func Parse(raw []byte) (*Frame, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, apperrors.ProtocolError("Invalid message format")
	}

	typeRaw, ok := fields["type"]
	if !ok {
		return nil, apperrors.ProtocolError("Invalid message format")
	}

	var frameType string
	if err := json.Unmarshal(typeRaw, &frameType); err != nil || frameType == "" {
		return nil, apperrors.ProtocolError("Invalid message format")
	}

	return &Frame{
		Type: frameType,
		Data: fields["data"],
		raw:  raw,
	}, nil
}

// DecodeAuth decodes and structurally validates the auth payload.
// tenantId must be a positive integer; userId, when present, must be too.
func (f *Frame) DecodeAuth() (*AuthRequest, error) {
	var req AuthRequest
	if err := json.Unmarshal(f.raw, &req); err != nil {
		return nil, apperrors.ProtocolError("Invalid authentication data")
	}
	if req.TenantID <= 0 {
		return nil, apperrors.ProtocolError("Invalid authentication data")
	}
	if req.UserID != nil && *req.UserID <= 0 {
		return nil, apperrors.ProtocolError("Invalid authentication data")
	}
	return &req, nil
}

// Outbound is one server-pushed message. Every outbound frame carries an
// RFC3339 timestamp inside data for client-side ordering and debugging.
type Outbound struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Marshal serializes the frame for the wire.
func (o Outbound) Marshal() ([]byte, error) {
	return json.Marshal(o)
}

// Connected is the unauthenticated greeting pushed when a connection opens.
func Connected(now time.Time) Outbound {
	return Outbound{
		Type: TypeConnected,
		Data: map[string]any{
			"message":      "Connected. Authenticate to receive schedule updates.",
			"requiresAuth": true,
			"timestamp":    timestamp(now),
		},
	}
}

// AuthSuccess acknowledges a successful handshake with the resolved identity.
func AuthSuccess(tenantID int64, userID *int64, now time.Time) Outbound {
	data := map[string]any{
		"message":   "Authentication successful",
		"tenantId":  tenantID,
		"timestamp": timestamp(now),
	}
	if userID != nil {
		data["userId"] = *userID
	}
	return Outbound{Type: TypeAuthSuccess, Data: data}
}

// ErrorFrame reports a protocol, auth, or authorization failure to the client.
func ErrorFrame(message string, now time.Time) Outbound {
	return Outbound{
		Type: TypeError,
		Data: map[string]any{
			"message":   message,
			"timestamp": timestamp(now),
		},
	}
}

// Event builds a broadcast frame, merging the timestamp into a copy of the
// payload so callers never see their map mutated.
func Event(eventType string, payload map[string]any, now time.Time) Outbound {
	data := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		data[k] = v
	}
	data["timestamp"] = timestamp(now)
	return Outbound{Type: eventType, Data: data}
}

func timestamp(now time.Time) string {
	return now.UTC().Format(time.RFC3339)
}
