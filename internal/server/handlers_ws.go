package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	apperrors "github.com/akash925/Dock-Optimizer-Rebuild-sub003/internal/errors"
	"github.com/akash925/Dock-Optimizer-Rebuild-sub003/internal/metrics"
	"github.com/akash925/Dock-Optimizer-Rebuild-sub003/internal/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Clients connect from tenant subdomains and native apps
	},
}

func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	if err := s.hub.Register(conn); err != nil {
		slog.Error("Failed to register connection", "error", err)
		_ = conn.Close()
		return nil
	}

	ctx := c.Request().Context()

	// Read pump: blocks until the connection closes. Unregister runs exactly
	// once regardless of how the loop exits.
	defer s.hub.Unregister(conn)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.dispatchFrame(ctx, conn, raw)
	}

	return nil
}

// dispatchFrame validates one inbound message and routes it. Malformed input
// yields exactly one error reply and nothing else; the connection stays open.
func (s *Server) dispatchFrame(ctx context.Context, conn *websocket.Conn, raw []byte) {
	frame, err := protocol.Parse(raw)
	if err != nil {
		metrics.HubInvalidFramesTotal.Inc()
		s.hub.SendError(conn, apperrors.AsStructuredError(err).ClientMessage())
		return
	}

	switch frame.Type {
	case protocol.TypeAuth:
		if err := s.hub.Authenticate(ctx, conn, frame); err != nil {
			slog.Debug("Auth handshake failed", "error", err)
		}
	default:
		if !s.hub.IsAuthenticated(conn) {
			s.hub.SendError(conn, "Authentication required")
			return
		}
		// No server-handled frame types beyond auth yet; anything else from
		// an authenticated client is ignored.
		slog.Debug("Ignoring unhandled frame type", "frame_type", frame.Type)
	}
}
