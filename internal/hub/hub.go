package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/akash925/Dock-Optimizer-Rebuild-sub003/internal/domain"
	apperrors "github.com/akash925/Dock-Optimizer-Rebuild-sub003/internal/errors"
	"github.com/akash925/Dock-Optimizer-Rebuild-sub003/internal/metrics"
	"github.com/akash925/Dock-Optimizer-Rebuild-sub003/internal/protocol"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

// Client-facing handshake failure messages.
const (
	msgInvalidUser   = "Invalid user or tenant mismatch"
	msgInvalidTenant = "Invalid tenant ID"
	msgAuthFailed    = "Authentication failed"
	msgTenantLimit   = "Too many connections for tenant"
)

// --- Command types ---

type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	connection   *websocket.Conn
	errorChannel chan error
}

type unregisterCmd struct {
	baseHubCmd
	connection *websocket.Conn
}

type applyAuthCmd struct {
	baseHubCmd
	connection   *websocket.Conn
	tenantID     int64
	userID       *int64
	sessionID    string
	errorChannel chan error
}

type pongCmd struct {
	baseHubCmd
	connection *websocket.Conn
}

type sendCmd struct {
	baseHubCmd
	connection *websocket.Conn
	payload    []byte
}

type broadcastCmd struct {
	baseHubCmd
	tenantID     int64
	payload      []byte
	replyChannel chan int
}

type queryCmd struct {
	baseHubCmd
	query        func(*registry) int
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub is the multi-tenant broadcast hub. A single goroutine owns the
// connection registry and consumes typed commands from cmdCh; everything
// else talks to it through the public methods.
type Hub struct {
	cmdCh             chan hubCmd
	clock             clockwork.Clock
	registry          *registry
	identity          domain.IdentityStore
	heartbeatInterval time.Duration
	maxConnsPerTenant int
	sendBufferSize    int
	done              chan struct{}
}

// New creates a hub and starts its run loop.
// identity resolves tenant/user claims during the auth handshake.
// heartbeatInterval bounds stale-connection detection at two intervals worst
// case; maxConnsPerTenant caps authenticated connections per tenant.
func New(identity domain.IdentityStore, clock clockwork.Clock, heartbeatInterval time.Duration, maxConnsPerTenant, sendBufferSize int) *Hub {
	h := &Hub{
		cmdCh:             make(chan hubCmd, 256),
		clock:             clock,
		registry:          newRegistry(),
		identity:          identity,
		heartbeatInterval: heartbeatInterval,
		maxConnsPerTenant: maxConnsPerTenant,
		sendBufferSize:    sendBufferSize,
		done:              make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Hub panic recovered", "panic", r)
			h.closeAllClients("hub failure")
		}
	}()

	ticker := h.clock.NewTicker(h.heartbeatInterval)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case cmd := <-h.cmdCh:
			switch c := cmd.(type) {
			case registerCmd:
				h.handleRegister(c)
			case unregisterCmd:
				h.handleUnregister(c.connection)
			case applyAuthCmd:
				h.handleApplyAuth(c)
			case pongCmd:
				h.handlePong(c.connection)
			case sendCmd:
				h.handleSend(c)
			case broadcastCmd:
				c.replyChannel <- h.handleBroadcast(c)
			case queryCmd:
				c.replyChannel <- c.query(h.registry)
			case stopCmd:
				h.handleStop()
				return
			default:
				slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
			}
		case <-ticker.Chan():
			h.handleHeartbeat()
		}
	}
}

// --- Public API ---

// Register adds a freshly upgraded connection in unauthenticated state and
// pushes the "connected" greeting. The pong handler must be installed before
// the caller starts reading from the connection, so it happens here.
func (h *Hub) Register(conn *websocket.Conn) error {
	conn.SetPongHandler(func(string) error {
		h.post(pongCmd{connection: conn})
		return nil
	})

	errCh := make(chan error, 1)
	h.post(registerCmd{connection: conn, errorChannel: errCh})

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-h.done:
		return fmt.Errorf("hub stopped")
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a connection and closes its writer. Safe to call for
// connections that were already evicted or never registered.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.post(unregisterCmd{connection: conn})
}

// Authenticate runs the auth handshake for one inbound "auth" frame. It
// resolves the claimed identity against the store, then applies the result
// to the registry. All outcomes are reported to the client as frames; the
// returned error is for the caller's logging only. The connection stays open
// on failure, so the client may retry.
//
// The token field is carried by clients but not verified here; identity is
// checked by row existence only.
func (h *Hub) Authenticate(ctx context.Context, conn *websocket.Conn, frame *protocol.Frame) error {
	req, err := frame.DecodeAuth()
	if err != nil {
		structured := apperrors.AsStructuredError(err)
		metrics.HubAuthFailuresTotal.WithLabelValues("invalid_payload").Inc()
		h.sendError(conn, structured.ClientMessage())
		return structured
	}

	if req.UserID != nil {
		user, lookupErr := h.identity.GetUserByID(ctx, *req.UserID)
		switch {
		case errors.Is(lookupErr, domain.ErrUserNotFound):
			return h.failAuth(conn, "user_not_found", msgInvalidUser)
		case lookupErr != nil:
			slog.Error("Identity lookup failed", "user_id", *req.UserID, "error", lookupErr)
			return h.failAuth(conn, "store_error", msgAuthFailed)
		case user.TenantID != req.TenantID:
			return h.failAuth(conn, "tenant_mismatch", msgInvalidUser)
		}
	} else {
		_, lookupErr := h.identity.GetTenantByID(ctx, req.TenantID)
		switch {
		case errors.Is(lookupErr, domain.ErrTenantNotFound):
			return h.failAuth(conn, "tenant_not_found", msgInvalidTenant)
		case lookupErr != nil:
			slog.Error("Identity lookup failed", "tenant_id", req.TenantID, "error", lookupErr)
			return h.failAuth(conn, "store_error", msgAuthFailed)
		}
	}

	errCh := make(chan error, 1)
	h.post(applyAuthCmd{
		connection:   conn,
		tenantID:     req.TenantID,
		userID:       req.UserID,
		sessionID:    req.SessionID,
		errorChannel: errCh,
	})

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case applyErr := <-errCh:
		if applyErr != nil {
			metrics.HubAuthFailuresTotal.WithLabelValues("tenant_limit").Inc()
			h.sendError(conn, applyErr.Error())
			return apperrors.AuthError(applyErr.Error())
		}
		return nil
	case <-h.done:
		return fmt.Errorf("hub stopped")
	case <-timer.Chan():
		return fmt.Errorf("auth apply command timed out after %v", commandTimeout)
	}
}

// IsAuthenticated reports whether the connection completed the handshake.
func (h *Hub) IsAuthenticated(conn *websocket.Conn) bool {
	return h.query(func(r *registry) int {
		if c := r.get(conn); c != nil && c.Authenticated {
			return 1
		}
		return 0
	}) == 1
}

// SendError pushes an error frame to one connection.
func (h *Hub) SendError(conn *websocket.Conn, message string) {
	h.sendError(conn, message)
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	return h.query(func(r *registry) int { return r.len() })
}

// TenantClientCount returns the number of authenticated connections for a
// tenant.
func (h *Hub) TenantClientCount(tenantID int64) int {
	return h.query(func(r *registry) int { return r.countAuthenticated(tenantID) })
}

// Stop shuts down the hub, closing all client connections. Idempotent:
// every call blocks until the run goroutine has exited or a timeout passes.
func (h *Hub) Stop() {
	select {
	case h.cmdCh <- stopCmd{}:
	case <-h.done:
		return
	}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
	case <-timer.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", stopTimeout)
	}
}

// post delivers a command to the run loop, becoming a no-op once the hub has
// stopped so late callers never block on a dead channel.
func (h *Hub) post(cmd hubCmd) {
	select {
	case h.cmdCh <- cmd:
	case <-h.done:
	}
}

func (h *Hub) sendError(conn *websocket.Conn, message string) {
	payload, err := protocol.ErrorFrame(message, h.clock.Now()).Marshal()
	if err != nil {
		slog.Error("Failed to marshal error frame", "error", err)
		return
	}
	h.post(sendCmd{connection: conn, payload: payload})
}

func (h *Hub) failAuth(conn *websocket.Conn, reason, message string) error {
	metrics.HubAuthFailuresTotal.WithLabelValues(reason).Inc()
	h.sendError(conn, message)
	return apperrors.AuthError(message)
}

func (h *Hub) query(fn func(*registry) int) int {
	replyCh := make(chan int, 1)
	h.post(queryCmd{query: fn, replyChannel: replyCh})

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case result := <-replyCh:
		return result
	case <-h.done:
		return 0
	case <-timer.Chan():
		slog.Warn("Hub query timed out", "timeout", commandTimeout)
		return 0
	}
}

// --- Command handlers (hub goroutine only) ---

func (h *Hub) handleRegister(c registerCmd) {
	writer := newClientWriter(c.connection, h.sendBufferSize)
	record := h.registry.add(c.connection, writer)

	payload, err := protocol.Connected(h.clock.Now()).Marshal()
	if err == nil {
		writer.enqueue(websocket.TextMessage, payload)
	}

	metrics.HubConnectedClients.Set(float64(h.registry.len()))
	slog.Debug("Connection registered", "conn_id", record.ID.String(), "total_clients", h.registry.len())
	c.errorChannel <- nil
}

func (h *Hub) handleUnregister(conn *websocket.Conn) {
	record := h.registry.remove(conn)
	if record == nil {
		return
	}

	record.writer.stop()

	metrics.HubConnectedClients.Set(float64(h.registry.len()))
	if record.Authenticated {
		metrics.HubAuthenticatedClients.Dec()
	}
	slog.Debug("Connection unregistered",
		"conn_id", record.ID.String(),
		"tenant_id", record.TenantID,
		"remaining_clients", h.registry.len(),
	)
}

func (h *Hub) handleApplyAuth(c applyAuthCmd) {
	record := h.registry.get(c.connection)
	if record == nil {
		c.errorChannel <- fmt.Errorf("connection closed during handshake")
		return
	}

	// A re-auth for the same tenant does not consume an extra slot.
	if !(record.Authenticated && record.TenantID == c.tenantID) &&
		h.registry.countAuthenticated(c.tenantID) >= h.maxConnsPerTenant {
		slog.Warn("Rejecting auth: tenant connection limit reached",
			"tenant_id", c.tenantID, "limit", h.maxConnsPerTenant)
		c.errorChannel <- errors.New(msgTenantLimit)
		return
	}

	wasAuthenticated := record.Authenticated
	authenticated := true
	h.registry.update(c.connection, connUpdate{
		tenantID:      &c.tenantID,
		userID:        c.userID,
		sessionID:     &c.sessionID,
		authenticated: &authenticated,
	})

	if !wasAuthenticated {
		metrics.HubAuthenticatedClients.Inc()
	}

	payload, err := protocol.AuthSuccess(c.tenantID, c.userID, h.clock.Now()).Marshal()
	if err == nil {
		record.writer.enqueue(websocket.TextMessage, payload)
	}

	slog.Info("Connection authenticated",
		"conn_id", record.ID.String(),
		"tenant_id", c.tenantID,
		"has_user", c.userID != nil,
	)
	c.errorChannel <- nil
}

func (h *Hub) handlePong(conn *websocket.Conn) {
	alive := true
	h.registry.update(conn, connUpdate{alive: &alive})
}

func (h *Hub) handleSend(c sendCmd) {
	record := h.registry.get(c.connection)
	if record == nil {
		return
	}
	if !record.writer.enqueue(websocket.TextMessage, c.payload) {
		slog.Debug("Dropped direct send: writer unavailable", "conn_id", record.ID.String())
	}
}

func (h *Hub) handleBroadcast(c broadcastCmd) int {
	count := 0
	var slow []*websocket.Conn

	h.registry.forEachAuthenticated(c.tenantID, func(conn *websocket.Conn, record *Connection) {
		if record.writer.isClosed() {
			// Mid-close: the read pump will unregister it shortly.
			return
		}
		if record.writer.enqueue(websocket.TextMessage, c.payload) {
			count++
			return
		}
		slow = append(slow, conn)
	})

	for _, conn := range slow {
		slog.Warn("Disconnecting slow client", "tenant_id", c.tenantID)
		metrics.HubSlowClientsEvicted.Inc()
		h.handleUnregister(conn)
	}

	metrics.HubBroadcastDeliveries.Add(float64(count))
	return count
}

// handleHeartbeat runs the liveness sweep: connections that never answered
// the previous cycle's ping are evicted, then every survivor is marked dead
// and pinged again. A connection therefore has a full interval to answer,
// and detection takes at most two intervals. That imprecision is accepted
// in exchange for a single sweep loop.
func (h *Hub) handleHeartbeat() {
	var dead []*websocket.Conn
	for conn, record := range h.registry.conns {
		if !record.Alive {
			dead = append(dead, conn)
		}
	}
	for _, conn := range dead {
		record := h.registry.get(conn)
		slog.Warn("Evicting unresponsive connection",
			"conn_id", record.ID.String(), "tenant_id", record.TenantID)
		metrics.HubHeartbeatEvictions.Inc()
		h.handleUnregister(conn)
	}

	var unpingable []*websocket.Conn
	for conn, record := range h.registry.conns {
		record.Alive = false
		if !record.writer.enqueue(websocket.PingMessage, nil) {
			unpingable = append(unpingable, conn)
		}
	}
	for _, conn := range unpingable {
		// Could not even queue the ping; no point waiting another interval.
		slog.Warn("Evicting connection with stalled writer")
		metrics.HubHeartbeatEvictions.Inc()
		h.handleUnregister(conn)
	}
}

func (h *Hub) handleStop() {
	total := h.registry.len()
	slog.Info("Hub shutting down", "clients", total)
	h.closeAllClients("Server shutting down")
	slog.Info("Hub shutdown complete", "disconnected_clients", total)
}

func (h *Hub) closeAllClients(reason string) {
	for conn, record := range h.registry.conns {
		record.writer.stopGraceful(reason)
		delete(h.registry.conns, conn)
	}
	metrics.HubConnectedClients.Set(0)
	metrics.HubAuthenticatedClients.Set(0)
}
