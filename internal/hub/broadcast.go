package hub

import (
	"log/slog"

	"github.com/akash925/Dock-Optimizer-Rebuild-sub003/internal/domain"
	"github.com/akash925/Dock-Optimizer-Rebuild-sub003/internal/metrics"
	"github.com/akash925/Dock-Optimizer-Rebuild-sub003/internal/protocol"
)

// ScheduleUpdateEvent is the frame type pushed when an appointment or
// schedule row changes.
const ScheduleUpdateEvent = "schedule_update"

// BroadcastToTenant fans an event out to every connection authenticated for
// the given tenant and returns the number of connections the frame was
// actually handed to. Connections authenticated for other tenants, or not
// authenticated at all, never receive it. The enumeration happens on the hub
// goroutine against a single consistent view of the registry; connections
// registered after the call may or may not see this event.
func (h *Hub) BroadcastToTenant(tenantID int64, eventType string, data map[string]any) int {
	payload, err := protocol.Event(eventType, data, h.clock.Now()).Marshal()
	if err != nil {
		slog.Error("Failed to marshal broadcast frame", "event_type", eventType, "error", err)
		return 0
	}

	metrics.HubBroadcastsTotal.WithLabelValues(eventType).Inc()

	replyCh := make(chan int, 1)
	h.post(broadcastCmd{tenantID: tenantID, payload: payload, replyChannel: replyCh})

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-h.done:
		return 0
	case <-timer.Chan():
		slog.Warn("Broadcast command timed out", "tenant_id", tenantID, "event_type", eventType)
		return 0
	}
}

// BroadcastScheduleUpdate derives the tenant from the event (directly, or
// through the facility relation) and broadcasts a schedule_update frame.
// It never panics and never fails the caller: producers invoke it as a side
// effect of request handling, and incomplete broadcast metadata must not
// break the primary operation. When no tenant can be derived it logs a
// warning and returns 0.
func (h *Hub) BroadcastScheduleUpdate(event domain.ScheduleEvent) int {
	tenantID := event.TenantID
	if tenantID <= 0 && event.Facility != nil {
		tenantID = event.Facility.TenantID
	}
	if tenantID <= 0 {
		slog.Warn("Skipping schedule broadcast: no tenant could be derived", "entity_id", event.ID)
		metrics.HubDerivationFailures.Inc()
		return 0
	}

	data := make(map[string]any, len(event.Payload)+2)
	for k, v := range event.Payload {
		data[k] = v
	}
	data["id"] = event.ID
	data["tenantId"] = tenantID

	return h.BroadcastToTenant(tenantID, ScheduleUpdateEvent, data)
}
