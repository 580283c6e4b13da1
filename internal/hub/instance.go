package hub

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/akash925/Dock-Optimizer-Rebuild-sub003/internal/domain"
)

// Process-wide hub accessor. Constructed explicitly in main via Initialize
// and passed down where possible; Instance exists for event producers deep
// in request handling that cannot take an injected hub.
var (
	instanceMu sync.Mutex
	instance   *Hub
)

// Initialize constructs the process-wide hub on first call and returns it.
// Subsequent calls return the existing instance without creating a second
// hub, regardless of arguments. The instance lives until Shutdown.
func Initialize(identity domain.IdentityStore, clock clockwork.Clock, heartbeatInterval time.Duration, maxConnsPerTenant, sendBufferSize int) *Hub {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		return instance
	}
	instance = New(identity, clock, heartbeatInterval, maxConnsPerTenant, sendBufferSize)
	return instance
}

// Instance returns the process-wide hub, or false before Initialize or
// after Shutdown.
func Instance() (*Hub, bool) {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	return instance, instance != nil
}

// Shutdown stops the process-wide hub and clears the accessor. Safe to call
// repeatedly; only the first call does any work. The hub is never recreated
// implicitly afterwards; a later explicit Initialize starts a fresh one.
func Shutdown() {
	instanceMu.Lock()
	h := instance
	instance = nil
	instanceMu.Unlock()

	if h != nil {
		h.Stop()
	}
}
