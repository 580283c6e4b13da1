package domain

import (
	"context"
	"time"
)

// --- Model types ---

type Tenant struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Subdomain string    `db:"subdomain"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type User struct {
	ID        int64     `db:"id"`
	TenantID  int64     `db:"tenant_id"`
	Email     string    `db:"email"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type Facility struct {
	ID       int64  `json:"id"`
	TenantID int64  `json:"tenantId"`
	Name     string `json:"name"`
}

// ScheduleEvent carries the broadcast metadata of a changed appointment or
// schedule row. TenantID may be zero when the producing code only has the
// facility relation loaded; the broadcast router derives the tenant from
// either field.
type ScheduleEvent struct {
	ID       int64          `json:"id"`
	TenantID int64          `json:"tenantId,omitempty"`
	Facility *Facility      `json:"facility,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// --- Interfaces ---

// IdentityStore resolves the tenant/user identities claimed during the
// websocket auth handshake. Backed by PostgreSQL in production, by an
// in-memory fake in tests.
type IdentityStore interface {
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetTenantByID(ctx context.Context, id int64) (*Tenant, error)
}
