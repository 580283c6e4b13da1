package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akash925/Dock-Optimizer-Rebuild-sub003/internal/domain"
	"github.com/akash925/Dock-Optimizer-Rebuild-sub003/internal/metrics"
)

// userColumns must match the Scan order in scanUser.
const userColumns = `id, tenant_id, email, role, created_at, updated_at`

// tenantColumns must match the Scan order in scanTenant.
const tenantColumns = `id, name, subdomain, status, created_at, updated_at`

// IdentityRepo implements domain.IdentityStore backed by PostgreSQL.
type IdentityRepo struct {
	pool *pgxpool.Pool
}

// NewIdentityRepo creates an IdentityRepo from the shared connection pool.
func NewIdentityRepo(pool *pgxpool.Pool) *IdentityRepo {
	return &IdentityRepo{pool: pool}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID, &user.TenantID, &user.Email, &user.Role,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func scanTenant(row pgx.Row) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := row.Scan(
		&tenant.ID, &tenant.Name, &tenant.Subdomain, &tenant.Status,
		&tenant.CreatedAt, &tenant.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *IdentityRepo) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	timer := metrics.NewLookupTimer("user_by_id")
	defer timer.ObserveDuration()

	user, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

func (r *IdentityRepo) GetTenantByID(ctx context.Context, id int64) (*domain.Tenant, error) {
	timer := metrics.NewLookupTimer("tenant_by_id")
	defer timer.ObserveDuration()

	tenant, err := scanTenant(r.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant %d: %w", id, err)
	}
	return tenant, nil
}
