package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
)

type organizationsRepo struct {
	db dbtx
}

const selectOrganization = `
SELECT o.id, o.name, o.name_key, o.partition_id, o.admin_id,
       COALESCE(a.email, ''), o.created_at, o.updated_at
FROM organizations o
LEFT JOIN admins a ON a.id = o.admin_id`

func (r *organizationsRepo) CreateOrganization(ctx context.Context, o domain.Organization) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO organizations (id, name, name_key, partition_id, admin_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.Name, o.NameKey, o.PartitionID, o.AdminID, o.CreatedAt.UTC(), o.UpdatedAt.UTC(),
	)
	return mapError(err)
}

func (r *organizationsRepo) GetOrganizationByID(ctx context.Context, id string) (domain.Organization, error) {
	return r.getOne(ctx, selectOrganization+` WHERE o.id = ?`, id)
}

func (r *organizationsRepo) GetOrganizationByNameKey(ctx context.Context, nameKey string) (domain.Organization, error) {
	return r.getOne(ctx, selectOrganization+` WHERE o.name_key = ?`, nameKey)
}

func (r *organizationsRepo) GetOrganizationByPartition(ctx context.Context, partitionID string) (domain.Organization, error) {
	return r.getOne(ctx, selectOrganization+` WHERE o.partition_id = ?`, partitionID)
}

func (r *organizationsRepo) GetOrganizationByAdmin(ctx context.Context, adminID string) (domain.Organization, error) {
	return r.getOne(ctx, selectOrganization+` WHERE o.admin_id = ?`, adminID)
}

func (r *organizationsRepo) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	rows, err := r.db.QueryContext(ctx, selectOrganization+` ORDER BY o.id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []domain.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, o)
	}
	return out, mapError(rows.Err())
}

func (r *organizationsRepo) RenameOrganization(ctx context.Context, id, name, nameKey, partitionID string) error {
	return affected(r.db.ExecContext(ctx, `
UPDATE organizations
SET name = ?, name_key = ?, partition_id = ?, updated_at = ?
WHERE id = ?`,
		name, nameKey, partitionID, time.Now().UTC(), id,
	))
}

func (r *organizationsRepo) TouchOrganization(ctx context.Context, id string) error {
	return affected(r.db.ExecContext(ctx,
		`UPDATE organizations SET updated_at = ? WHERE id = ?`, time.Now().UTC(), id))
}

func (r *organizationsRepo) DeleteOrganization(ctx context.Context, id string) error {
	return affected(r.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = ?`, id))
}

func (r *organizationsRepo) getOne(ctx context.Context, query string, arg any) (domain.Organization, error) {
	o, err := scanOrganization(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return domain.Organization{}, mapError(err)
	}
	return o, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (domain.Organization, error) {
	var o domain.Organization
	err := row.Scan(
		&o.ID, &o.Name, &o.NameKey, &o.PartitionID, &o.AdminID,
		&o.AdminEmail, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}
