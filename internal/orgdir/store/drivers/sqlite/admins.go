package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
)

type adminsRepo struct {
	db dbtx
}

const selectAdmin = `
SELECT id, email, email_key, secret_hash, totp_secret, totp_enabled_at, created_at, updated_at
FROM admins`

func (r *adminsRepo) CreateAdmin(ctx context.Context, a domain.AdminCredential) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO admins (id, email, email_key, secret_hash, totp_secret, totp_enabled_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Email, a.EmailKey, a.SecretHash,
		mapOptionalString(a.TOTPSecret), mapOptionalTime(a.TOTPEnabledAt),
		a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	)
	return mapError(err)
}

func (r *adminsRepo) GetAdminByID(ctx context.Context, id string) (domain.AdminCredential, error) {
	return r.getOne(ctx, selectAdmin+` WHERE id = ?`, id)
}

func (r *adminsRepo) GetAdminByEmailKey(ctx context.Context, emailKey string) (domain.AdminCredential, error) {
	return r.getOne(ctx, selectAdmin+` WHERE email_key = ?`, emailKey)
}

func (r *adminsRepo) UpdateAdminCredential(ctx context.Context, id, email, emailKey, secretHash string) error {
	return affected(r.db.ExecContext(ctx, `
UPDATE admins
SET email = ?, email_key = ?, secret_hash = ?, updated_at = ?
WHERE id = ?`,
		email, emailKey, secretHash, time.Now().UTC(), id,
	))
}

func (r *adminsRepo) SetTOTPSecret(ctx context.Context, id, secret string) error {
	return affected(r.db.ExecContext(ctx, `
UPDATE admins SET totp_secret = ?, totp_enabled_at = NULL, updated_at = ? WHERE id = ?`,
		secret, time.Now().UTC(), id,
	))
}

func (r *adminsRepo) EnableTOTP(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return affected(r.db.ExecContext(ctx, `
UPDATE admins SET totp_enabled_at = ?, updated_at = ? WHERE id = ? AND totp_secret IS NOT NULL`,
		now, now, id,
	))
}

func (r *adminsRepo) DisableTOTP(ctx context.Context, id string) error {
	return affected(r.db.ExecContext(ctx, `
UPDATE admins SET totp_secret = NULL, totp_enabled_at = NULL, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	))
}

func (r *adminsRepo) DeleteAdmin(ctx context.Context, id string) error {
	return affected(r.db.ExecContext(ctx, `DELETE FROM admins WHERE id = ?`, id))
}

func (r *adminsRepo) getOne(ctx context.Context, query string, arg any) (domain.AdminCredential, error) {
	var (
		a         domain.AdminCredential
		secret    sql.NullString
		enabledAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.Email, &a.EmailKey, &a.SecretHash,
		&secret, &enabledAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.AdminCredential{}, mapError(err)
	}
	a.TOTPSecret = mapNullStringPtr(secret)
	a.TOTPEnabledAt = mapNullTimePtr(enabledAt)
	return a, nil
}

func mapNullStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		val := ns.String
		return &val
	}
	return nil
}

func mapOptionalString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}

func mapNullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		val := nt.Time
		return &val
	}
	return nil
}

func mapOptionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
