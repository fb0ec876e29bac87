package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/naming"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/store"
)

// errBadIdentifier guards every statement that splices a table name.
var errBadIdentifier = errors.New("sqlite: invalid partition identifier")

type partitionsRepo struct {
	db dbtx
}

// ident validates id against the partition grammar and returns it quoted.
// The grammar only admits [a-z0-9_], so quoting cannot be escaped.
func ident(id string) (string, error) {
	if naming.Valid(id) {
		return `"` + id + `"`, nil
	}
	if _, ok := naming.IsStaging(id); ok {
		return `"` + id + `"`, nil
	}
	return "", fmt.Errorf("%w: %q", errBadIdentifier, id)
}

func (r *partitionsRepo) PartitionExists(ctx context.Context, id string) (bool, error) {
	if _, err := ident(id); err != nil {
		return false, err
	}

	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, id,
	).Scan(&n)
	if err != nil {
		return false, mapError(err)
	}
	return n > 0, nil
}

func (r *partitionsRepo) CreatePartition(ctx context.Context, id string) error {
	q, err := ident(id)
	if err != nil {
		return err
	}

	exists, err := r.PartitionExists(ctx, id)
	if err != nil {
		return err
	}
	if exists {
		return store.ErrAlreadyExists
	}

	_, err = r.db.ExecContext(ctx, `
CREATE TABLE `+q+` (
    doc_id     TEXT PRIMARY KEY,
    body       BLOB NOT NULL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
) WITHOUT ROWID`)
	return mapError(err)
}

func (r *partitionsRepo) RenamePartition(ctx context.Context, from, to string) error {
	qf, err := ident(from)
	if err != nil {
		return err
	}
	qt, err := ident(to)
	if err != nil {
		return err
	}

	exists, err := r.PartitionExists(ctx, from)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}

	exists, err = r.PartitionExists(ctx, to)
	if err != nil {
		return err
	}
	if exists {
		return store.ErrAlreadyExists
	}

	_, err = r.db.ExecContext(ctx, `ALTER TABLE `+qf+` RENAME TO `+qt)
	return mapError(err)
}

func (r *partitionsRepo) CopyPartition(ctx context.Context, from, to string) (int, error) {
	qf, err := ident(from)
	if err != nil {
		return 0, err
	}
	qt, err := ident(to)
	if err != nil {
		return 0, err
	}

	if err := r.CreatePartition(ctx, to); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO `+qt+` (doc_id, body, created_at, updated_at)
SELECT doc_id, body, created_at, updated_at FROM `+qf)
	if err != nil {
		return 0, mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapError(err)
	}
	return int(n), nil
}

func (r *partitionsRepo) DropPartition(ctx context.Context, id string) error {
	q, err := ident(id)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `DROP TABLE IF EXISTS `+q)
	return mapError(err)
}

func (r *partitionsRepo) ListPartitions(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT name FROM sqlite_master
WHERE type = 'table' AND name LIKE 'org\_%' ESCAPE '\'
ORDER BY name`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, mapError(err)
		}
		if _, err := ident(name); err == nil {
			out = append(out, name)
		}
	}
	return out, mapError(rows.Err())
}

func (r *partitionsRepo) CountDocuments(ctx context.Context, id string) (int, error) {
	q, err := ident(id)
	if err != nil {
		return 0, err
	}

	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+q).Scan(&n); err != nil {
		return 0, r.missingPartition(ctx, id, err)
	}
	return n, nil
}

func (r *partitionsRepo) PutDocument(ctx context.Context, partitionID string, doc domain.Document) (domain.Document, error) {
	q, err := ident(partitionID)
	if err != nil {
		return domain.Document{}, err
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
INSERT INTO `+q+` (doc_id, body, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (doc_id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		doc.ID, []byte(doc.Body), now, now,
	)
	if err != nil {
		return domain.Document{}, r.missingPartition(ctx, partitionID, err)
	}
	return r.GetDocument(ctx, partitionID, doc.ID)
}

func (r *partitionsRepo) GetDocument(ctx context.Context, partitionID, docID string) (domain.Document, error) {
	q, err := ident(partitionID)
	if err != nil {
		return domain.Document{}, err
	}

	var (
		d    domain.Document
		body []byte
	)
	err = r.db.QueryRowContext(ctx,
		`SELECT doc_id, body, created_at, updated_at FROM `+q+` WHERE doc_id = ?`, docID,
	).Scan(&d.ID, &body, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return domain.Document{}, r.missingPartition(ctx, partitionID, err)
	}
	d.Body = body
	return d, nil
}

func (r *partitionsRepo) ListDocuments(ctx context.Context, partitionID string) ([]domain.Document, error) {
	q, err := ident(partitionID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT doc_id, body, created_at, updated_at FROM `+q+` ORDER BY doc_id`)
	if err != nil {
		return nil, r.missingPartition(ctx, partitionID, err)
	}
	defer rows.Close()

	var out []domain.Document
	for rows.Next() {
		var (
			d    domain.Document
			body []byte
		)
		if err := rows.Scan(&d.ID, &body, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, mapError(err)
		}
		d.Body = body
		out = append(out, d)
	}
	return out, mapError(rows.Err())
}

func (r *partitionsRepo) DeleteDocument(ctx context.Context, partitionID, docID string) error {
	q, err := ident(partitionID)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM `+q+` WHERE doc_id = ?`, docID)
	if err != nil {
		return r.missingPartition(ctx, partitionID, err)
	}
	return affected(res, nil)
}

// missingPartition distinguishes "no such table" from other failures so a
// partition dropped or renamed under a document request reports
// domain.ErrPartitionNotFound rather than a raw SQL error.
func (r *partitionsRepo) missingPartition(ctx context.Context, id string, err error) error {
	mapped := mapError(err)
	if errors.Is(mapped, store.ErrNotFound) {
		return mapped
	}
	if exists, xerr := r.PartitionExists(ctx, id); xerr == nil && !exists {
		return fmt.Errorf("%w: %s", domain.ErrPartitionNotFound, id)
	}
	return mapped
}
