package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
)

type journalRepo struct {
	db dbtx
}

const selectJournal = `
SELECT id, op, organization_id, organization_name, from_partition, to_partition,
       admin_id, step, state, detail, created_at, updated_at
FROM lifecycle_journal`

func (r *journalRepo) CreateJournalEntry(ctx context.Context, e domain.JournalEntry) error {
	detail, err := e.Detail.Marshal()
	if err != nil {
		return fmt.Errorf("marshal journal detail: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO lifecycle_journal (
    id, op, organization_id, organization_name, from_partition, to_partition,
    admin_id, step, state, detail, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Op), e.OrganizationID, e.OrganizationName, e.FromPartition, e.ToPartition,
		e.AdminID, string(e.Step), string(e.State), string(detail), e.CreatedAt.UTC(), e.UpdatedAt.UTC(),
	)
	return mapError(err)
}

func (r *journalRepo) UpdateJournalEntry(ctx context.Context, e domain.JournalEntry) error {
	detail, err := e.Detail.Marshal()
	if err != nil {
		return fmt.Errorf("marshal journal detail: %w", err)
	}

	return affected(r.db.ExecContext(ctx, `
UPDATE lifecycle_journal
SET organization_id = ?, admin_id = ?, to_partition = ?, step = ?, state = ?, detail = ?, updated_at = ?
WHERE id = ?`,
		e.OrganizationID, e.AdminID, e.ToPartition, string(e.Step), string(e.State), string(detail),
		time.Now().UTC(), e.ID,
	))
}

func (r *journalRepo) GetJournalEntry(ctx context.Context, id string) (domain.JournalEntry, error) {
	e, err := scanJournal(r.db.QueryRowContext(ctx, selectJournal+` WHERE id = ?`, id))
	if err != nil {
		return domain.JournalEntry{}, mapError(err)
	}
	return e, nil
}

func (r *journalRepo) ListOpenJournalEntries(ctx context.Context, cutoff time.Time) ([]domain.JournalEntry, error) {
	return r.list(ctx, `
WHERE state IN (?, ?) AND updated_at < ?
ORDER BY created_at, id`,
		string(domain.JournalPending), string(domain.JournalFailed), cutoff.UTC(),
	)
}

func (r *journalRepo) ListOpenJournalEntriesForOrganization(ctx context.Context, orgID string) ([]domain.JournalEntry, error) {
	return r.list(ctx, `
WHERE state IN (?, ?) AND organization_id = ?
ORDER BY created_at, id`,
		string(domain.JournalPending), string(domain.JournalFailed), orgID,
	)
}

func (r *journalRepo) list(ctx context.Context, where string, args ...any) ([]domain.JournalEntry, error) {
	rows, err := r.db.QueryContext(ctx, selectJournal+where, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []domain.JournalEntry
	for rows.Next() {
		e, err := scanJournal(rows)
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, e)
	}
	return out, mapError(rows.Err())
}

func (r *journalRepo) DeleteClosedJournalEntries(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM lifecycle_journal WHERE state NOT IN (?, ?) AND updated_at < ?`,
		string(domain.JournalPending), string(domain.JournalFailed), cutoff.UTC(),
	)
	if err != nil {
		return 0, mapError(err)
	}
	n, err := res.RowsAffected()
	return n, mapError(err)
}

func scanJournal(row rowScanner) (domain.JournalEntry, error) {
	var (
		e      domain.JournalEntry
		op     string
		step   string
		state  string
		detail string
	)
	err := row.Scan(
		&e.ID, &op, &e.OrganizationID, &e.OrganizationName, &e.FromPartition, &e.ToPartition,
		&e.AdminID, &step, &state, &detail, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return domain.JournalEntry{}, err
	}

	e.Op = domain.LifecycleOp(op)
	e.Step = domain.LifecycleStep(step)
	e.State = domain.JournalState(state)
	if err := json.Unmarshal([]byte(detail), &e.Detail); err != nil {
		return domain.JournalEntry{}, fmt.Errorf("decode journal detail %s: %w", e.ID, err)
	}
	return e, nil
}
