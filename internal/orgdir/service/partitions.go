package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/naming"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/store"
)

// RenameStrategy selects how a partition moves to a new id.
type RenameStrategy string

const (
	// RenameAtomic renames the partition table in place in one transaction.
	RenameAtomic RenameStrategy = "atomic"
	// RenameCopy copies into a staging partition, verifies it, then swaps.
	RenameCopy RenameStrategy = "copy"
)

func ParseRenameStrategy(s string) (RenameStrategy, error) {
	switch RenameStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", RenameAtomic:
		return RenameAtomic, nil
	case RenameCopy:
		return RenameCopy, nil
	default:
		return "", fmt.Errorf("unknown partition rename strategy %q", s)
	}
}

// PartitionManager provisions, renames and destroys organization partitions
// and reads and writes the documents inside them. Every method is safe to
// repeat after a partial failure.
type PartitionManager struct {
	Store    store.Store
	Strategy RenameStrategy
}

func (m *PartitionManager) Provision(ctx context.Context, id string) error {
	if !naming.Valid(id) {
		return fmt.Errorf("%w: %q is not a partition id", domain.ErrInvalidName, id)
	}
	err := m.Store.Partitions().CreatePartition(ctx, id)
	if errors.Is(err, store.ErrAlreadyExists) {
		return fmt.Errorf("%w: %s", domain.ErrPartitionExists, id)
	}
	return err
}

func (m *PartitionManager) Exists(ctx context.Context, id string) (bool, error) {
	return m.Store.Partitions().PartitionExists(ctx, id)
}

// Rename moves oldID to newID with the configured strategy. When oldID is
// gone and newID exists the rename already happened and Rename succeeds.
func (m *PartitionManager) Rename(ctx context.Context, oldID, newID string) error {
	if !naming.Valid(oldID) || !naming.Valid(newID) {
		return fmt.Errorf("%w: cannot rename %q to %q", domain.ErrInvalidName, oldID, newID)
	}

	oldExists, err := m.Exists(ctx, oldID)
	if err != nil {
		return err
	}
	if oldID == newID {
		if !oldExists {
			return fmt.Errorf("%w: %s", domain.ErrPartitionNotFound, oldID)
		}
		return nil
	}

	newExists, err := m.Exists(ctx, newID)
	if err != nil {
		return err
	}
	switch {
	case !oldExists && newExists:
		return nil
	case !oldExists:
		return fmt.Errorf("%w: %s", domain.ErrPartitionNotFound, oldID)
	case newExists:
		return fmt.Errorf("%w: %s", domain.ErrPartitionExists, newID)
	}

	if m.Strategy == RenameCopy {
		return m.renameByCopy(ctx, oldID, newID)
	}
	return m.renameInPlace(ctx, oldID, newID)
}

func (m *PartitionManager) renameInPlace(ctx context.Context, oldID, newID string) error {
	return mapPartitionError(m.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Partitions().RenamePartition(ctx, oldID, newID)
	}), oldID, newID)
}

// renameByCopy never exposes newID half populated: documents land in a
// staging partition first, and the staging rename and old drop commit
// together. Any failure before that leaves oldID untouched.
func (m *PartitionManager) renameByCopy(ctx context.Context, oldID, newID string) (err error) {
	staging := naming.StagingID(newID)
	p := m.Store.Partitions()

	// An earlier attempt may have left a staging copy behind.
	if err := p.DropPartition(ctx, staging); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = m.Store.Partitions().DropPartition(context.WithoutCancel(ctx), staging)
		}
	}()

	copied, err := p.CopyPartition(ctx, oldID, staging)
	if err != nil {
		return fmt.Errorf("copy partition %s: %w", oldID, err)
	}

	return mapPartitionError(m.Store.WithTx(ctx, func(tx store.Tx) error {
		want, err := tx.Partitions().CountDocuments(ctx, oldID)
		if err != nil {
			return err
		}
		got, err := tx.Partitions().CountDocuments(ctx, staging)
		if err != nil {
			return err
		}
		if got != want || copied != want {
			return fmt.Errorf("%w: staging copy of %s holds %d of %d documents",
				domain.ErrStorageUnavailable, oldID, got, want)
		}

		if err := tx.Partitions().RenamePartition(ctx, staging, newID); err != nil {
			return err
		}
		return tx.Partitions().DropPartition(ctx, oldID)
	}), oldID, newID)
}

// Destroy drops a partition. Destroying a missing partition succeeds.
func (m *PartitionManager) Destroy(ctx context.Context, id string) error {
	return m.Store.Partitions().DropPartition(ctx, id)
}

// List returns every partition and staging partition in storage.
func (m *PartitionManager) List(ctx context.Context) ([]string, error) {
	return m.Store.Partitions().ListPartitions(ctx)
}

// SweepStaging drops staging partitions left behind by interrupted copy
// renames. When locks is set, staging partitions whose destination is
// currently locked belong to a rename in flight and are skipped.
func (m *PartitionManager) SweepStaging(ctx context.Context, locks *KeyedLocker) ([]string, error) {
	names, err := m.List(ctx)
	if err != nil {
		return nil, err
	}

	var dropped []string
	for _, name := range names {
		dest, ok := naming.IsStaging(name)
		if !ok {
			continue
		}
		if locks != nil {
			unlock, ok := locks.TryLock(partitionLockKey(dest))
			if !ok {
				continue
			}
			err = m.Destroy(ctx, name)
			unlock()
		} else {
			err = m.Destroy(ctx, name)
		}
		if err != nil {
			return dropped, fmt.Errorf("drop staging partition %s: %w", name, err)
		}
		dropped = append(dropped, name)
	}
	return dropped, nil
}

func (m *PartitionManager) Count(ctx context.Context, id string) (int, error) {
	return m.Store.Partitions().CountDocuments(ctx, id)
}

func (m *PartitionManager) PutDocument(ctx context.Context, partitionID string, doc domain.Document) (domain.Document, error) {
	return m.Store.Partitions().PutDocument(ctx, partitionID, doc)
}

func (m *PartitionManager) GetDocument(ctx context.Context, partitionID, docID string) (domain.Document, error) {
	d, err := m.Store.Partitions().GetDocument(ctx, partitionID, docID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return d, err
}

func (m *PartitionManager) ListDocuments(ctx context.Context, partitionID string) ([]domain.Document, error) {
	return m.Store.Partitions().ListDocuments(ctx, partitionID)
}

func (m *PartitionManager) DeleteDocument(ctx context.Context, partitionID, docID string) error {
	err := m.Store.Partitions().DeleteDocument(ctx, partitionID, docID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.ErrDocumentNotFound
	}
	return err
}

func mapPartitionError(err error, oldID, newID string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %s", domain.ErrPartitionNotFound, oldID)
	case errors.Is(err, store.ErrAlreadyExists):
		return fmt.Errorf("%w: %s", domain.ErrPartitionExists, newID)
	default:
		return fmt.Errorf("rename partition %s to %s: %w", oldID, newID, err)
	}
}
