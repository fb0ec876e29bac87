package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"github.com/stretchr/testify/require"
)

func TestParseRenameStrategy(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]RenameStrategy{"": RenameAtomic, "atomic": RenameAtomic, " COPY ": RenameCopy} {
		got, err := ParseRenameStrategy(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseRenameStrategy("shuffle")
	require.Error(t, err)
}

func TestPartitionManager(t *testing.T) {
	for _, strategy := range []RenameStrategy{RenameAtomic, RenameCopy} {
		t.Run(string(strategy), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, strategy)
			m := f.dir.Partitions

			require.NoError(t, m.Provision(ctx, "org_a"))
			require.ErrorIs(t, m.Provision(ctx, "org_a"), domain.ErrPartitionExists)
			require.ErrorIs(t, m.Provision(ctx, "a"), domain.ErrInvalidName)

			for i := range 5 {
				_, err := m.PutDocument(ctx, "org_a", domain.Document{ID: fmt.Sprintf("d%d", i), Body: json.RawMessage(`{"i":1}`)})
				require.NoError(t, err)
			}

			require.NoError(t, m.Rename(ctx, "org_a", "org_b"))
			n, err := m.Count(ctx, "org_b")
			require.NoError(t, err)
			require.Equal(t, 5, n)
			require.Equal(t, []string{"org_b"}, f.partitions(t))

			t.Run("already renamed", func(t *testing.T) {
				require.NoError(t, m.Rename(ctx, "org_a", "org_b"))
			})

			t.Run("missing source", func(t *testing.T) {
				require.ErrorIs(t, m.Rename(ctx, "org_x", "org_y"), domain.ErrPartitionNotFound)
			})

			t.Run("taken destination", func(t *testing.T) {
				require.NoError(t, m.Provision(ctx, "org_c"))
				require.ErrorIs(t, m.Rename(ctx, "org_b", "org_c"), domain.ErrPartitionExists)
				require.NoError(t, m.Destroy(ctx, "org_c"))
			})

			t.Run("destroy is idempotent", func(t *testing.T) {
				require.NoError(t, m.Provision(ctx, "org_gone"))
				require.NoError(t, m.Destroy(ctx, "org_gone"))
				require.NoError(t, m.Destroy(ctx, "org_gone"))
			})

			t.Run("documents", func(t *testing.T) {
				_, err := m.GetDocument(ctx, "org_b", "missing")
				require.ErrorIs(t, err, domain.ErrDocumentNotFound)
				require.ErrorIs(t, m.DeleteDocument(ctx, "org_b", "missing"), domain.ErrDocumentNotFound)

				require.NoError(t, m.DeleteDocument(ctx, "org_b", "d0"))
				docs, err := m.ListDocuments(ctx, "org_b")
				require.NoError(t, err)
				require.Len(t, docs, 4)
			})
		})
	}
}

func TestPartitionManagerCopyFailureKeepsSource(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, RenameCopy)
	m := f.dir.Partitions

	require.NoError(t, m.Provision(ctx, "org_a"))
	_, err := m.PutDocument(ctx, "org_a", domain.Document{ID: "d", Body: json.RawMessage(`{}`)})
	require.NoError(t, err)

	// Fail the swap after the staging copy is complete.
	f.faults.set("RenamePartition", 0, 1)
	require.ErrorIs(t, m.Rename(ctx, "org_a", "org_b"), domain.ErrStorageUnavailable)
	require.Equal(t, []string{"org_a"}, f.partitions(t))

	// Fail the copy itself.
	f.faults.set("CopyPartition", 0, 1)
	require.ErrorIs(t, m.Rename(ctx, "org_a", "org_b"), domain.ErrStorageUnavailable)
	require.Equal(t, []string{"org_a"}, f.partitions(t))

	require.NoError(t, m.Rename(ctx, "org_a", "org_b"))
	doc, err := m.GetDocument(ctx, "org_b", "d")
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(doc.Body))
}

func TestPartitionManagerSweepStaging(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, RenameCopy)
	m := f.dir.Partitions

	require.NoError(t, m.Provision(ctx, "org_live"))
	require.NoError(t, f.store.Partitions().CreatePartition(ctx, "org_a__staging"))
	require.NoError(t, f.store.Partitions().CreatePartition(ctx, "org_b__staging"))

	// org_b is mid-rename.
	unlock, ok := f.dir.Locks.TryLock(partitionLockKey("org_b"))
	require.True(t, ok)

	dropped, err := m.SweepStaging(ctx, f.dir.Locks)
	require.NoError(t, err)
	require.Equal(t, []string{"org_a__staging"}, dropped)
	require.Equal(t, []string{"org_b__staging", "org_live"}, f.partitions(t))

	unlock()
	dropped, err = m.SweepStaging(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"org_b__staging"}, dropped)
	require.Equal(t, []string{"org_live"}, f.partitions(t))
}
