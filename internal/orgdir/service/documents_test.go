package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"github.com/stretchr/testify/require"
)

func TestDocumentService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, RenameAtomic)

	f.create(t, "SRM", "admin@srm.example", "secret")
	token := f.login(t, "admin@srm.example", "secret")

	first, err := f.docs.Put(ctx, token, "SRM", "alpha", json.RawMessage(`{"v":1}`))
	require.NoError(t, err)
	require.Equal(t, "alpha", first.ID)

	second, err := f.docs.Put(ctx, token, "srm", "alpha", json.RawMessage(`{"v":2}`))
	require.NoError(t, err)
	require.Equal(t, first.CreatedAt, second.CreatedAt)

	_, err = f.docs.Put(ctx, token, "SRM", "beta", json.RawMessage(`[1,2,3]`))
	require.NoError(t, err)

	docs, err := f.docs.List(ctx, token, "SRM")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "alpha", docs[0].ID)
	require.JSONEq(t, `{"v":2}`, string(docs[0].Body))

	require.NoError(t, f.docs.Delete(ctx, token, "SRM", "beta"))
	_, err = f.docs.Get(ctx, token, "SRM", "beta")
	require.ErrorIs(t, err, domain.ErrDocumentNotFound)
	require.ErrorIs(t, f.docs.Delete(ctx, token, "SRM", "beta"), domain.ErrDocumentNotFound)

	t.Run("validation", func(t *testing.T) {
		for _, id := range []string{"", "../etc", "a/b", strings.Repeat("x", 129)} {
			_, err := f.docs.Put(ctx, token, "SRM", id, json.RawMessage(`{}`))
			require.ErrorIs(t, err, domain.ErrInvalidRequest, id)
		}
		_, err := f.docs.Put(ctx, token, "SRM", "ok", json.RawMessage(`{not json`))
		require.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("partitions are isolated", func(t *testing.T) {
		f.create(t, "Acme", "admin@acme.example", "secret")
		acme := f.login(t, "admin@acme.example", "secret")

		docs, err := f.docs.List(ctx, acme, "Acme")
		require.NoError(t, err)
		require.Empty(t, docs)

		_, err = f.docs.Get(ctx, acme, "SRM", "alpha")
		require.ErrorIs(t, err, domain.ErrForbidden)
	})
}
