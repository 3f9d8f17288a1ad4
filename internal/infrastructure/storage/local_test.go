package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logimaster/backend/internal/domain/shared"
)

func TestLocalReportStore(t *testing.T) {
	ctx := context.Background()

	newStore := func(t *testing.T) *LocalReportStore {
		store, err := NewLocalReportStore(t.TempDir())
		require.NoError(t, err)
		return store
	}

	t.Run("empty base directory returns error", func(t *testing.T) {
		_, err := NewLocalReportStore("")
		require.Error(t, err)
	})

	t.Run("put then get round-trips", func(t *testing.T) {
		store := newStore(t)
		data := []byte("workbook bytes")

		require.NoError(t, store.Put(ctx, "reports/warehouses/abc-errors.xlsx", data, "application/octet-stream"))

		got, err := store.Get(ctx, "reports/warehouses/abc-errors.xlsx")
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("get of missing key returns not found", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Get(ctx, "reports/missing.xlsx")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("exists reflects stored state", func(t *testing.T) {
		store := newStore(t)

		ok, err := store.Exists(ctx, "reports/x.xlsx")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, store.Put(ctx, "reports/x.xlsx", []byte("d"), ""))

		ok, err = store.Exists(ctx, "reports/x.xlsx")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("delete removes the file and tolerates missing keys", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, "reports/x.xlsx", []byte("d"), ""))

		require.NoError(t, store.Delete(ctx, "reports/x.xlsx"))
		ok, err := store.Exists(ctx, "reports/x.xlsx")
		require.NoError(t, err)
		assert.False(t, ok)

		assert.NoError(t, store.Delete(ctx, "reports/x.xlsx"))
	})

	t.Run("rejects keys escaping the base directory", func(t *testing.T) {
		store := newStore(t)

		err := store.Put(ctx, "../outside.xlsx", []byte("d"), "")
		require.Error(t, err)

		err = store.Put(ctx, "/etc/passwd", []byte("d"), "")
		require.Error(t, err)

		_, err = store.Get(ctx, "")
		require.Error(t, err)
	})
}
