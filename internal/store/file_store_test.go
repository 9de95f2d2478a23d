package store_test

import (
	"testing"

	"github.com/rainydayslabs/storefront-core/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	ctx := t.Context()

	t.Run("Success - Round Trip", func(t *testing.T) {
		// Arrange
		fileStore, err := store.NewFileStore(t.TempDir())
		require.NoError(t, err)

		saved := slotData{Field1: "value1", Field2: 123}

		// Act
		err = fileStore.Set(ctx, store.CartKey, saved)
		require.NoError(t, err)

		var loaded slotData
		found, err := fileStore.Get(ctx, store.CartKey, &loaded)

		// Assert
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, saved, loaded)
	})

	t.Run("Success - Missing Key Reports Not Found", func(t *testing.T) {
		// Arrange
		fileStore, err := store.NewFileStore(t.TempDir())
		require.NoError(t, err)

		// Act
		var loaded slotData
		found, err := fileStore.Get(ctx, "never-written", &loaded)

		// Assert
		require.NoError(t, err, "an absent slot is not an error")
		assert.False(t, found)
	})

	t.Run("Success - Overwrite Replaces The Slot", func(t *testing.T) {
		// Arrange
		fileStore, err := store.NewFileStore(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, fileStore.Set(ctx, store.CartKey, slotData{Field1: "old"}))

		// Act
		require.NoError(t, fileStore.Set(ctx, store.CartKey, slotData{Field1: "new"}))

		var loaded slotData
		found, err := fileStore.Get(ctx, store.CartKey, &loaded)

		// Assert
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "new", loaded.Field1)
	})

	t.Run("Success - Delete Then Get", func(t *testing.T) {
		// Arrange
		fileStore, err := store.NewFileStore(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, fileStore.Set(ctx, store.CartKey, slotData{Field1: "value"}))

		// Act
		require.NoError(t, fileStore.Delete(ctx, store.CartKey))

		var loaded slotData
		found, err := fileStore.Get(ctx, store.CartKey, &loaded)

		// Assert
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Success - Delete Missing Key Is A No-Op", func(t *testing.T) {
		// Arrange
		fileStore, err := store.NewFileStore(t.TempDir())
		require.NoError(t, err)

		// Act & Assert
		assert.NoError(t, fileStore.Delete(ctx, "never-written"))
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := t.Context()

	t.Run("Success - Round Trip", func(t *testing.T) {
		// Arrange
		memStore := store.NewMemoryStore()
		saved := slotData{Field1: "value1", Field2: 123}

		// Act
		require.NoError(t, memStore.Set(ctx, store.StockKey, saved))

		var loaded slotData
		found, err := memStore.Get(ctx, store.StockKey, &loaded)

		// Assert
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, saved, loaded)
	})

	t.Run("Success - Values Are Decoupled From The Caller", func(t *testing.T) {
		// Arrange
		memStore := store.NewMemoryStore()
		saved := slotData{Field1: "original"}
		require.NoError(t, memStore.Set(ctx, store.StockKey, saved))

		// Act
		saved.Field1 = "mutated after save"

		var loaded slotData
		found, err := memStore.Get(ctx, store.StockKey, &loaded)

		// Assert
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "original", loaded.Field1, "stored values must not alias caller memory")
	})

	t.Run("Success - Delete", func(t *testing.T) {
		// Arrange
		memStore := store.NewMemoryStore()
		require.NoError(t, memStore.Set(ctx, store.StockKey, slotData{}))

		// Act
		require.NoError(t, memStore.Delete(ctx, store.StockKey))

		var loaded slotData
		found, err := memStore.Get(ctx, store.StockKey, &loaded)

		// Assert
		require.NoError(t, err)
		assert.False(t, found)
	})
}
