package services

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalReceiptStorage(t *testing.T) {
	storage, err := NewLocalReceiptStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("StoreAndRead", func(t *testing.T) {
		data := []byte("%PDF-1.4 receipt body")
		key, err := storage.Store(ctx, "comprovante.pdf", data)
		require.NoError(t, err)
		assert.NotEmpty(t, key)
		assert.NotContains(t, key, "comprovante")

		read, err := storage.Read(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, data, read)
	})

	t.Run("KeyPreservesExtension", func(t *testing.T) {
		key, err := storage.Store(ctx, "foto.jpg", []byte{0xff, 0xd8})
		require.NoError(t, err)
		assert.Equal(t, ".jpg", key[len(key)-4:])
	})

	t.Run("Delete", func(t *testing.T) {
		key, err := storage.Store(ctx, "comprovante.pdf", []byte("x"))
		require.NoError(t, err)

		require.NoError(t, storage.Delete(ctx, key))
		_, err = storage.Read(ctx, key)
		assert.True(t, os.IsNotExist(err))

		// Deleting twice is a no-op
		require.NoError(t, storage.Delete(ctx, key))
	})

	t.Run("TraversalKeysRejected", func(t *testing.T) {
		for _, key := range []string{"", "../secret", "a/b", `a\b`, ".."} {
			_, err := storage.Read(ctx, key)
			assert.Error(t, err, "key %q must be rejected", key)
			assert.Error(t, storage.Delete(ctx, key), "key %q must be rejected", key)
		}
	})
}

func TestBcryptPasswordHasher(t *testing.T) {
	hasher := NewBcryptPasswordHasher(4)

	hash, err := hasher.Hash("SenhaForte123!")
	require.NoError(t, err)
	assert.NotEqual(t, "SenhaForte123!", hash)

	assert.NoError(t, hasher.Compare(hash, "SenhaForte123!"))
	assert.Error(t, hasher.Compare(hash, "senhaerrada"))

	// Same password hashes to different strings thanks to the salt
	other, err := hasher.Hash("SenhaForte123!")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other)
}
