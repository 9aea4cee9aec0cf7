package blob_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cipherledger/channelcrypt/blob"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()

	t.Run("RequiresDirectory", func(t *testing.T) {
		_, err := blob.NewLocalStore(afero.NewMemMapFs(), "")
		assert.Error(t, err)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		store, err := blob.NewLocalStore(afero.NewMemMapFs(), "/blobs")
		require.NoError(t, err)

		refs, err := store.Upload(ctx, [][]byte{
			[]byte("payload one"),
			[]byte("payload two"),
		})
		require.NoError(t, err)
		require.Len(t, refs, 2)
		assert.NotEqual(t, refs[0], refs[1])

		payloads, err := store.Download(ctx, []string{refs[1], refs[0]})
		require.NoError(t, err)
		assert.Equal(t, []byte("payload two"), payloads[0])
		assert.Equal(t, []byte("payload one"), payloads[1])
	})

	t.Run("UnknownRef", func(t *testing.T) {
		store, err := blob.NewLocalStore(afero.NewMemMapFs(), "/blobs")
		require.NoError(t, err)

		_, err = store.Download(ctx, []string{"no-such-ref"})
		assert.Error(t, err)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		store, err := blob.NewLocalStore(afero.NewMemMapFs(), "/blobs")
		require.NoError(t, err)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err = store.Upload(cancelled, [][]byte{[]byte("payload")})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
