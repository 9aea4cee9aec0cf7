package keyring_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cipherledger/channelcrypt/keyring"
)

func TestEmpty(t *testing.T) {
	h := keyring.Empty()

	assert.Equal(t, uint64(0), h.LatestVersion())

	_, err := h.WrappedKeyAt(1)
	assert.ErrorIs(t, err, keyring.ErrVersionNotFound)
}

func TestSingleton(t *testing.T) {
	t.Run("SingleEntry", func(t *testing.T) {
		h, err := keyring.Singleton([]byte("wrapped-v1"))
		require.NoError(t, err)

		assert.Equal(t, uint64(1), h.LatestVersion())

		entry, err := h.WrappedKeyAt(1)
		require.NoError(t, err)
		assert.Equal(t, []byte("wrapped-v1"), entry)
	})

	t.Run("RejectsOversizedKey", func(t *testing.T) {
		_, err := keyring.Singleton(bytes.Repeat([]byte{0xab}, keyring.MaxWrappedKeySize+1))
		assert.ErrorIs(t, err, keyring.ErrKeyTooLarge)
	})

	t.Run("AcceptsMaxSizedKey", func(t *testing.T) {
		_, err := keyring.Singleton(bytes.Repeat([]byte{0xab}, keyring.MaxWrappedKeySize))
		assert.NoError(t, err)
	})
}

func TestAppend(t *testing.T) {
	t.Run("RotationAppendsLatest", func(t *testing.T) {
		h, err := keyring.Singleton([]byte("v1"))
		require.NoError(t, err)

		require.NoError(t, h.Append([]byte("v2")))

		assert.Equal(t, uint64(2), h.LatestVersion())

		latest, err := h.WrappedKeyAt(2)
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), latest)

		// The previous version remains resolvable.
		old, err := h.WrappedKeyAt(1)
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), old)
	})

	t.Run("RejectsOversizedKey", func(t *testing.T) {
		h := keyring.Empty()
		err := h.Append(bytes.Repeat([]byte{0x01}, keyring.MaxWrappedKeySize+1))
		assert.ErrorIs(t, err, keyring.ErrKeyTooLarge)
		assert.Equal(t, uint64(0), h.LatestVersion())
	})

	t.Run("HistoricalVersionsSurviveManyRotations", func(t *testing.T) {
		h := keyring.Empty()
		for i := 1; i <= 100; i++ {
			require.NoError(t, h.Append(fmt.Appendf(nil, "wrapped-v%d", i)))
		}

		assert.Equal(t, uint64(100), h.LatestVersion())

		for v := uint64(1); v <= 100; v++ {
			entry, err := h.WrappedKeyAt(v)
			require.NoError(t, err)
			assert.Equal(t, fmt.Appendf(nil, "wrapped-v%d", v), entry)
		}
	})
}

func TestWrappedKeyAt(t *testing.T) {
	h, err := keyring.Singleton([]byte("v1"))
	require.NoError(t, err)
	require.NoError(t, h.Append([]byte("v2")))

	t.Run("OutOfRange", func(t *testing.T) {
		_, err := h.WrappedKeyAt(0)
		assert.ErrorIs(t, err, keyring.ErrVersionNotFound)

		_, err = h.WrappedKeyAt(3)
		assert.ErrorIs(t, err, keyring.ErrVersionNotFound)
	})

	t.Run("ReturnsCopy", func(t *testing.T) {
		entry, err := h.WrappedKeyAt(1)
		require.NoError(t, err)

		entry[0] = 0xff

		again, err := h.WrappedKeyAt(1)
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), again)
	})
}

func TestFromEntries(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		h, err := keyring.Singleton([]byte("v1"))
		require.NoError(t, err)
		require.NoError(t, h.Append([]byte("v2")))

		restored, err := keyring.FromEntries(h.Entries())
		require.NoError(t, err)

		assert.Equal(t, uint64(2), restored.LatestVersion())
		entry, err := restored.WrappedKeyAt(2)
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), entry)
	})

	t.Run("RejectsOversizedEntry", func(t *testing.T) {
		_, err := keyring.FromEntries([][]byte{
			[]byte("ok"),
			bytes.Repeat([]byte{0x02}, keyring.MaxWrappedKeySize+1),
		})
		assert.ErrorIs(t, err, keyring.ErrKeyTooLarge)
	})
}
