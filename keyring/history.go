// Package keyring tracks the ordered, append-only sequence of wrapped data
// encryption keys for a channel. Versions are 1-indexed; the latest version
// is the history length. Entries are opaque ciphertext produced by the key
// wrapping service and are never truncated or reordered, so any version ever
// issued stays resolvable for as long as the channel exists.
package keyring

import (
	"errors"
	"fmt"
)

// MaxWrappedKeySize is the upper bound, in bytes, on a single wrapped key
// entry as persisted on the ledger.
const MaxWrappedKeySize = 32

// ErrKeyTooLarge indicates a wrapped key exceeding MaxWrappedKeySize.
var ErrKeyTooLarge = errors.New("wrapped key too large")

// ErrVersionNotFound indicates a key version outside [1, LatestVersion()].
var ErrVersionNotFound = errors.New("key version not found")

// History is the append-only wrapped-key ledger for a single channel.
type History struct {
	entries [][]byte
}

// Empty returns a history with no entries. A channel with an empty history
// is not yet usable for messaging.
func Empty() *History {
	return &History{}
}

// Singleton returns a history holding the given wrapped key as version 1.
func Singleton(wrappedKey []byte) (*History, error) {
	h := Empty()
	if err := h.Append(wrappedKey); err != nil {
		return nil, err
	}
	return h, nil
}

// FromEntries reconstructs a history from persisted wrapped-key entries in
// version order, as read back from the ledger.
func FromEntries(entries [][]byte) (*History, error) {
	h := Empty()
	for _, entry := range entries {
		if err := h.Append(entry); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Append adds a wrapped key as the new latest version. Used on channel
// creation and on every rotation; existing versions are never affected.
func (h *History) Append(wrappedKey []byte) error {
	if len(wrappedKey) > MaxWrappedKeySize {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrKeyTooLarge, len(wrappedKey), MaxWrappedKeySize)
	}

	entry := make([]byte, len(wrappedKey))
	copy(entry, wrappedKey)
	h.entries = append(h.entries, entry)
	return nil
}

// LatestVersion returns the current number of versions. Zero means the
// channel has no key material yet.
func (h *History) LatestVersion() uint64 {
	return uint64(len(h.entries))
}

// WrappedKeyAt returns the wrapped key for the given 1-indexed version.
func (h *History) WrappedKeyAt(version uint64) ([]byte, error) {
	if version < 1 || version > h.LatestVersion() {
		return nil, fmt.Errorf("%w: version %d, history has %d", ErrVersionNotFound, version, h.LatestVersion())
	}

	entry := h.entries[version-1]
	out := make([]byte, len(entry))
	copy(out, entry)
	return out, nil
}

// Entries returns the wrapped keys in version order, suitable for
// persisting to the ledger.
func (h *History) Entries() [][]byte {
	out := make([][]byte, len(h.entries))
	for idx, entry := range h.entries {
		out[idx] = make([]byte, len(entry))
		copy(out[idx], entry)
	}
	return out
}
