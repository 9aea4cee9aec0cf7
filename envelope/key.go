package envelope

import "fmt"

// RawKeySize is the size of an unwrapped data encryption key in bytes
// (AES-256 and ChaCha20-Poly1305 both take 256-bit keys).
const RawKeySize = 32

// Key is the state of a channel data encryption key: either resolved
// (PlainKey) or still wrapped by the key service (WrappedKey). The interface
// is sealed so every consumer has to handle both states explicitly; there is
// no way to read key bytes out of a wrapped key without going through
// Crypto.ResolveKey.
type Key interface {
	// Version is the key's 1-indexed position in the channel's history.
	Version() uint64

	sealedKey()
}

// PlainKey is a resolved data encryption key. It is only ever held for the
// duration of a single encrypt or decrypt call and must not be persisted.
type PlainKey struct {
	bytes   []byte
	version uint64
}

// NewPlainKey wraps raw key bytes with their history version. The raw key
// must be exactly RawKeySize bytes.
func NewPlainKey(raw []byte, version uint64) (PlainKey, error) {
	if len(raw) != RawKeySize {
		return PlainKey{}, fmt.Errorf("invalid key size: expected %d bytes, got %d", RawKeySize, len(raw))
	}
	b := make([]byte, RawKeySize)
	copy(b, raw)
	return PlainKey{bytes: b, version: version}, nil
}

func (k PlainKey) Version() uint64 { return k.version }

// Bytes returns a copy of the raw key material.
func (k PlainKey) Bytes() []byte {
	out := make([]byte, len(k.bytes))
	copy(out, k.bytes)
	return out
}

func (k PlainKey) sealedKey() {}

// WrappedKey is a data encryption key in its wrapped (service-encrypted)
// form, safe to persist on the ledger. Resolving it requires a membership
// proof.
type WrappedKey struct {
	ciphertext []byte
	version    uint64
}

// NewWrappedKey wraps service-encrypted key bytes with their history
// version.
func NewWrappedKey(ciphertext []byte, version uint64) WrappedKey {
	b := make([]byte, len(ciphertext))
	copy(b, ciphertext)
	return WrappedKey{ciphertext: b, version: version}
}

func (k WrappedKey) Version() uint64 { return k.version }

// Ciphertext returns a copy of the wrapped key bytes.
func (k WrappedKey) Ciphertext() []byte {
	out := make([]byte, len(k.ciphertext))
	copy(out, k.ciphertext)
	return out
}

func (k WrappedKey) sealedKey() {}
