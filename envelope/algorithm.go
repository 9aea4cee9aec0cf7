package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Algorithm selects the AEAD used for message content. Both options take
// 256-bit keys and 96-bit nonces.
type Algorithm string

const (
	AlgorithmAES256GCM        Algorithm = "aes-256-gcm"
	AlgorithmChaCha20Poly1305 Algorithm = "chacha20-poly1305"
)

// Validate returns an error for unknown algorithm names.
func (a Algorithm) Validate() error {
	switch a {
	case AlgorithmAES256GCM, AlgorithmChaCha20Poly1305:
		return nil
	default:
		return fmt.Errorf("unknown encryption algorithm %q", string(a))
	}
}

// aead constructs the AEAD for a raw key. The cipher instance is transient,
// scoped to a single encrypt or decrypt call, so raw key material never
// outlives the call that needed it.
func (a Algorithm) aead(rawKey []byte) (cipher.AEAD, error) {
	switch a {
	case AlgorithmAES256GCM:
		block, err := aes.NewCipher(rawKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create AES cipher: %w", err)
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCM: %w", err)
		}
		return gcm, nil
	case AlgorithmChaCha20Poly1305:
		aead, err := chacha20poly1305.New(rawKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create ChaCha20-Poly1305: %w", err)
		}
		return aead, nil
	default:
		return nil, a.Validate()
	}
}
