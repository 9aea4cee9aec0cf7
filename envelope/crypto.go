// Package envelope implements the client-side key hierarchy for permissioned
// channels: data encryption keys are generated locally, wrapped by an
// external key service scoped to the channel, and used to produce AEAD
// ciphertext bound to a {channel, version, sender} context. Raw key material
// exists only inside a single call; only the wrapped form is ever persisted.
package envelope

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Box is AEAD output: ciphertext (tag included) plus the nonce it was
// sealed with.
type Box struct {
	Ciphertext []byte
	Nonce      []byte
}

// Crypto produces and consumes channel ciphertext and brokers key material
// through the key wrapping service.
type Crypto struct {
	kms     KeyWrappingService
	alg     Algorithm
	timeout time.Duration
	logger  zerolog.Logger
}

// NewCrypto returns a Crypto using the given wrapping service and AEAD
// algorithm. The timeout bounds every call to the wrapping service; zero
// means the caller's context is the only bound.
func NewCrypto(kms KeyWrappingService, alg Algorithm, timeout time.Duration, logger zerolog.Logger) (*Crypto, error) {
	if kms == nil {
		return nil, errors.New("key wrapping service is required")
	}
	if err := alg.Validate(); err != nil {
		return nil, err
	}

	return &Crypto{
		kms:     kms,
		alg:     alg,
		timeout: timeout,
		logger:  logger.With().Str("component", "envelope").Logger(),
	}, nil
}

// GenerateWrappedDEK draws a fresh random data encryption key, has the key
// service wrap it under the channel's scope, and returns only the wrapped
// form. The raw key is zeroed before returning.
func (c *Crypto) GenerateWrappedDEK(ctx context.Context, channelID string) ([]byte, error) {
	rawKey := make([]byte, RawKeySize)
	if _, err := io.ReadFull(rand.Reader, rawKey); err != nil {
		return nil, fmt.Errorf("failed to generate data encryption key: %w", err)
	}
	defer zero(rawKey)

	ctx, cancel := c.serviceContext(ctx)
	defer cancel()

	wrapped, err := c.kms.Wrap(ctx, rawKey, channelID)
	if err != nil {
		return nil, c.serviceError("wrap", err)
	}

	c.logger.Debug().
		Str("channel_id", channelID).
		Int("wrapped_size", len(wrapped)).
		Msg("generated wrapped channel DEK")

	return wrapped, nil
}

// ResolveKey unwraps a wrapped key through the key service, presenting the
// caller's membership proof for the channel's scope. Returns ErrAccessDenied
// if the proof is rejected and ErrKeyServiceUnavailable on transport
// failure or timeout; only the former is final.
func (c *Crypto) ResolveKey(ctx context.Context, key WrappedKey, channelID string, proof MembershipProof) (PlainKey, error) {
	ctx, cancel := c.serviceContext(ctx)
	defer cancel()

	rawKey, err := c.kms.Unwrap(ctx, key.ciphertext, channelID, proof)
	if err != nil {
		return PlainKey{}, c.serviceError("unwrap", err)
	}
	defer zero(rawKey)

	plain, err := NewPlainKey(rawKey, key.version)
	if err != nil {
		return PlainKey{}, fmt.Errorf("key service returned malformed key: %w", err)
	}

	c.logger.Debug().
		Str("channel_id", channelID).
		Uint64("key_version", key.version).
		Msg("resolved channel key")

	return plain, nil
}

// Encrypt seals plaintext under the resolved key with a fresh random nonce,
// authenticating the binding context into the tag. Nonces are never reused:
// every call draws new randomness.
func (c *Crypto) Encrypt(plaintext []byte, key PlainKey, binding Binding) (Box, error) {
	aead, err := c.alg.aead(key.bytes)
	if err != nil {
		return Box{}, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return Box{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, binding.encode())

	return Box{Ciphertext: ciphertext, Nonce: nonce}, nil
}

// Decrypt opens ciphertext sealed by Encrypt. Any mismatch in key, nonce,
// ciphertext, or binding context fails with ErrAuthenticationFailed and no
// plaintext.
func (c *Crypto) Decrypt(ciphertext, nonce []byte, key PlainKey, binding Binding) ([]byte, error) {
	aead, err := c.alg.aead(key.bytes)
	if err != nil {
		return nil, err
	}

	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("%w: invalid nonce size %d", ErrAuthenticationFailed, len(nonce))
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, binding.encode())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	return plaintext, nil
}

// serviceContext applies the configured key service timeout, if any.
func (c *Crypto) serviceContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// serviceError classifies key service failures: proof rejections pass
// through unchanged, everything else (including timeouts) is reported as the
// service being unavailable so callers know it is safe to retry.
func (c *Crypto) serviceError(op string, err error) error {
	if errors.Is(err, ErrAccessDenied) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrKeyServiceUnavailable, op, err)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
