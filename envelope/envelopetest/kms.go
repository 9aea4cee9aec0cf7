// Package envelopetest provides an in-memory key wrapping service for tests.
package envelopetest

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"sync"

	"github.com/cipherledger/channelcrypt/envelope"
)

// KeyService is a fake envelope.KeyWrappingService. Wrapping XORs the raw
// key with a per-scope keystream, so wrapped output is the same size as the
// input (the real threshold service also stays within the ledger's 32-byte
// wrapped-key bound). Membership is an allow-list of capability ids per
// scope.
type KeyService struct {
	mu          sync.Mutex
	master      []byte
	allowed     map[string]map[string]bool // scope -> capability id
	unavailable error

	WrapCalls   int
	UnwrapCalls int
}

// NewKeyService returns a KeyService with a random master secret.
func NewKeyService() *KeyService {
	master := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, master); err != nil {
		panic(fmt.Sprintf("failed to seed fake key service: %v", err))
	}
	return &KeyService{
		master:  master,
		allowed: make(map[string]map[string]bool),
	}
}

// Allow authorizes a capability id to unwrap keys in the given scope.
func (s *KeyService) Allow(scope, capabilityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.allowed[scope] == nil {
		s.allowed[scope] = make(map[string]bool)
	}
	s.allowed[scope][capabilityID] = true
}

// Revoke removes a capability id from the scope's allow-list.
func (s *KeyService) Revoke(scope, capabilityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.allowed[scope], capabilityID)
}

// SetUnavailable makes every subsequent call fail with err until called
// again with nil.
func (s *KeyService) SetUnavailable(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unavailable = err
}

func (s *KeyService) Wrap(ctx context.Context, rawKey []byte, scope string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.WrapCalls++

	if s.unavailable != nil {
		return nil, s.unavailable
	}

	return s.xorKeystream(rawKey, scope), nil
}

func (s *KeyService) Unwrap(ctx context.Context, wrappedKey []byte, scope string, proof envelope.MembershipProof) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.UnwrapCalls++

	if s.unavailable != nil {
		return nil, s.unavailable
	}
	if !s.allowed[scope][proof.CapabilityID] {
		return nil, fmt.Errorf("%w: capability %q has no access to scope %q",
			envelope.ErrAccessDenied, proof.CapabilityID, scope)
	}

	return s.xorKeystream(wrappedKey, scope), nil
}

// xorKeystream applies a scope-keyed HMAC keystream; the operation is its
// own inverse. Must be called with the lock held.
func (s *KeyService) xorKeystream(in []byte, scope string) []byte {
	mac := hmac.New(sha256.New, s.master)
	mac.Write([]byte(scope))
	stream := mac.Sum(nil)

	out := make([]byte, len(in))
	for i := range in {
		out[i] = in[i] ^ stream[i%len(stream)]
	}
	return out
}
