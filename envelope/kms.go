package envelope

import "context"

// MembershipProof is the capability a caller presents to authorize
// unwrapping a channel key. The capability object itself lives on the
// ledger; only its id travels to the key service.
type MembershipProof struct {
	CapabilityID string
}

// KeyWrappingService is the external service holding the key-encryption
// keys. Wrap encrypts a raw data encryption key under the scope's key
// hierarchy; Unwrap reverses it for callers holding a valid membership
// proof for that scope.
//
// Implementations return ErrAccessDenied when the proof does not authorize
// the scope, and should let transport failures surface as ordinary errors;
// Crypto maps those to ErrKeyServiceUnavailable.
type KeyWrappingService interface {
	Wrap(ctx context.Context, rawKey []byte, scope string) ([]byte, error)
	Unwrap(ctx context.Context, wrappedKey []byte, scope string, proof MembershipProof) ([]byte, error)
}
