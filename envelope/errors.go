package envelope

import "errors"

// ErrAuthenticationFailed indicates that an AEAD tag did not verify: the
// ciphertext, nonce, or binding context was altered, or the wrong key or
// version was used. No plaintext is ever returned alongside it.
var ErrAuthenticationFailed = errors.New("message authentication failed")

// ErrAccessDenied indicates that the key wrapping service rejected the
// caller's membership proof. Not retryable.
var ErrAccessDenied = errors.New("access denied by key service")

// ErrKeyServiceUnavailable indicates a transport or service failure talking
// to the key wrapping service, including timeouts. Callers may retry with
// backoff.
var ErrKeyServiceUnavailable = errors.New("key service unavailable")
