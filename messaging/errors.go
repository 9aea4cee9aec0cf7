package messaging

import "errors"

// ErrAttachmentFetch indicates a transient blob store failure (transport
// error or timeout) while downloading an attachment payload. Safe to retry;
// the handle stays unresolved.
var ErrAttachmentFetch = errors.New("attachment fetch failed")

// ErrNoChannelKey indicates an operation on a channel whose key history is
// still empty; the channel is unusable for messaging until a first key is
// created.
var ErrNoChannelKey = errors.New("channel has no key material")

// ErrKeyVersionMismatch indicates that the key supplied for a decrypt does
// not match the version pinned by the persisted message or attachment.
var ErrKeyVersionMismatch = errors.New("key version does not match message")
