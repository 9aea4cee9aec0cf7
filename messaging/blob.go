package messaging

import "context"

// BlobStore is the external store holding encrypted attachment payloads.
// Upload returns one opaque ref per payload, in order; Download returns the
// payloads for the given refs, in order.
type BlobStore interface {
	Upload(ctx context.Context, payloads [][]byte) ([]string, error)
	Download(ctx context.Context, refs []string) ([][]byte, error)
}
