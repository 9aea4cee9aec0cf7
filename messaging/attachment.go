package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cipherledger/channelcrypt/envelope"
)

// AttachmentRequest carries one file for attachment encryption.
type AttachmentRequest struct {
	ChannelID string
	Sender    string
	File      File
	Key       envelope.Key
	Proof     envelope.MembershipProof
}

// EncryptedAttachment pairs the blob-store payload with the ledger-bound
// attachment record. BlobRef is empty until the payload has been uploaded.
type EncryptedAttachment struct {
	Payload    []byte
	Attachment Attachment
}

// EncryptAttachment encrypts the file's bytes and its metadata under the
// same resolved key with independent nonces. The caller uploads the payload
// and records the returned ref; EncryptMessage does both in one call.
func (e *Encryptor) EncryptAttachment(ctx context.Context, req AttachmentRequest) (*EncryptedAttachment, error) {
	key, err := e.resolveKey(ctx, req.ChannelID, req.Key, req.Proof)
	if err != nil {
		return nil, err
	}
	return e.encryptFile(req.File, key, e.binding(req.ChannelID, req.Sender, key.Version()))
}

func (e *Encryptor) encryptFile(file File, key envelope.PlainKey, binding envelope.Binding) (*EncryptedAttachment, error) {
	dataBox, err := e.crypto.Encrypt(file.Data, key, binding)
	if err != nil {
		return nil, err
	}

	meta, err := json.Marshal(Metadata{
		Name:        file.Name,
		ContentType: file.ContentType,
		Size:        int64(len(file.Data)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode attachment metadata: %w", err)
	}

	metaBox, err := e.crypto.Encrypt(meta, key, binding)
	if err != nil {
		return nil, err
	}

	return &EncryptedAttachment{
		Payload: dataBox.Ciphertext,
		Attachment: Attachment{
			EncryptedMetadata: metaBox.Ciphertext,
			DataNonce:         dataBox.Nonce,
			MetadataNonce:     metaBox.Nonce,
			KeyVersion:        key.Version(),
		},
	}, nil
}

// DecryptAttachmentRequest carries a persisted attachment for decryption.
type DecryptAttachmentRequest struct {
	ChannelID  string
	Sender     string
	Attachment Attachment
	Key        envelope.Key
	Proof      envelope.MembershipProof
}

// DecryptedAttachment holds eagerly decrypted metadata and a lazy handle to
// the payload bytes.
type DecryptedAttachment struct {
	Metadata Metadata
	Data     *DataHandle
}

// DecryptAttachment decrypts the attachment's metadata and returns a handle
// for the payload. No blob store call happens here: the download and the
// payload decryption run on the handle's first Fetch, which re-resolves the
// key through the cache rather than capturing raw key bytes.
func (e *Encryptor) DecryptAttachment(ctx context.Context, req DecryptAttachmentRequest) (*DecryptedAttachment, error) {
	if req.Key != nil && req.Key.Version() != req.Attachment.KeyVersion {
		return nil, fmt.Errorf("%w: key version %d, attachment pinned to %d",
			ErrKeyVersionMismatch, req.Key.Version(), req.Attachment.KeyVersion)
	}

	key, err := e.resolveKey(ctx, req.ChannelID, req.Key, req.Proof)
	if err != nil {
		return nil, err
	}
	binding := e.binding(req.ChannelID, req.Sender, key.Version())

	metaBytes, err := e.crypto.Decrypt(req.Attachment.EncryptedMetadata, req.Attachment.MetadataNonce, key, binding)
	if err != nil {
		return nil, err
	}

	var meta Metadata
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode attachment metadata: %w", err)
	}

	attachment := req.Attachment
	keyRef := req.Key
	proof := req.Proof
	channelID := req.ChannelID
	sender := req.Sender

	handle := newDataHandle(func(ctx context.Context) ([]byte, error) {
		payload, err := e.downloadPayload(ctx, attachment.BlobRef)
		if err != nil {
			return nil, err
		}
		// Re-resolve through the cache instead of capturing raw key bytes
		// for the handle's lifetime.
		key, err := e.resolveKey(ctx, channelID, keyRef, proof)
		if err != nil {
			return nil, err
		}
		return e.crypto.Decrypt(payload, attachment.DataNonce, key, e.binding(channelID, sender, key.Version()))
	})

	return &DecryptedAttachment{Metadata: meta, Data: handle}, nil
}

func (e *Encryptor) downloadPayload(ctx context.Context, ref string) ([]byte, error) {
	ctx, cancel := e.blobContext(ctx)
	defer cancel()

	payloads, err := e.blobs.Download(ctx, []string{ref})
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrAttachmentFetch, ref, err)
	}
	if len(payloads) != 1 {
		return nil, fmt.Errorf("%w: %q: blob store returned %d payloads", ErrAttachmentFetch, ref, len(payloads))
	}
	return payloads[0], nil
}

// HandleState is the lifecycle of a lazy payload fetch. Idle means no fetch
// has started yet; Fetching means one is in flight; Resolved means the
// decrypted bytes are memoized. Failed fetches return the handle to Idle so
// callers can retry transient blob store errors.
type HandleState int

const (
	HandleIdle HandleState = iota
	HandleFetching
	HandleResolved
)

// DataHandle is a deferred attachment payload. Constructing one performs no
// I/O; Fetch downloads and decrypts on first use and memoizes the result.
type DataHandle struct {
	mu    sync.Mutex
	state HandleState
	done  chan struct{}
	data  []byte
	fetch func(ctx context.Context) ([]byte, error)
}

func newDataHandle(fetch func(ctx context.Context) ([]byte, error)) *DataHandle {
	return &DataHandle{fetch: fetch}
}

// State reports the handle's current lifecycle state.
func (h *DataHandle) State() HandleState {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.state
}

// Fetch returns the decrypted payload, downloading and decrypting it on the
// first call. Callers issuing Fetch while another fetch is in flight wait
// for that fetch rather than starting a second download.
func (h *DataHandle) Fetch(ctx context.Context) ([]byte, error) {
	for {
		h.mu.Lock()
		switch h.state {
		case HandleResolved:
			data := h.data
			h.mu.Unlock()
			return data, nil
		case HandleFetching:
			done := h.done
			h.mu.Unlock()
			select {
			case <-done:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		case HandleIdle:
		}
		h.state = HandleFetching
		h.done = make(chan struct{})
		h.mu.Unlock()

		data, err := h.fetch(ctx)

		h.mu.Lock()
		close(h.done)
		if err != nil {
			h.state = HandleIdle
			h.mu.Unlock()
			return nil, err
		}
		h.state = HandleResolved
		h.data = data
		h.mu.Unlock()
		return data, nil
	}
}
