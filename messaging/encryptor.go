// Package messaging presents the message-level encryption API for
// permissioned channels: text and attachment encrypt/decrypt on top of the
// envelope key hierarchy, with resolved keys memoized in a short-TTL cache
// and attachment payloads fetched lazily from the blob store.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/cipherledger/channelcrypt/cache"
	"github.com/cipherledger/channelcrypt/envelope"
	"github.com/cipherledger/channelcrypt/keyring"
)

// Encryptor orchestrates envelope crypto, the key cache, and the blob store.
type Encryptor struct {
	crypto      *envelope.Crypto
	keys        *cache.Cache[envelope.PlainKey]
	blobs       BlobStore
	blobTimeout time.Duration
	logger      zerolog.Logger
}

// NewEncryptor returns an Encryptor. The key cache should carry a short TTL:
// it holds resolved (raw) key material, trading a bounded exposure window
// for not re-invoking the wrapping service on every message in a burst. The
// blob timeout bounds each upload and download; zero leaves only the
// caller's context.
func NewEncryptor(crypto *envelope.Crypto, keys *cache.Cache[envelope.PlainKey], blobs BlobStore, blobTimeout time.Duration, logger zerolog.Logger) (*Encryptor, error) {
	if crypto == nil {
		return nil, errors.New("envelope crypto is required")
	}
	if keys == nil {
		return nil, errors.New("key cache is required")
	}
	if blobs == nil {
		return nil, errors.New("blob store is required")
	}

	return &Encryptor{
		crypto:      crypto,
		keys:        keys,
		blobs:       blobs,
		blobTimeout: blobTimeout,
		logger:      logger.With().Str("component", "messaging").Logger(),
	}, nil
}

// NewChannelKey generates the first wrapped key for a channel and appends it
// to the (empty) history as version 1.
func (e *Encryptor) NewChannelKey(ctx context.Context, channelID string, history *keyring.History) (envelope.WrappedKey, error) {
	if history.LatestVersion() != 0 {
		return envelope.WrappedKey{}, fmt.Errorf("channel %q already has key material; rotate instead", channelID)
	}
	return e.appendChannelKey(ctx, channelID, history)
}

// RotateChannelKey generates a fresh wrapped key and appends it as the new
// latest version. Messages pinned to earlier versions stay decryptable: the
// history is append-only and old entries are never invalidated.
func (e *Encryptor) RotateChannelKey(ctx context.Context, channelID string, history *keyring.History) (envelope.WrappedKey, error) {
	if history.LatestVersion() == 0 {
		return envelope.WrappedKey{}, fmt.Errorf("%w: %q", ErrNoChannelKey, channelID)
	}
	return e.appendChannelKey(ctx, channelID, history)
}

func (e *Encryptor) appendChannelKey(ctx context.Context, channelID string, history *keyring.History) (envelope.WrappedKey, error) {
	wrapped, err := e.crypto.GenerateWrappedDEK(ctx, channelID)
	if err != nil {
		return envelope.WrappedKey{}, err
	}
	if err := history.Append(wrapped); err != nil {
		return envelope.WrappedKey{}, err
	}

	version := history.LatestVersion()
	e.logger.Info().
		Str("channel_id", channelID).
		Uint64("key_version", version).
		Msg("appended channel key version")

	return envelope.NewWrappedKey(wrapped, version), nil
}

// TextRequest carries one text encryption.
type TextRequest struct {
	ChannelID string
	Sender    string
	Text      string
	Key       envelope.Key
	Proof     envelope.MembershipProof
}

// TextCiphertext is the ledger-ready output of EncryptText.
type TextCiphertext struct {
	Ciphertext []byte
	Nonce      []byte
	KeyVersion uint64
}

// EncryptText resolves the request's key if it is still wrapped (through the
// key cache) and seals the text bound to {channel, version, sender}.
func (e *Encryptor) EncryptText(ctx context.Context, req TextRequest) (*TextCiphertext, error) {
	key, err := e.resolveKey(ctx, req.ChannelID, req.Key, req.Proof)
	if err != nil {
		return nil, err
	}

	box, err := e.crypto.Encrypt([]byte(req.Text), key, e.binding(req.ChannelID, req.Sender, key.Version()))
	if err != nil {
		return nil, err
	}

	return &TextCiphertext{
		Ciphertext: box.Ciphertext,
		Nonce:      box.Nonce,
		KeyVersion: key.Version(),
	}, nil
}

// DecryptTextRequest carries one text decryption. Key must be the history
// entry for the message's pinned version.
type DecryptTextRequest struct {
	ChannelID  string
	Sender     string
	Ciphertext []byte
	Nonce      []byte
	Key        envelope.Key
	Proof      envelope.MembershipProof
}

// DecryptText reverses EncryptText. Authentication failures propagate
// unchanged from the envelope layer; no plaintext is returned on any error.
func (e *Encryptor) DecryptText(ctx context.Context, req DecryptTextRequest) (string, error) {
	key, err := e.resolveKey(ctx, req.ChannelID, req.Key, req.Proof)
	if err != nil {
		return "", err
	}

	plaintext, err := e.crypto.Decrypt(req.Ciphertext, req.Nonce, key, e.binding(req.ChannelID, req.Sender, key.Version()))
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// MessageRequest carries a full message: text plus zero or more files.
type MessageRequest struct {
	ChannelID string
	Sender    string
	Text      string
	Files     []File
	Key       envelope.Key
	Proof     envelope.MembershipProof
}

// EncryptMessage encrypts the text and every attachment under the same
// resolved key (independent nonces per part), uploads the encrypted payloads
// to the blob store, and returns a Message ready for ledger submission.
func (e *Encryptor) EncryptMessage(ctx context.Context, req MessageRequest) (*Message, error) {
	key, err := e.resolveKey(ctx, req.ChannelID, req.Key, req.Proof)
	if err != nil {
		return nil, err
	}
	binding := e.binding(req.ChannelID, req.Sender, key.Version())

	textBox, err := e.crypto.Encrypt([]byte(req.Text), key, binding)
	if err != nil {
		return nil, err
	}

	attachments := make([]Attachment, 0, len(req.Files))
	payloads := make([][]byte, 0, len(req.Files))
	for _, file := range req.Files {
		encrypted, err := e.encryptFile(file, key, binding)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt attachment %q: %w", file.Name, err)
		}
		attachments = append(attachments, encrypted.Attachment)
		payloads = append(payloads, encrypted.Payload)
	}

	if len(payloads) > 0 {
		refs, err := e.uploadPayloads(ctx, payloads)
		if err != nil {
			return nil, err
		}
		for idx := range attachments {
			attachments[idx].BlobRef = refs[idx]
		}
	}

	return &Message{
		Sender:      req.Sender,
		Ciphertext:  textBox.Ciphertext,
		Nonce:       textBox.Nonce,
		KeyVersion:  key.Version(),
		Attachments: attachments,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// DecryptMessageRequest carries a persisted message for decryption.
type DecryptMessageRequest struct {
	ChannelID string
	Message   Message
	Key       envelope.Key
	Proof     envelope.MembershipProof
}

// DecryptedMessage is the cleartext view of a message. Attachment metadata
// is already decrypted; attachment bytes stay behind lazy handles.
type DecryptedMessage struct {
	Text        string
	Attachments []*DecryptedAttachment
}

// DecryptMessage decrypts the text and each attachment's metadata eagerly.
// Attachment payloads are not downloaded until their handles are fetched.
func (e *Encryptor) DecryptMessage(ctx context.Context, req DecryptMessageRequest) (*DecryptedMessage, error) {
	if req.Key != nil && req.Key.Version() != req.Message.KeyVersion {
		return nil, fmt.Errorf("%w: key version %d, message pinned to %d",
			ErrKeyVersionMismatch, req.Key.Version(), req.Message.KeyVersion)
	}

	text, err := e.DecryptText(ctx, DecryptTextRequest{
		ChannelID:  req.ChannelID,
		Sender:     req.Message.Sender,
		Ciphertext: req.Message.Ciphertext,
		Nonce:      req.Message.Nonce,
		Key:        req.Key,
		Proof:      req.Proof,
	})
	if err != nil {
		return nil, err
	}

	attachments := make([]*DecryptedAttachment, 0, len(req.Message.Attachments))
	for _, att := range req.Message.Attachments {
		decrypted, err := e.DecryptAttachment(ctx, DecryptAttachmentRequest{
			ChannelID:  req.ChannelID,
			Sender:     req.Message.Sender,
			Attachment: att,
			Key:        req.Key,
			Proof:      req.Proof,
		})
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, decrypted)
	}

	return &DecryptedMessage{Text: text, Attachments: attachments}, nil
}

// resolveKey maps the key sum type to a usable key: already-resolved keys
// pass through, wrapped keys go through the read-through cache keyed by
// [channelID, version] so a burst of messages costs one unwrap.
func (e *Encryptor) resolveKey(ctx context.Context, channelID string, key envelope.Key, proof envelope.MembershipProof) (envelope.PlainKey, error) {
	switch k := key.(type) {
	case envelope.PlainKey:
		return k, nil
	case envelope.WrappedKey:
		return e.keys.Read(ctx, []string{channelID, strconv.FormatUint(k.Version(), 10)},
			func(ctx context.Context) (envelope.PlainKey, error) {
				return e.crypto.ResolveKey(ctx, k, channelID, proof)
			})
	case nil:
		return envelope.PlainKey{}, fmt.Errorf("%w: %q", ErrNoChannelKey, channelID)
	default:
		return envelope.PlainKey{}, fmt.Errorf("unhandled key state %T", key)
	}
}

func (e *Encryptor) binding(channelID, sender string, version uint64) envelope.Binding {
	return envelope.Binding{ChannelID: channelID, Version: version, Sender: sender}
}

func (e *Encryptor) uploadPayloads(ctx context.Context, payloads [][]byte) ([]string, error) {
	ctx, cancel := e.blobContext(ctx)
	defer cancel()

	var total uint64
	for _, p := range payloads {
		total += uint64(len(p))
	}

	refs, err := e.blobs.Upload(ctx, payloads)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %d attachment payloads: %w", len(payloads), err)
	}
	if len(refs) != len(payloads) {
		return nil, fmt.Errorf("blob store returned %d refs for %d payloads", len(refs), len(payloads))
	}

	e.logger.Debug().
		Int("count", len(payloads)).
		Str("total_size", humanize.Bytes(total)).
		Msg("uploaded attachment payloads")

	return refs, nil
}

func (e *Encryptor) blobContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.blobTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.blobTimeout)
}
