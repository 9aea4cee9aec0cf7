package messaging

import "time"

// Message is a channel message as persisted on the ledger: AEAD ciphertext,
// the nonce it was sealed with, and the key version that permanently pins
// which history entry decrypts it. Immutable once created.
type Message struct {
	Sender      string       `json:"sender"`
	Ciphertext  []byte       `json:"ciphertext"`
	Nonce       []byte       `json:"nonce"`
	KeyVersion  uint64       `json:"key_version"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Attachment is the ledger-bound half of an attachment: encrypted metadata
// plus a reference to the encrypted payload in the blob store. The payload
// itself never touches the ledger.
type Attachment struct {
	BlobRef           string `json:"blob_ref"`
	EncryptedMetadata []byte `json:"encrypted_metadata"`
	DataNonce         []byte `json:"data_nonce"`
	MetadataNonce     []byte `json:"metadata_nonce"`
	KeyVersion        uint64 `json:"key_version"`
}

// Metadata describes an attachment in the clear. It is JSON-encoded and
// encrypted separately from the payload so listing UIs can show names and
// sizes without downloading blobs.
type Metadata struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// File is a plaintext attachment input.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}
