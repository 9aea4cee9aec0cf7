package messaging

import "context"

// ChannelRecord is the channel metadata object as read from the ledger:
// the wrapped-key history entries in version order and the current
// membership set. Membership is enforced by the ledger; this core only
// consults it.
type ChannelRecord struct {
	ID          string   `json:"id"`
	WrappedKeys [][]byte `json:"wrapped_keys"`
	Members     []string `json:"members"`
}

// MessageRecord is a persisted message object read from the ledger.
type MessageRecord struct {
	ID        string  `json:"id"`
	ChannelID string  `json:"channel_id"`
	Message   Message `json:"message"`
}

// Transaction carries new channel state for ledger submission: a message
// ciphertext bundle, a newly appended wrapped key, or both.
type Transaction struct {
	ChannelID  string   `json:"channel_id"`
	Message    *Message `json:"message,omitempty"`
	WrappedKey []byte   `json:"wrapped_key,omitempty"`
}

// Ledger is the external ledger client. Reads are thin object fetches by id;
// Submit hands a transaction to the ledger for ordering and persistence.
type Ledger interface {
	Channel(ctx context.Context, channelID string) (*ChannelRecord, error)
	Message(ctx context.Context, messageID string) (*MessageRecord, error)
	Submit(ctx context.Context, tx Transaction) error
}
