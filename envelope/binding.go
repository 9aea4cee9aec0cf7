package envelope

import "encoding/binary"

// Binding is the context authenticated alongside every ciphertext. Encoding
// it into the AEAD's additional data ties a ciphertext to one channel, one
// key version, and one sender, so ciphertext cannot be replayed into a
// different context even if the key material matches.
type Binding struct {
	ChannelID string
	Version   uint64
	Sender    string
}

// encode serializes the binding with length prefixes so that no two distinct
// bindings share an encoding.
func (b Binding) encode() []byte {
	out := make([]byte, 0, 8+len(b.ChannelID)+8+8+len(b.Sender))
	out = binary.BigEndian.AppendUint64(out, uint64(len(b.ChannelID)))
	out = append(out, b.ChannelID...)
	out = binary.BigEndian.AppendUint64(out, b.Version)
	out = binary.BigEndian.AppendUint64(out, uint64(len(b.Sender)))
	out = append(out, b.Sender...)
	return out
}
