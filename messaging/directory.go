package messaging

import (
	"context"
	"errors"
	"slices"

	"github.com/rs/zerolog"

	"github.com/cipherledger/channelcrypt/cache"
	"github.com/cipherledger/channelcrypt/keyring"
)

// Directory answers channel metadata and membership questions from the
// ledger, memoizing records behind a TTL cache so bursts of reads against
// the same channel cost one ledger fetch per TTL window.
type Directory struct {
	ledger   Ledger
	channels *cache.Cache[*ChannelRecord]
	logger   zerolog.Logger
}

// NewDirectory returns a Directory over the given ledger client.
func NewDirectory(ledger Ledger, channels *cache.Cache[*ChannelRecord], logger zerolog.Logger) (*Directory, error) {
	if ledger == nil {
		return nil, errors.New("ledger client is required")
	}
	if channels == nil {
		return nil, errors.New("channel cache is required")
	}

	return &Directory{
		ledger:   ledger,
		channels: channels,
		logger:   logger.With().Str("component", "directory").Logger(),
	}, nil
}

// Channel returns the channel record, from cache when fresh.
func (d *Directory) Channel(ctx context.Context, channelID string) (*ChannelRecord, error) {
	return d.channels.Read(ctx, []string{"channel", channelID},
		func(ctx context.Context) (*ChannelRecord, error) {
			record, err := d.ledger.Channel(ctx, channelID)
			if err != nil {
				return nil, err
			}
			d.logger.Debug().
				Str("channel_id", channelID).
				Int("key_versions", len(record.WrappedKeys)).
				Int("members", len(record.Members)).
				Msg("fetched channel record")
			return record, nil
		})
}

// KeyHistory reconstructs the channel's wrapped-key history from its ledger
// record.
func (d *Directory) KeyHistory(ctx context.Context, channelID string) (*keyring.History, error) {
	record, err := d.Channel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return keyring.FromEntries(record.WrappedKeys)
}

// IsMember reports whether the given member id is in the channel's current
// membership set. The answer is as fresh as the cached channel record.
func (d *Directory) IsMember(ctx context.Context, channelID, memberID string) (bool, error) {
	record, err := d.Channel(ctx, channelID)
	if err != nil {
		return false, err
	}
	return slices.Contains(record.Members, memberID), nil
}

// Invalidate drops all cached channel records, forcing the next read back to
// the ledger. Useful after submitting a transaction that changes channel
// state.
func (d *Directory) Invalidate() {
	d.channels.Clear()
}
