package messaging_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cipherledger/channelcrypt/cache"
	"github.com/cipherledger/channelcrypt/internal/testutils"
	"github.com/cipherledger/channelcrypt/messaging"
)

type fakeLedger struct {
	mu           sync.Mutex
	channels     map[string]*messaging.ChannelRecord
	ChannelCalls int
	Submitted    []messaging.Transaction
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{channels: make(map[string]*messaging.ChannelRecord)}
}

func (l *fakeLedger) putChannel(record *messaging.ChannelRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.channels[record.ID] = record
}

func (l *fakeLedger) Channel(ctx context.Context, channelID string) (*messaging.ChannelRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ChannelCalls++

	record, ok := l.channels[channelID]
	if !ok {
		return nil, errors.New("channel not found")
	}
	return record, nil
}

func (l *fakeLedger) Message(ctx context.Context, messageID string) (*messaging.MessageRecord, error) {
	return nil, errors.New("message not found")
}

func (l *fakeLedger) Submit(ctx context.Context, tx messaging.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Submitted = append(l.Submitted, tx)
	return nil
}

func newDirectory(t *testing.T, ledger messaging.Ledger, clock clockwork.Clock) *messaging.Directory {
	t.Helper()

	channels, err := cache.New[*messaging.ChannelRecord](cache.Options{
		TTL:        10 * time.Second,
		MaxEntries: 8,
		Clock:      clock,
	})
	require.NoError(t, err)

	directory, err := messaging.NewDirectory(ledger, channels, testutils.Logger(t))
	require.NoError(t, err)
	return directory
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()

	record := &messaging.ChannelRecord{
		ID:          "chan-1",
		WrappedKeys: [][]byte{[]byte("wrapped-v1"), []byte("wrapped-v2")},
		Members:     []string{"alice", "bob"},
	}

	t.Run("CachesChannelReads", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.putChannel(record)
		clock := clockwork.NewFakeClock()
		directory := newDirectory(t, ledger, clock)

		for idx := 0; idx < 3; idx++ {
			got, err := directory.Channel(ctx, "chan-1")
			require.NoError(t, err)
			assert.Equal(t, record, got)
		}
		assert.Equal(t, 1, ledger.ChannelCalls)

		clock.Advance(11 * time.Second)

		_, err := directory.Channel(ctx, "chan-1")
		require.NoError(t, err)
		assert.Equal(t, 2, ledger.ChannelCalls)
	})

	t.Run("FailedReadIsNotCached", func(t *testing.T) {
		ledger := newFakeLedger()
		clock := clockwork.NewFakeClock()
		directory := newDirectory(t, ledger, clock)

		_, err := directory.Channel(ctx, "missing")
		require.Error(t, err)
		require.Equal(t, 1, ledger.ChannelCalls)

		// The miss was not memoized: the next read goes back to the ledger.
		ledger.putChannel(&messaging.ChannelRecord{ID: "missing"})
		_, err = directory.Channel(ctx, "missing")
		require.NoError(t, err)
		assert.Equal(t, 2, ledger.ChannelCalls)
	})

	t.Run("KeyHistory", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.putChannel(record)
		directory := newDirectory(t, ledger, clockwork.NewFakeClock())

		history, err := directory.KeyHistory(ctx, "chan-1")
		require.NoError(t, err)
		assert.Equal(t, uint64(2), history.LatestVersion())

		entry, err := history.WrappedKeyAt(1)
		require.NoError(t, err)
		assert.Equal(t, []byte("wrapped-v1"), entry)
	})

	t.Run("IsMember", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.putChannel(record)
		directory := newDirectory(t, ledger, clockwork.NewFakeClock())

		isMember, err := directory.IsMember(ctx, "chan-1", "alice")
		require.NoError(t, err)
		assert.True(t, isMember)

		isMember, err = directory.IsMember(ctx, "chan-1", "eve")
		require.NoError(t, err)
		assert.False(t, isMember)

		// Both lookups shared one cached ledger read.
		assert.Equal(t, 1, ledger.ChannelCalls)
	})

	t.Run("InvalidateForcesReload", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.putChannel(record)
		directory := newDirectory(t, ledger, clockwork.NewFakeClock())

		_, err := directory.Channel(ctx, "chan-1")
		require.NoError(t, err)

		directory.Invalidate()

		_, err = directory.Channel(ctx, "chan-1")
		require.NoError(t, err)
		assert.Equal(t, 2, ledger.ChannelCalls)
	})
}
