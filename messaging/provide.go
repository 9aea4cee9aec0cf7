package messaging

import (
	"github.com/rs/zerolog"
	"github.com/samber/do"

	"github.com/cipherledger/channelcrypt/cache"
	"github.com/cipherledger/channelcrypt/config"
	"github.com/cipherledger/channelcrypt/envelope"
)

// Provide registers the Encryptor and Directory constructors along with
// their caches. BlobStore and Ledger are external collaborators the consumer
// provides (blob.Provide registers a local BlobStore).
func Provide(i *do.Injector) {
	provideKeyCache(i)
	provideChannelCache(i)
	provideEncryptor(i)
	provideDirectory(i)
}

func provideKeyCache(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*cache.Cache[envelope.PlainKey], error) {
		cfg, err := do.Invoke[config.Config](i)
		if err != nil {
			return nil, err
		}

		return cache.New[envelope.PlainKey](cache.Options{
			TTL:        cfg.KeyCache.TTL(),
			MaxEntries: cfg.KeyCache.MaxEntries,
		})
	})
}

func provideChannelCache(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*cache.Cache[*ChannelRecord], error) {
		cfg, err := do.Invoke[config.Config](i)
		if err != nil {
			return nil, err
		}

		return cache.New[*ChannelRecord](cache.Options{
			TTL:        cfg.ChannelCache.TTL(),
			MaxEntries: cfg.ChannelCache.MaxEntries,
		})
	})
}

func provideEncryptor(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Encryptor, error) {
		cfg, err := do.Invoke[config.Config](i)
		if err != nil {
			return nil, err
		}
		logger, err := do.Invoke[zerolog.Logger](i)
		if err != nil {
			return nil, err
		}
		crypto, err := do.Invoke[*envelope.Crypto](i)
		if err != nil {
			return nil, err
		}
		keys, err := do.Invoke[*cache.Cache[envelope.PlainKey]](i)
		if err != nil {
			return nil, err
		}
		blobs, err := do.Invoke[BlobStore](i)
		if err != nil {
			return nil, err
		}

		return NewEncryptor(crypto, keys, blobs, cfg.BlobStore.Timeout(), logger)
	})
}

func provideDirectory(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Directory, error) {
		logger, err := do.Invoke[zerolog.Logger](i)
		if err != nil {
			return nil, err
		}
		ledger, err := do.Invoke[Ledger](i)
		if err != nil {
			return nil, err
		}
		channels, err := do.Invoke[*cache.Cache[*ChannelRecord]](i)
		if err != nil {
			return nil, err
		}

		return NewDirectory(ledger, channels, logger)
	})
}
