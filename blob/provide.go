package blob

import (
	"github.com/samber/do"
	"github.com/spf13/afero"

	"github.com/cipherledger/channelcrypt/config"
	"github.com/cipherledger/channelcrypt/messaging"
)

// Provide registers the local filesystem store as the BlobStore. Deployments
// with a remote store override this binding.
func Provide(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (messaging.BlobStore, error) {
		cfg, err := do.Invoke[config.Config](i)
		if err != nil {
			return nil, err
		}

		return NewLocalStore(afero.NewOsFs(), cfg.BlobStore.Dir)
	})
}
