package envelope

import (
	"github.com/rs/zerolog"
	"github.com/samber/do"

	"github.com/cipherledger/channelcrypt/config"
)

// Provide registers the Crypto constructor. The KeyWrappingService itself is
// an external collaborator and must be provided by the consumer (or a test
// fake) before Crypto is invoked.
func Provide(i *do.Injector) {
	provideCrypto(i)
}

func provideCrypto(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Crypto, error) {
		cfg, err := do.Invoke[config.Config](i)
		if err != nil {
			return nil, err
		}
		logger, err := do.Invoke[zerolog.Logger](i)
		if err != nil {
			return nil, err
		}
		kms, err := do.Invoke[KeyWrappingService](i)
		if err != nil {
			return nil, err
		}

		return NewCrypto(kms, Algorithm(cfg.Encryption.Algorithm), cfg.KeyService.Timeout(), logger)
	})
}
