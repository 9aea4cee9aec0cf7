package cache

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration indicates that a Cache was constructed with a
// non-positive TTL or capacity.
var ErrInvalidConfiguration = errors.New("invalid cache configuration")

func invalidConfigurationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
