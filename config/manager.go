package config

import (
	"fmt"

	"github.com/knadh/koanf/v2"
)

// Manager merges configuration sources over the defaults and validates the
// result.
type Manager struct {
	sources []*Source
	config  Config
}

func NewManager(sources ...*Source) *Manager {
	return &Manager{
		sources: sources,
	}
}

// Config returns the most recently loaded configuration.
func (m *Manager) Config() Config {
	return m.config
}

// Load builds the effective configuration: defaults first, then each source
// in order, later sources winning.
func (m *Manager) Load() error {
	defaults, err := DefaultConfig()
	if err != nil {
		return err
	}

	combined := koanf.New(".")
	if err := LoadStruct(combined, defaults); err != nil {
		return fmt.Errorf("failed to load defaults: %w", err)
	}

	for _, source := range m.sources {
		err := combined.Load(source.Provider(combined), source.Parser, source.Options...)
		if err != nil {
			return fmt.Errorf("failed to load config source: %w", err)
		}
	}

	var config Config
	if err := combined.Unmarshal("", &config); err != nil {
		return fmt.Errorf("failed to unmarshal combined config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return err
	}

	m.config = config
	return nil
}
