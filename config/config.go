// Package config defines the library's configuration surface: logging,
// cipher selection, cache bounds, and external-service timeouts. Values are
// merged from defaults, config files, environment variables, and flags.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type Logging struct {
	Level  string `koanf:"level" json:"level,omitempty"`
	Pretty bool   `koanf:"pretty" json:"pretty,omitempty"`
}

func (l Logging) validate() []error {
	var errs []error
	if _, err := zerolog.ParseLevel(l.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: invalid log level %q: %w", l.Level, err))
	}
	return errs
}

var loggingDefault = Logging{
	Level: "info",
}

// Algorithm names accepted by the encryption section. Kept in sync with the
// envelope package's AEAD selection.
const (
	AlgorithmAES256GCM        = "aes-256-gcm"
	AlgorithmChaCha20Poly1305 = "chacha20-poly1305"
)

type Encryption struct {
	Algorithm string `koanf:"algorithm" json:"algorithm,omitempty"`
}

func (e Encryption) validate() []error {
	var errs []error
	switch e.Algorithm {
	case AlgorithmAES256GCM, AlgorithmChaCha20Poly1305:
	default:
		errs = append(errs, fmt.Errorf("encryption.algorithm: unknown algorithm %q", e.Algorithm))
	}
	return errs
}

var encryptionDefault = Encryption{
	Algorithm: AlgorithmAES256GCM,
}

// CacheSettings bounds one cache instance. TTL is in milliseconds to keep
// file and env representations unambiguous.
type CacheSettings struct {
	TTLMillis  int64 `koanf:"ttl_ms" json:"ttl_ms,omitempty"`
	MaxEntries int   `koanf:"max_entries" json:"max_entries,omitempty"`
}

// TTL returns the entry lifetime as a duration.
func (c CacheSettings) TTL() time.Duration {
	return time.Duration(c.TTLMillis) * time.Millisecond
}

func (c CacheSettings) validate(section string) []error {
	var errs []error
	if c.TTLMillis <= 0 {
		errs = append(errs, fmt.Errorf("%s.ttl_ms: must be positive, got %d", section, c.TTLMillis))
	}
	if c.MaxEntries <= 0 {
		errs = append(errs, fmt.Errorf("%s.max_entries: must be positive, got %d", section, c.MaxEntries))
	}
	return errs
}

// The key cache holds resolved key material, so its TTL stays short: long
// enough to absorb a message burst, no longer.
var keyCacheDefault = CacheSettings{
	TTLMillis:  30_000,
	MaxEntries: 1024,
}

var channelCacheDefault = CacheSettings{
	TTLMillis:  10_000,
	MaxEntries: 4096,
}

// Service bounds calls to one external collaborator.
type Service struct {
	TimeoutMillis int64 `koanf:"timeout_ms" json:"timeout_ms,omitempty"`
}

// Timeout returns the per-call bound as a duration.
func (s Service) Timeout() time.Duration {
	return time.Duration(s.TimeoutMillis) * time.Millisecond
}

func (s Service) validate(section string) []error {
	var errs []error
	if s.TimeoutMillis < 0 {
		errs = append(errs, fmt.Errorf("%s.timeout_ms: cannot be negative, got %d", section, s.TimeoutMillis))
	}
	return errs
}

var keyServiceDefault = Service{
	TimeoutMillis: 5_000,
}

type BlobStore struct {
	TimeoutMillis int64  `koanf:"timeout_ms" json:"timeout_ms,omitempty"`
	Dir           string `koanf:"dir" json:"dir,omitempty"`
}

// Timeout returns the per-call bound as a duration.
func (b BlobStore) Timeout() time.Duration {
	return time.Duration(b.TimeoutMillis) * time.Millisecond
}

func (b BlobStore) validate(section string) []error {
	var errs []error
	if b.TimeoutMillis < 0 {
		errs = append(errs, fmt.Errorf("%s.timeout_ms: cannot be negative, got %d", section, b.TimeoutMillis))
	}
	return errs
}

var blobStoreDefault = BlobStore{
	TimeoutMillis: 30_000,
}

type Config struct {
	Logging      Logging       `koanf:"logging" json:"logging,omitempty"`
	Encryption   Encryption    `koanf:"encryption" json:"encryption,omitempty"`
	KeyCache     CacheSettings `koanf:"key_cache" json:"key_cache,omitempty"`
	ChannelCache CacheSettings `koanf:"channel_cache" json:"channel_cache,omitempty"`
	KeyService   Service       `koanf:"key_service" json:"key_service,omitempty"`
	BlobStore    BlobStore     `koanf:"blob_store" json:"blob_store,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() (Config, error) {
	return Config{
		Logging:      loggingDefault,
		Encryption:   encryptionDefault,
		KeyCache:     keyCacheDefault,
		ChannelCache: channelCacheDefault,
		KeyService:   keyServiceDefault,
		BlobStore:    blobStoreDefault,
	}, nil
}

// Validate checks every section and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	errs = append(errs, c.Logging.validate()...)
	errs = append(errs, c.Encryption.validate()...)
	errs = append(errs, c.KeyCache.validate("key_cache")...)
	errs = append(errs, c.ChannelCache.validate("channel_cache")...)
	errs = append(errs, c.KeyService.validate("key_service")...)
	errs = append(errs, c.BlobStore.validate("blob_store")...)
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
