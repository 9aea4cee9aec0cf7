// Package blob provides a filesystem-backed blob store for local
// development and tests. Production deployments point the messaging layer
// at a remote store instead; the interface is the same.
package blob

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const payloadPerm = 0o600

// LocalStore stores payloads as individual files named by a generated ref.
type LocalStore struct {
	fs  afero.Fs
	dir string
}

// NewLocalStore returns a LocalStore rooted at dir, creating it if needed.
func NewLocalStore(fs afero.Fs, dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("blob directory is required")
	}
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create blob directory %q: %w", dir, err)
	}

	return &LocalStore{fs: fs, dir: dir}, nil
}

// Upload writes each payload under a fresh ref and returns the refs in
// order.
func (s *LocalStore) Upload(ctx context.Context, payloads [][]byte) ([]string, error) {
	refs := make([]string, len(payloads))
	for idx, payload := range payloads {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ref := uuid.NewString()
		if err := afero.WriteFile(s.fs, s.path(ref), payload, payloadPerm); err != nil {
			return nil, fmt.Errorf("failed to write blob %q: %w", ref, err)
		}
		refs[idx] = ref
	}
	return refs, nil
}

// Download reads the payloads for the given refs, in order.
func (s *LocalStore) Download(ctx context.Context, refs []string) ([][]byte, error) {
	payloads := make([][]byte, len(refs))
	for idx, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		payload, err := afero.ReadFile(s.fs, s.path(ref))
		if err != nil {
			return nil, fmt.Errorf("failed to read blob %q: %w", ref, err)
		}
		payloads[idx] = payload
	}
	return payloads, nil
}

func (s *LocalStore) path(ref string) string {
	return filepath.Join(s.dir, ref)
}
