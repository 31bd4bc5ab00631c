package ports

import "context"

// BlobStore keeps raw bytes keyed by content fingerprint.
// Get returns content.ErrNotFound for unknown fingerprints.
type BlobStore interface {
	Put(ctx context.Context, fingerprint string, data []byte) error
	Get(ctx context.Context, fingerprint string) ([]byte, error)
	Exists(ctx context.Context, fingerprint string) (bool, error)
	Delete(ctx context.Context, fingerprint string) error
}
