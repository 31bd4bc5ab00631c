package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"file-vault-api/internal/application/ports"
	"file-vault-api/internal/domain/content"
)

// ContentStore pairs content object rows with the blob bytes behind them.
type ContentStore struct {
	store  ports.Store
	blobs  ports.BlobStore
	logger *zap.Logger
}

func NewContentStore(store ports.Store, blobs ports.BlobStore, logger *zap.Logger) *ContentStore {
	return &ContentStore{store: store, blobs: blobs, logger: logger}
}

// Put writes bytes once per fingerprint. Call it with the fingerprint locked.
func (cs *ContentStore) Put(ctx context.Context, fingerprint string, data []byte) error {
	if err := cs.blobs.Put(ctx, fingerprint, data); err != nil {
		return fmt.Errorf("store blob: %w", err)
	}
	return nil
}

func (cs *ContentStore) Get(ctx context.Context, fingerprint string) ([]byte, error) {
	return cs.blobs.Get(ctx, fingerprint)
}

// Release drops one reference inside the caller's unit. At zero the row is
// gone; the bytes stay until Collect runs after commit.
func (cs *ContentStore) Release(ctx context.Context, repos ports.Repositories, fingerprint string) (int64, error) {
	return repos.Contents().Release(ctx, fingerprint)
}

// Collect removes the bytes of a released fingerprint unless an upload
// re-created the object in the meantime.
func (cs *ContentStore) Collect(ctx context.Context, fingerprint string) error {
	return cs.store.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if err := repos.Contents().Lock(ctx, fingerprint); err != nil {
			return err
		}

		_, err := repos.Contents().FetchObject(ctx, fingerprint)
		switch {
		case err == nil:
			cs.logger.Debug("content re-created, blob kept", zap.String("fingerprint", fingerprint))
			return nil
		case !errors.Is(err, content.ErrNotFound):
			return err
		}

		if err = cs.blobs.Delete(ctx, fingerprint); err != nil {
			return fmt.Errorf("delete blob: %w", err)
		}
		cs.logger.Debug("blob collected", zap.String("fingerprint", fingerprint))

		return nil
	})
}
