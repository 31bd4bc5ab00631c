package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"file-vault-api/internal/application/ports"
)

// Resolution says how an upload maps onto stored content.
type Resolution struct {
	Fingerprint string
	Size        int64
	// NewObject is true when no content with this fingerprint existed.
	NewObject bool
	// NewForOwner is true when the owner held no record of this content.
	NewForOwner bool
}

func Fingerprint(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Resolve fingerprints data, takes the fingerprint lock for the rest of the
// unit, then counts one more reference on the content object and on the
// owner's holding. Must run inside Store.WithinTx.
func Resolve(ctx context.Context, repos ports.Repositories, owner string, data []byte) (*Resolution, error) {
	res := &Resolution{
		Fingerprint: Fingerprint(data),
		Size:        int64(len(data)),
	}

	if err := repos.Contents().Lock(ctx, res.Fingerprint); err != nil {
		return nil, err
	}

	_, created, err := repos.Contents().Acquire(ctx, res.Fingerprint, res.Size)
	if err != nil {
		return nil, err
	}
	res.NewObject = created

	first, err := repos.Quotas().Attach(ctx, owner, res.Fingerprint)
	if err != nil {
		return nil, err
	}
	res.NewForOwner = first

	return res, nil
}
