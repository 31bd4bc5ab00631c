package content

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("content object not found")

type Repository interface {
	// Lock serialises work on one fingerprint until the surrounding
	// transaction ends.
	Lock(ctx context.Context, fingerprint string) error
	// Acquire adds a reference, creating the object with count 1 when absent.
	Acquire(ctx context.Context, fingerprint string, size int64) (obj *Object, created bool, err error)
	// Release drops a reference and removes the object once the count is 0.
	Release(ctx context.Context, fingerprint string) (remaining int64, err error)
	FetchObject(ctx context.Context, fingerprint string) (*Object, error)
}
