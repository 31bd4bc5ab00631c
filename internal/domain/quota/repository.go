package quota

import (
	"context"
	"errors"
)

var (
	ErrQuotaExceeded   = errors.New("storage quota exceeded")
	ErrHoldingNotFound = errors.New("owner does not hold content")
)

type Repository interface {
	// Charge adds both deltas in one step, or fails with ErrQuotaExceeded
	// when ActualBytes would pass ceiling.
	Charge(ctx context.Context, owner string, originalDelta, actualDelta, ceiling int64) (*Usage, error)
	Credit(ctx context.Context, owner string, originalDelta, actualDelta int64) (*Usage, error)
	// FetchUsage returns a zero Usage for owners without uploads.
	FetchUsage(ctx context.Context, owner string) (*Usage, error)

	// Attach records one more owner record on fingerprint; first is true
	// when the owner did not hold it before.
	Attach(ctx context.Context, owner, fingerprint string) (first bool, err error)
	// Detach is the inverse; last is true when the owner no longer holds it.
	Detach(ctx context.Context, owner, fingerprint string) (last bool, err error)
}
