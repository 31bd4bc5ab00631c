package content

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"file-vault-api/internal/domain/content"
	"file-vault-api/internal/infrastructure/db/postgres"
)

type Repository struct {
	db postgres.Querier
}

func NewRepository(db postgres.Querier) content.Repository {
	return &Repository{db: db}
}

func (r *Repository) Lock(ctx context.Context, fingerprint string) error {
	_, err := r.db.Exec(ctx, LockFingerprint, fingerprint)
	return err
}

// Acquire relies on the caller holding Lock: a count of 1 after the upsert
// can only come from the insert branch.
func (r *Repository) Acquire(ctx context.Context, fingerprint string, size int64) (*content.Object, bool, error) {
	o := new(Object)
	err := r.db.QueryRow(ctx, UpsertObject, fingerprint, size).Scan(
		&o.Fingerprint,
		&o.ByteSize,
		&o.ReferenceCount,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, false, err
	}

	return fromDBModel(o), o.ReferenceCount == 1, nil
}

func (r *Repository) Release(ctx context.Context, fingerprint string) (int64, error) {
	var remaining int64
	if err := r.db.QueryRow(ctx, DecrementObject, fingerprint).Scan(&remaining); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, content.ErrNotFound
		}
		if postgres.IsPgCheckViolation(err) {
			return 0, content.ErrNotFound
		}
		return 0, err
	}

	if remaining == 0 {
		if _, err := r.db.Exec(ctx, DeleteUnreferencedObject, fingerprint); err != nil {
			return 0, err
		}
	}

	return remaining, nil
}

func (r *Repository) FetchObject(ctx context.Context, fingerprint string) (*content.Object, error) {
	o := new(Object)
	err := r.db.QueryRow(ctx, SelectObject, fingerprint).Scan(
		&o.Fingerprint,
		&o.ByteSize,
		&o.ReferenceCount,
		&o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, content.ErrNotFound
		}
		return nil, err
	}

	return fromDBModel(o), nil
}
