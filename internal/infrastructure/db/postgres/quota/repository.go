package quota

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"file-vault-api/internal/domain/quota"
	"file-vault-api/internal/infrastructure/db/postgres"
)

type Repository struct {
	db postgres.Querier
}

func NewRepository(db postgres.Querier) quota.Repository {
	return &Repository{db: db}
}

func (r *Repository) Charge(ctx context.Context, owner string, originalDelta, actualDelta, ceiling int64) (*quota.Usage, error) {
	u := new(Usage)
	err := r.db.QueryRow(ctx, ChargeUsage, owner, originalDelta, actualDelta, ceiling).Scan(
		&u.Owner,
		&u.OriginalBytes,
		&u.ActualBytes,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, quota.ErrQuotaExceeded
		}
		return nil, err
	}

	return fromDBModel(u), nil
}

func (r *Repository) Credit(ctx context.Context, owner string, originalDelta, actualDelta int64) (*quota.Usage, error) {
	u := new(Usage)
	err := r.db.QueryRow(ctx, CreditUsage, owner, originalDelta, actualDelta).Scan(
		&u.Owner,
		&u.OriginalBytes,
		&u.ActualBytes,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &quota.Usage{Owner: owner}, nil
		}
		return nil, err
	}

	return fromDBModel(u), nil
}

func (r *Repository) FetchUsage(ctx context.Context, owner string) (*quota.Usage, error) {
	u := new(Usage)
	err := r.db.QueryRow(ctx, SelectUsage, owner).Scan(
		&u.Owner,
		&u.OriginalBytes,
		&u.ActualBytes,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &quota.Usage{Owner: owner}, nil
		}
		return nil, err
	}

	return fromDBModel(u), nil
}

func (r *Repository) Attach(ctx context.Context, owner, fingerprint string) (bool, error) {
	var count int64
	if err := r.db.QueryRow(ctx, AttachHolding, owner, fingerprint).Scan(&count); err != nil {
		return false, err
	}

	return count == 1, nil
}

func (r *Repository) Detach(ctx context.Context, owner, fingerprint string) (bool, error) {
	var count int64
	if err := r.db.QueryRow(ctx, DetachHolding, owner, fingerprint).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, quota.ErrHoldingNotFound
		}
		return false, err
	}

	if count == 0 {
		if _, err := r.db.Exec(ctx, DeleteEmptyHolding, owner, fingerprint); err != nil {
			return false, err
		}
	}

	return count == 0, nil
}
