package memory

import (
	"context"

	"file-vault-api/internal/domain/quota"
)

type quotaRepo struct{ view }

// lockOwner serialises ledger changes of one owner until the unit ends, so
// a charge is checked against committed usage plus this unit's own writes.
func (r *quotaRepo) lockOwner(ctx context.Context, owner string) error {
	return r.lock(ctx, "owner/"+owner)
}

func (r *quotaRepo) Charge(ctx context.Context, owner string, originalDelta, actualDelta, ceiling int64) (*quota.Usage, error) {
	if err := r.lockOwner(ctx, owner); err != nil {
		return nil, err
	}

	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, _ := r.usageOf(owner)
	if u.ActualBytes+actualDelta > ceiling {
		return nil, quota.ErrQuotaExceeded
	}
	u.OriginalBytes += originalDelta
	u.ActualBytes += actualDelta
	u.UpdatedAt = s.now()
	r.putUsage(u)

	cp := *u
	return &cp, nil
}

// Credit never takes a counter below zero.
func (r *quotaRepo) Credit(ctx context.Context, owner string, originalDelta, actualDelta int64) (*quota.Usage, error) {
	if err := r.lockOwner(ctx, owner); err != nil {
		return nil, err
	}

	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := r.usageOf(owner)
	if !ok {
		return u, nil
	}
	u.OriginalBytes -= min(originalDelta, u.OriginalBytes)
	u.ActualBytes -= min(actualDelta, u.ActualBytes)
	u.UpdatedAt = s.now()
	r.putUsage(u)

	cp := *u
	return &cp, nil
}

func (r *quotaRepo) FetchUsage(_ context.Context, owner string) (*quota.Usage, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, _ := r.usageOf(owner)
	return u, nil
}

func (r *quotaRepo) Attach(ctx context.Context, owner, fingerprint string) (bool, error) {
	if err := r.lockOwner(ctx, owner); err != nil {
		return false, err
	}

	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	k := holdingKey{owner: owner, fingerprint: fingerprint}
	n := r.holding(k) + 1
	r.setHolding(k, n)

	return n == 1, nil
}

func (r *quotaRepo) Detach(ctx context.Context, owner, fingerprint string) (bool, error) {
	if err := r.lockOwner(ctx, owner); err != nil {
		return false, err
	}

	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	k := holdingKey{owner: owner, fingerprint: fingerprint}
	n := r.holding(k)
	if n <= 0 {
		return false, quota.ErrHoldingNotFound
	}
	r.setHolding(k, n-1)

	return n == 1, nil
}
