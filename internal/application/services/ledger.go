package services

import (
	"context"

	"file-vault-api/internal/application/ports"
	"file-vault-api/internal/domain/quota"
)

// QuotaLedger applies the deployment quota ceiling to per-owner counters.
type QuotaLedger struct {
	ceiling int64
}

func NewQuotaLedger(ceiling int64) *QuotaLedger {
	return &QuotaLedger{ceiling: ceiling}
}

func (l *QuotaLedger) Ceiling() int64 { return l.ceiling }

// Charge fails with quota.ErrQuotaExceeded without touching the counters.
func (l *QuotaLedger) Charge(ctx context.Context, repos ports.Repositories, owner string, original, actual int64) (*quota.Usage, error) {
	if actual > l.ceiling {
		return nil, quota.ErrQuotaExceeded
	}
	return repos.Quotas().Charge(ctx, owner, original, actual, l.ceiling)
}

func (l *QuotaLedger) Credit(ctx context.Context, repos ports.Repositories, owner string, original, actual int64) (*quota.Usage, error) {
	return repos.Quotas().Credit(ctx, owner, original, actual)
}

func (l *QuotaLedger) Usage(ctx context.Context, repos ports.Repositories, owner string) (*quota.Usage, error) {
	return repos.Quotas().FetchUsage(ctx, owner)
}
