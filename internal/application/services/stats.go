package services

import (
	"context"
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"file-vault-api/internal/application/ports"
	"file-vault-api/internal/domain/quota"
)

type StatsService struct {
	store    ports.Store
	ledger   *QuotaLedger
	mCounter *prometheus.CounterVec
}

func NewStatsService(store ports.Store, ledger *QuotaLedger, mCounter *prometheus.CounterVec) ports.StatsService {
	return &StatsService{
		store:    store,
		ledger:   ledger,
		mCounter: mCounter,
	}
}

func (ss *StatsService) StatsFor(ctx context.Context, owner string) (*quota.Stats, error) {
	u, err := ss.ledger.Usage(ctx, ss.store, owner)
	if err != nil {
		return nil, err
	}

	ss.mCounter.WithLabelValues("stats_served_total").Inc()

	return buildStats(u, ss.ledger.Ceiling()), nil
}

func buildStats(u *quota.Usage, ceiling int64) *quota.Stats {
	savings := max(u.OriginalBytes-u.ActualBytes, 0)

	var pct float64
	if u.OriginalBytes > 0 {
		pct = math.Round(float64(savings)/float64(u.OriginalBytes)*100*100) / 100
	}

	return &quota.Stats{
		Owner:               u.Owner,
		OriginalBytes:       u.OriginalBytes,
		ActualBytes:         u.ActualBytes,
		SavingsBytes:        savings,
		SavingsPercentage:   pct,
		QuotaBytes:          ceiling,
		QuotaRemainingBytes: max(ceiling-u.ActualBytes, 0),
	}
}
