package stats

import (
	"file-vault-api/internal/domain/quota"
)

func ToResponseStats(s quota.Stats) Stats {
	return Stats{
		UserID:              s.Owner,
		TotalStorageUsed:    s.ActualBytes,
		OriginalStorageUsed: s.OriginalBytes,
		StorageSavings:      s.SavingsBytes,
		SavingsPercentage:   s.SavingsPercentage,
		QuotaBytes:          s.QuotaBytes,
		QuotaRemainingBytes: s.QuotaRemainingBytes,
	}
}
