package stats

type Stats struct {
	UserID              string  `json:"user_id"`
	TotalStorageUsed    int64   `json:"total_storage_used"`
	OriginalStorageUsed int64   `json:"original_storage_used"`
	StorageSavings      int64   `json:"storage_savings"`
	SavingsPercentage   float64 `json:"savings_percentage"`
	QuotaBytes          int64   `json:"quota_bytes"`
	QuotaRemainingBytes int64   `json:"quota_remaining_bytes"`
}
