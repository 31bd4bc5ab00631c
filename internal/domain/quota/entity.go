package quota

import "time"

type Usage struct {
	Owner         string
	OriginalBytes int64
	ActualBytes   int64
	UpdatedAt     time.Time
}

type Stats struct {
	Owner               string
	OriginalBytes       int64
	ActualBytes         int64
	SavingsBytes        int64
	SavingsPercentage   float64
	QuotaBytes          int64
	QuotaRemainingBytes int64
}
