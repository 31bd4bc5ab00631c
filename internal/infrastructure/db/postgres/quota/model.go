package quota

import "time"

type Usage struct {
	Owner         string
	OriginalBytes int64
	ActualBytes   int64
	UpdatedAt     time.Time
}
