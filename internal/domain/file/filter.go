package file

import (
	"math"
	"time"
)

type OrderField string

const (
	OrderUploadedAt OrderField = "uploaded_at"
	OrderSize       OrderField = "size"
	OrderFilename   OrderField = "original_filename"
)

// Ordering sorts by Field, then by ID in the same direction.
type Ordering struct {
	Field OrderField
	Desc  bool
}

var DefaultOrdering = Ordering{Field: OrderUploadedAt, Desc: true}

// Filter fields are optional and compose conjunctively.
type Filter struct {
	Search    string
	FileType  string
	MinSize   *int64
	MaxSize   *int64
	StartDate *time.Time
	EndDate   *time.Time

	Ordering Ordering
	Page     int
	PageSize int
}

// Offset saturates at math.MaxInt instead of overflowing.
func (f Filter) Offset() int {
	if f.Page <= 1 || f.PageSize <= 0 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.PageSize {
		return math.MaxInt
	}
	return (f.Page - 1) * f.PageSize
}

type Page struct {
	Files    Files
	Count    int64
	Page     int
	PageSize int
}
