package validator

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"file-vault-api/internal/domain/file"
)

var orderFields = map[string]file.OrderField{
	string(file.OrderUploadedAt): file.OrderUploadedAt,
	string(file.OrderSize):       file.OrderSize,
	string(file.OrderFilename):   file.OrderFilename,
}

// MaxPage bounds the page number a listing accepts.
const MaxPage = math.MaxInt32

func ValidatePage(page string) (int, error) {
	if page == "" {
		return 1, nil
	}
	p, err := strconv.Atoi(page)
	if err != nil || p < 1 || p > MaxPage {
		return 0, errors.New("invalid page")
	}

	return p, nil
}

// ValidatePageSize returns 0 when absent so the service default applies.
func ValidatePageSize(size string) (int, error) {
	if size == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(size)
	if err != nil || n < 1 {
		return 0, errors.New("invalid page_size")
	}

	return n, nil
}

func IsUUID(s string) (bool, uuid.UUID) {
	id, err := uuid.Parse(s)
	return err == nil, id
}

// ParseOrdering accepts a field name with an optional "-" for descending.
func ParseOrdering(s string) (file.Ordering, error) {
	if s == "" {
		return file.DefaultOrdering, nil
	}

	desc := strings.HasPrefix(s, "-")
	field, ok := orderFields[strings.TrimPrefix(s, "-")]
	if !ok {
		return file.Ordering{}, fmt.Errorf("invalid ordering %q", s)
	}

	return file.Ordering{Field: field, Desc: desc}, nil
}

// ParseFilter reads the listing query. The returned map holds one message per
// bad parameter and is nil when everything parsed.
func ParseFilter(q url.Values) (file.Filter, map[string]string) {
	errs := make(map[string]string)
	f := file.Filter{
		Search:   strings.TrimSpace(q.Get("search")),
		FileType: strings.TrimSpace(q.Get("file_type")),
	}

	var err error
	if f.Page, err = ValidatePage(q.Get("page")); err != nil {
		errs["page"] = err.Error()
	}
	if f.PageSize, err = ValidatePageSize(q.Get("page_size")); err != nil {
		errs["page_size"] = err.Error()
	}
	if f.Ordering, err = ParseOrdering(q.Get("ordering")); err != nil {
		errs["ordering"] = err.Error()
	}

	if f.MinSize, err = parseSize(q.Get("min_size")); err != nil {
		errs["min_size"] = err.Error()
	}
	if f.MaxSize, err = parseSize(q.Get("max_size")); err != nil {
		errs["max_size"] = err.Error()
	}
	if f.MinSize != nil && f.MaxSize != nil && *f.MinSize > *f.MaxSize {
		errs["min_size"] = "min_size must not exceed max_size"
	}

	if f.StartDate, err = parseDate(q.Get("start_date")); err != nil {
		errs["start_date"] = err.Error()
	}
	if f.EndDate, err = parseDate(q.Get("end_date")); err != nil {
		errs["end_date"] = err.Error()
	}
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		errs["start_date"] = "start_date must not be after end_date"
	}

	if len(errs) == 0 {
		return f, nil
	}

	return f, errs
}

func parseSize(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return nil, errors.New("must be a non-negative integer")
	}

	return &n, nil
}

// parseDate accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return &t, nil
	}

	return nil, errors.New("must be RFC3339 or YYYY-MM-DD")
}
