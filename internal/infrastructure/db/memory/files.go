package memory

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"file-vault-api/internal/domain/file"
)

type fileRepo struct{ view }

func (r *fileRepo) CreateFile(_ context.Context, f *file.File) (*file.File, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := r.file(f.ID); ok {
		return nil, fmt.Errorf("file %s already exists", f.ID)
	}
	cp := *f
	cp.ReferenceCount = 0
	r.putFile(&cp)

	return r.annotate(&cp), nil
}

func (r *fileRepo) FetchFile(_ context.Context, owner string, id file.ID) (*file.File, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := r.file(id)
	if !ok || f.Owner != owner {
		return nil, file.ErrNotFound
	}

	return r.annotate(f), nil
}

func (r *fileRepo) FetchFiles(_ context.Context, owner string, filter file.Filter) (*file.Page, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	m := newMatcher(filter)
	var fs file.Files
	r.eachFile(func(f *file.File) {
		if f.Owner == owner && m.match(f) {
			fs = append(fs, f)
		}
	})
	slices.SortFunc(fs, compareBy(filter.Ordering))

	page := &file.Page{
		Count:    int64(len(fs)),
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Files:    file.Files{},
	}
	lo, hi := 0, len(fs)
	if filter.PageSize > 0 {
		lo = max(0, min(filter.Offset(), len(fs)))
		hi = lo + min(filter.PageSize, len(fs)-lo)
	}
	for _, f := range fs[lo:hi] {
		page.Files = append(page.Files, r.annotate(f))
	}

	return page, nil
}

func (r *fileRepo) FetchFileTypes(_ context.Context, owner string) ([]string, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	types := []string{}
	r.eachFile(func(f *file.File) {
		if f.Owner == owner && !slices.Contains(types, f.FileType) {
			types = append(types, f.FileType)
		}
	})
	slices.Sort(types)

	return types, nil
}

func (r *fileRepo) CountByFingerprint(_ context.Context, owner, fingerprint string) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	r.eachFile(func(f *file.File) {
		if f.Owner == owner && f.Fingerprint == fingerprint {
			n++
		}
	})

	return n, nil
}

func (r *fileRepo) DeleteFile(_ context.Context, owner string, id file.ID) (*file.File, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := r.file(id)
	if !ok || f.Owner != owner {
		return nil, file.ErrNotFound
	}
	r.deleteFile(id)

	cp := *f
	return &cp, nil
}

type matcher struct {
	filter file.Filter
	search string
	caser  cases.Caser
}

func newMatcher(filter file.Filter) *matcher {
	m := &matcher{filter: filter, caser: cases.Fold()}
	m.search = m.caser.String(filter.Search)
	return m
}

func (m *matcher) match(f *file.File) bool {
	flt := m.filter
	if m.search != "" && !strings.Contains(m.caser.String(f.OriginalFilename), m.search) {
		return false
	}
	if flt.FileType != "" && !strings.EqualFold(f.FileType, flt.FileType) {
		return false
	}
	if flt.MinSize != nil && f.Size < *flt.MinSize {
		return false
	}
	if flt.MaxSize != nil && f.Size > *flt.MaxSize {
		return false
	}
	if flt.StartDate != nil && f.UploadedAt.Before(*flt.StartDate) {
		return false
	}
	if flt.EndDate != nil && f.UploadedAt.After(*flt.EndDate) {
		return false
	}
	return true
}

func compareBy(o file.Ordering) func(a, b *file.File) int {
	return func(a, b *file.File) int {
		var c int
		switch o.Field {
		case file.OrderSize:
			c = cmp.Compare(a.Size, b.Size)
		case file.OrderFilename:
			c = strings.Compare(a.OriginalFilename, b.OriginalFilename)
		default:
			c = a.UploadedAt.Compare(b.UploadedAt)
		}
		if c == 0 {
			c = bytes.Compare(a.ID[:], b.ID[:])
		}
		if o.Desc {
			return -c
		}
		return c
	}
}
