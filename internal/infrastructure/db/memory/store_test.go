package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"file-vault-api/internal/application/ports"
	"file-vault-api/internal/domain/content"
	"file-vault-api/internal/domain/file"
	"file-vault-api/internal/domain/quota"
)

func ptr[T any](v T) *T { return &v }

func seed(t *testing.T, s *Store, owner, name, typ string, size int64, at time.Time) *file.File {
	t.Helper()
	f, err := s.Files().CreateFile(context.Background(), &file.File{
		ID:               uuid.New(),
		Owner:            owner,
		OriginalFilename: name,
		FileType:         typ,
		Size:             size,
		Fingerprint:      name,
		UploadedAt:       at,
	})
	require.NoError(t, err)
	return f
}

func TestStore_WithinTx_RollsBackEveryWrite(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		require.NoError(t, repos.Contents().Lock(ctx, "fp"))
		_, created, err := repos.Contents().Acquire(ctx, "fp", 10)
		require.NoError(t, err)
		require.True(t, created)

		first, err := repos.Quotas().Attach(ctx, "u1", "fp")
		require.NoError(t, err)
		require.True(t, first)

		_, err = repos.Quotas().Charge(ctx, "u1", 10, 10, 100)
		require.NoError(t, err)

		_, err = repos.Files().CreateFile(ctx, &file.File{ID: uuid.New(), Owner: "u1", Fingerprint: "fp", Size: 10})
		require.NoError(t, err)

		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Contents().FetchObject(ctx, "fp")
	assert.ErrorIs(t, err, content.ErrNotFound)

	u, err := s.Quotas().FetchUsage(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, u.OriginalBytes)
	assert.Zero(t, u.ActualBytes)

	n, err := s.Files().CountByFingerprint(ctx, "u1", "fp")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, s.holdings)
	assert.Empty(t, s.locks.entries, "locks released")
}

func TestStore_WithinTx_CancelledContextDoesNotCommit(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())

	err := s.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		_, _, err := repos.Contents().Acquire(ctx, "fp", 1)
		cancel()
		return err
	})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.Contents().FetchObject(context.Background(), "fp")
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func TestStore_WithinTx_StagesUntilCommit(t *testing.T) {
	ctx := context.Background()
	s := New()
	f := seed(t, s, "u1", "a.txt", "text/plain", 100, time.Now())
	_, _, err := s.Contents().Acquire(ctx, f.Fingerprint, 100)
	require.NoError(t, err)
	_, err = s.Quotas().Attach(ctx, "u1", f.Fingerprint)
	require.NoError(t, err)
	_, err = s.Quotas().Charge(ctx, "u1", 100, 100, 100)
	require.NoError(t, err)

	deleteCtx, cancel := context.WithCancel(ctx)
	entered := make(chan struct{})
	deleteErr := make(chan error, 1)
	go func() {
		deleteErr <- s.WithinTx(deleteCtx, func(ctx context.Context, repos ports.Repositories) error {
			if err := repos.Contents().Lock(ctx, f.Fingerprint); err != nil {
				return err
			}
			if _, err := repos.Files().DeleteFile(ctx, "u1", f.ID); err != nil {
				return err
			}
			if _, err := repos.Quotas().Detach(ctx, "u1", f.Fingerprint); err != nil {
				return err
			}
			u, err := repos.Quotas().Credit(ctx, "u1", 100, 100)
			if err != nil {
				return err
			}
			if u.ActualBytes != 0 {
				return errors.New("unit does not see its own credit")
			}
			if _, err := repos.Contents().Release(ctx, f.Fingerprint); err != nil {
				return err
			}
			close(entered)
			<-ctx.Done()
			return nil
		})
	}()
	<-entered

	u, err := s.Quotas().FetchUsage(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), u.ActualBytes)
	got, err := s.Files().FetchFile(ctx, "u1", f.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ReferenceCount)
	obj, err := s.Contents().FetchObject(ctx, f.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, int64(1), obj.ReferenceCount)

	// a charge of the same owner waits for the delete and sees only what it commits
	chargeErr := make(chan error, 1)
	go func() {
		chargeErr <- s.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
			_, err := repos.Quotas().Charge(ctx, "u1", 50, 50, 100)
			return err
		})
	}()
	select {
	case err := <-chargeErr:
		t.Fatalf("charge finished while the delete was in flight: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	assert.ErrorIs(t, <-deleteErr, context.Canceled)
	assert.ErrorIs(t, <-chargeErr, quota.ErrQuotaExceeded)

	u, err = s.Quotas().FetchUsage(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), u.ActualBytes)
	_, err = s.Files().FetchFile(ctx, "u1", f.ID)
	require.NoError(t, err)
	assert.Empty(t, s.locks.entries, "locks released")
}

func TestStore_WithinTx_CommitsStagedWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := uuid.New()

	err := s.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if _, _, err := repos.Contents().Acquire(ctx, "fp", 10); err != nil {
			return err
		}
		if _, err := repos.Quotas().Attach(ctx, "u1", "fp"); err != nil {
			return err
		}
		if _, err := repos.Files().CreateFile(ctx, &file.File{ID: id, Owner: "u1", Fingerprint: "fp", Size: 10, FileType: "text/plain"}); err != nil {
			return err
		}

		// the unit reads its own writes
		page, err := repos.Files().FetchFiles(ctx, "u1", file.Filter{})
		if err != nil {
			return err
		}
		if page.Count != 1 || page.Files[0].ReferenceCount != 1 {
			return errors.New("staged file not visible to its unit")
		}
		_, err = repos.Quotas().Charge(ctx, "u1", 10, 10, 100)
		return err
	})
	require.NoError(t, err)

	got, err := s.Files().FetchFile(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ReferenceCount)
	obj, err := s.Contents().FetchObject(ctx, "fp")
	require.NoError(t, err)
	assert.Equal(t, int64(1), obj.ReferenceCount)
	u, err := s.Quotas().FetchUsage(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), u.ActualBytes)
	types, err := s.Files().FetchFileTypes(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"text/plain"}, types)
}

func TestFiles_FetchFiles_PageBeyondRange(t *testing.T) {
	s := New()
	seed(t, s, "u1", "a", "text/plain", 1, time.Now())

	page, err := s.Files().FetchFiles(context.Background(), "u1", file.Filter{Page: 1<<58 + 1, PageSize: 50})
	require.NoError(t, err)
	assert.Empty(t, page.Files)
	assert.Equal(t, int64(1), page.Count)
}

func TestStore_ReleaseRemovesAtZero(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, _, err := s.Contents().Acquire(ctx, "fp", 3)
	require.NoError(t, err)
	obj, created, err := s.Contents().Acquire(ctx, "fp", 3)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(2), obj.ReferenceCount)

	remaining, err := s.Contents().Release(ctx, "fp")
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining)

	remaining, err = s.Contents().Release(ctx, "fp")
	require.NoError(t, err)
	assert.Zero(t, remaining)

	_, err = s.Contents().Release(ctx, "fp")
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func TestStore_ChargeCeilingAndCreditFloor(t *testing.T) {
	ctx := context.Background()
	q := New().Quotas()

	_, err := q.Charge(ctx, "u1", 10, 10, 10)
	require.NoError(t, err, "exactly at the ceiling is allowed")

	_, err = q.Charge(ctx, "u1", 1, 1, 10)
	assert.ErrorIs(t, err, quota.ErrQuotaExceeded)

	u, err := q.Charge(ctx, "u1", 5, 0, 10)
	require.NoError(t, err, "references cost no actual bytes")
	assert.Equal(t, int64(15), u.OriginalBytes)

	u, err = q.Credit(ctx, "u1", 100, 100)
	require.NoError(t, err)
	assert.Zero(t, u.OriginalBytes)
	assert.Zero(t, u.ActualBytes)
}

func TestStore_Holdings(t *testing.T) {
	ctx := context.Background()
	q := New().Quotas()

	first, _ := q.Attach(ctx, "u1", "fp")
	assert.True(t, first)
	first, _ = q.Attach(ctx, "u1", "fp")
	assert.False(t, first)
	first, _ = q.Attach(ctx, "u2", "fp")
	assert.True(t, first, "holdings are per owner")

	last, err := q.Detach(ctx, "u1", "fp")
	require.NoError(t, err)
	assert.False(t, last)
	last, err = q.Detach(ctx, "u1", "fp")
	require.NoError(t, err)
	assert.True(t, last)

	_, err = q.Detach(ctx, "u1", "fp")
	assert.ErrorIs(t, err, quota.ErrHoldingNotFound)
}

func TestFiles_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	s := New()
	f := seed(t, s, "u1", "a.txt", "text/plain", 1, time.Now())

	_, err := s.Files().FetchFile(ctx, "u2", f.ID)
	assert.ErrorIs(t, err, file.ErrNotFound)
	_, err = s.Files().DeleteFile(ctx, "u2", f.ID)
	assert.ErrorIs(t, err, file.ErrNotFound)

	got, err := s.Files().FetchFile(ctx, "u1", f.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", got.OriginalFilename)
}

func TestFiles_FetchFiles(t *testing.T) {
	ctx := context.Background()
	s := New()
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	report := seed(t, s, "u1", "Quarterly-REPORT.pdf", "application/pdf", 300, t0)
	photo := seed(t, s, "u1", "photo.png", "image/png", 100, t0.Add(time.Hour))
	notes := seed(t, s, "u1", "notes.txt", "text/plain", 200, t0.Add(2*time.Hour))
	seed(t, s, "u2", "report-of-u2.pdf", "application/pdf", 1, t0)

	ids := func(p *file.Page) []file.ID {
		out := make([]file.ID, 0, len(p.Files))
		for _, f := range p.Files {
			out = append(out, f.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter file.Filter
		want   []file.ID
	}{
		{"default newest first", file.Filter{Ordering: file.DefaultOrdering}, []file.ID{notes.ID, photo.ID, report.ID}},
		{"search is case-insensitive", file.Filter{Search: "report"}, []file.ID{report.ID}},
		{"file type exact ignoring case", file.Filter{FileType: "IMAGE/PNG"}, []file.ID{photo.ID}},
		{"size range inclusive", file.Filter{MinSize: ptr(int64(100)), MaxSize: ptr(int64(200)), Ordering: file.Ordering{Field: file.OrderSize}}, []file.ID{photo.ID, notes.ID}},
		{"date range inclusive", file.Filter{StartDate: ptr(t0.Add(time.Hour)), EndDate: ptr(t0.Add(time.Hour))}, []file.ID{photo.ID}},
		{"filters compose", file.Filter{Search: "o", MaxSize: ptr(int64(150))}, []file.ID{photo.ID}},
		{"by name descending", file.Filter{Ordering: file.Ordering{Field: file.OrderFilename, Desc: true}}, []file.ID{photo.ID, notes.ID, report.ID}},
		{"no match", file.Filter{Search: "zzz"}, []file.ID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.Files().FetchFiles(ctx, "u1", tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(page))
			assert.Equal(t, int64(len(tt.want)), page.Count)
		})
	}
}

func TestFiles_FetchFiles_Pagination(t *testing.T) {
	ctx := context.Background()
	s := New()
	t0 := time.Now().UTC()
	for i := 0; i < 5; i++ {
		seed(t, s, "u1", "f", "text/plain", int64(i), t0)
	}

	first, err := s.Files().FetchFiles(ctx, "u1", file.Filter{Ordering: file.DefaultOrdering, Page: 1, PageSize: 2})
	require.NoError(t, err)
	second, err := s.Files().FetchFiles(ctx, "u1", file.Filter{Ordering: file.DefaultOrdering, Page: 2, PageSize: 2})
	require.NoError(t, err)
	third, err := s.Files().FetchFiles(ctx, "u1", file.Filter{Ordering: file.DefaultOrdering, Page: 3, PageSize: 2})
	require.NoError(t, err)
	beyond, err := s.Files().FetchFiles(ctx, "u1", file.Filter{Ordering: file.DefaultOrdering, Page: 9, PageSize: 2})
	require.NoError(t, err)

	assert.Len(t, first.Files, 2)
	assert.Len(t, second.Files, 2)
	assert.Len(t, third.Files, 1)
	assert.Empty(t, beyond.Files)
	assert.Equal(t, int64(5), beyond.Count)

	// equal timestamps fall back to id order, so pages never overlap
	seen := map[file.ID]bool{}
	for _, p := range []*file.Page{first, second, third} {
		for _, f := range p.Files {
			assert.False(t, seen[f.ID])
			seen[f.ID] = true
		}
	}
	assert.Len(t, seen, 5)
}

func TestFiles_FetchFileTypes(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, "u1", "a", "text/plain", 1, time.Now())
	seed(t, s, "u1", "b", "image/png", 1, time.Now())
	seed(t, s, "u1", "c", "text/plain", 1, time.Now())

	types, err := s.Files().FetchFileTypes(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"image/png", "text/plain"}, types)

	types, err = s.Files().FetchFileTypes(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, types)
	assert.NotNil(t, types)
}
