package file

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"file-vault-api/internal/domain/file"
)

var columns = []string{
	"id", "owner", "original_filename", "file_type", "size", "fingerprint", "is_reference", "uploaded_at", "reference_count",
}

func ptr[T any](v T) *T { return &v }

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestRepository_CreateFile(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := &file.File{
		ID:               uuid.New(),
		Owner:            "u1",
		OriginalFilename: "a.txt",
		FileType:         "text/plain",
		Size:             3,
		Fingerprint:      "fp",
		IsReference:      true,
		UploadedAt:       now,
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO files")).
		WithArgs(in.ID, in.Owner, in.OriginalFilename, in.FileType, in.Size, in.Fingerprint, in.IsReference, in.UploadedAt).
		WillReturnRows(mock.NewRows(columns).
			AddRow(in.ID, in.Owner, in.OriginalFilename, in.FileType, in.Size, in.Fingerprint, in.IsReference, now, ptr(int64(2))))

	got, err := repo.CreateFile(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in.ID, got.ID)
	assert.True(t, got.IsReference)
	assert.Equal(t, int64(2), got.ReferenceCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateFile_Duplicate(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)
	in := &file.File{ID: uuid.New(), Owner: "u1"}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO files")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.CreateFile(context.Background(), in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRepository_FetchFile(t *testing.T) {
	id := uuid.New()
	now := time.Now().UTC()

	tests := []struct {
		name    string
		setup   func(m pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "found",
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery(regexp.QuoteMeta("WHERE f.owner = $1 AND f.id = $2")).
					WithArgs("u1", id).
					WillReturnRows(m.NewRows(columns).
						AddRow(id, "u1", "a.txt", "text/plain", int64(3), "fp", false, now, ptr(int64(1))))
			},
		},
		{
			name: "other owner or missing",
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery(regexp.QuoteMeta("WHERE f.owner = $1 AND f.id = $2")).
					WithArgs("u1", id).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: file.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setup(mock)

			got, err := NewRepository(mock).FetchFile(context.Background(), "u1", id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, got.ID)
			assert.Equal(t, int64(1), got.ReferenceCount)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_FetchFiles_Filters(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	flt := file.Filter{
		Search:    "50%_off",
		FileType:  "TEXT/PLAIN",
		MinSize:   ptr(int64(1)),
		MaxSize:   ptr(int64(100)),
		StartDate: &start,
		EndDate:   &end,
		Ordering:  file.Ordering{Field: file.OrderSize},
		Page:      2,
		PageSize:  10,
	}
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*)")).
		WithArgs("u1", `50\%\_off`, "TEXT/PLAIN", int64(1), int64(100), start, end).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(int64(11)))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY f.size ASC, f.id ASC")+`\s+`+regexp.QuoteMeta("LIMIT $8 OFFSET $9")).
		WithArgs("u1", `50\%\_off`, "TEXT/PLAIN", int64(1), int64(100), start, end, 10, 10).
		WillReturnRows(mock.NewRows(columns).
			AddRow(id, "u1", "50%_off.txt", "text/plain", int64(42), "fp", false, start, ptr(int64(1))))

	page, err := repo.FetchFiles(context.Background(), "u1", flt)
	require.NoError(t, err)
	assert.Equal(t, int64(11), page.Count)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.PageSize)
	require.Len(t, page.Files, 1)
	assert.Equal(t, id, page.Files[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FetchFiles_DefaultOrderingAndEmpty(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*)")).
		WithArgs("u1").
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY f.uploaded_at DESC, f.id DESC")).
		WithArgs("u1", 50, 0).
		WillReturnRows(mock.NewRows(columns))

	page, err := repo.FetchFiles(context.Background(), "u1", file.Filter{
		Ordering: file.DefaultOrdering,
		Page:     1,
		PageSize: 50,
	})
	require.NoError(t, err)
	assert.Zero(t, page.Count)
	assert.NotNil(t, page.Files)
	assert.Empty(t, page.Files)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FetchFileTypes(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT file_type")).
		WithArgs("u1").
		WillReturnRows(mock.NewRows([]string{"file_type"}).AddRow("image/png").AddRow("text/plain"))

	types, err := NewRepository(mock).FetchFileTypes(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"image/png", "text/plain"}, types)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CountByFingerprint(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE owner = $1 AND fingerprint = $2")).
		WithArgs("u1", "fp").
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(int64(3)))

	n, err := NewRepository(mock).CountByFingerprint(context.Background(), "u1", "fp")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestRepository_DeleteFile(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM files")).
		WithArgs("u1", id).
		WillReturnRows(mock.NewRows(columns[:8]).
			AddRow(id, "u1", "a.txt", "text/plain", int64(3), "fp", false, now))
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM files")).
		WithArgs("u1", id).
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.DeleteFile(context.Background(), "u1", id)
	require.NoError(t, err)
	assert.Equal(t, "fp", got.Fingerprint)

	_, err = repo.DeleteFile(context.Background(), "u1", id)
	assert.ErrorIs(t, err, file.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWhereClause(t *testing.T) {
	where, args := whereClause("u1", file.Filter{Search: "rep", MaxSize: ptr(int64(5))})

	assert.Contains(t, where, "f.owner = $1 AND f.original_filename ILIKE '%' || $2 || '%' AND f.size <= $3")
	assert.Equal(t, []any{"u1", "rep", int64(5)}, args)
}
