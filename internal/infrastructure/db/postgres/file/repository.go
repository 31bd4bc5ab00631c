package file

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"file-vault-api/internal/domain/file"
	"file-vault-api/internal/infrastructure/db/postgres"
)

type Repository struct {
	db postgres.Querier
}

func NewRepository(db postgres.Querier) file.Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateFile(ctx context.Context, req *file.File) (*file.File, error) {
	f := new(File)

	err := r.db.QueryRow(
		ctx,
		InsertFile,
		req.ID, req.Owner, req.OriginalFilename, req.FileType, req.Size, req.Fingerprint, req.IsReference, req.UploadedAt,
	).Scan(
		&f.ID,
		&f.Owner,
		&f.OriginalFilename,
		&f.FileType,
		&f.Size,
		&f.Fingerprint,
		&f.IsReference,
		&f.UploadedAt,

		&f.ReferenceCount,
	)
	if err != nil {
		if postgres.IsPgUniqueViolation(err) {
			return nil, fmt.Errorf("file %s already exists: %w", req.ID, err)
		}
		return nil, err
	}

	return fromDBModel(f), nil
}

func (r *Repository) FetchFile(ctx context.Context, owner string, id file.ID) (*file.File, error) {
	f := new(File)
	err := r.db.QueryRow(ctx, SelectFileByID, owner, id).Scan(
		&f.ID,
		&f.Owner,
		&f.OriginalFilename,
		&f.FileType,
		&f.Size,
		&f.Fingerprint,
		&f.IsReference,
		&f.UploadedAt,

		&f.ReferenceCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, file.ErrNotFound
		}
		return nil, err
	}

	return fromDBModel(f), nil
}

func (r *Repository) FetchFiles(ctx context.Context, owner string, filter file.Filter) (*file.Page, error) {
	where, args := whereClause(owner, filter)

	var count int64
	if err := r.db.QueryRow(ctx, CountFiles+where, args...).Scan(&count); err != nil {
		return nil, err
	}

	query := SelectFiles + where + orderClause(filter.Ordering, len(args))
	rows, err := r.db.Query(ctx, query, append(args, filter.PageSize, filter.Offset())...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fs := Files{}
	for rows.Next() {
		f := new(File)

		if err = rows.Scan(
			&f.ID,
			&f.Owner,
			&f.OriginalFilename,
			&f.FileType,
			&f.Size,
			&f.Fingerprint,
			&f.IsReference,
			&f.UploadedAt,

			&f.ReferenceCount,
		); err != nil {
			return nil, err
		}

		fs = append(fs, f)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return &file.Page{
		Files:    fromDBModels(&fs),
		Count:    count,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

func (r *Repository) FetchFileTypes(ctx context.Context, owner string) ([]string, error) {
	rows, err := r.db.Query(ctx, SelectFileTypes, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := []string{}
	for rows.Next() {
		var t string
		if err = rows.Scan(&t); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return types, nil
}

func (r *Repository) CountByFingerprint(ctx context.Context, owner, fingerprint string) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, CountByFingerprint, owner, fingerprint).Scan(&n); err != nil {
		return 0, err
	}

	return n, nil
}

func (r *Repository) DeleteFile(ctx context.Context, owner string, id file.ID) (*file.File, error) {
	f := new(File)
	err := r.db.QueryRow(ctx, DeleteFileByID, owner, id).Scan(
		&f.ID,
		&f.Owner,
		&f.OriginalFilename,
		&f.FileType,
		&f.Size,
		&f.Fingerprint,
		&f.IsReference,
		&f.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, file.ErrNotFound
		}
		return nil, err
	}

	return fromDBModel(f), nil
}
