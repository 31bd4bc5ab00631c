package ports

import (
	"context"

	"file-vault-api/internal/domain/file"
	"file-vault-api/internal/domain/quota"
)

type FileService interface {
	UploadFile(ctx context.Context, in file.Upload) (*file.File, error)
	FindFile(ctx context.Context, owner string, id file.ID) (*file.File, error)
	FindFiles(ctx context.Context, owner string, filter file.Filter) (*file.Page, error)
	FindFileTypes(ctx context.Context, owner string) ([]string, error)
	DownloadFile(ctx context.Context, owner string, id file.ID) (*file.File, []byte, error)
	DeleteFile(ctx context.Context, owner string, id file.ID) error
}

type StatsService interface {
	StatsFor(ctx context.Context, owner string) (*quota.Stats, error)
}
