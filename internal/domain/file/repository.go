package file

import (
	"context"
)

type Repository interface {
	CreateFile(ctx context.Context, f *File) (*File, error)
	FetchFile(ctx context.Context, owner string, id ID) (*File, error)
	FetchFiles(ctx context.Context, owner string, filter Filter) (*Page, error)
	FetchFileTypes(ctx context.Context, owner string) ([]string, error)
	// CountByFingerprint counts the owner's live records with the fingerprint.
	CountByFingerprint(ctx context.Context, owner, fingerprint string) (int64, error)
	DeleteFile(ctx context.Context, owner string, id ID) (*File, error)
}
