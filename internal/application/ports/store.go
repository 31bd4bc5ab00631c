package ports

import (
	"context"

	"file-vault-api/internal/domain/content"
	"file-vault-api/internal/domain/file"
	"file-vault-api/internal/domain/quota"
)

type Repositories interface {
	Files() file.Repository
	Contents() content.Repository
	Quotas() quota.Repository
}

// Store gives non-transactional access through Repositories and runs
// multi-repository writes as one unit through WithinTx. Any error returned
// by fn rolls the whole unit back.
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
