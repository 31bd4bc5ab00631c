// Package store runs the postgres repositories as one transactional unit.
package store

import (
	"context"
	"errors"
	"fmt"

	"file-vault-api/internal/application/ports"
	"file-vault-api/internal/domain/content"
	"file-vault-api/internal/domain/file"
	"file-vault-api/internal/domain/quota"
	"file-vault-api/internal/infrastructure/db/postgres"
	contentDB "file-vault-api/internal/infrastructure/db/postgres/content"
	fileDB "file-vault-api/internal/infrastructure/db/postgres/file"
	quotaDB "file-vault-api/internal/infrastructure/db/postgres/quota"
)

type repositories struct {
	files    file.Repository
	contents content.Repository
	quotas   quota.Repository
}

func newRepositories(db postgres.Querier) repositories {
	return repositories{
		files:    fileDB.NewRepository(db),
		contents: contentDB.NewRepository(db),
		quotas:   quotaDB.NewRepository(db),
	}
}

func (r repositories) Files() file.Repository       { return r.files }
func (r repositories) Contents() content.Repository { return r.contents }
func (r repositories) Quotas() quota.Repository     { return r.quotas }

type Store struct {
	repositories
	db postgres.TxBeginner
}

func New(db postgres.TxBeginner) ports.Store {
	return &Store{
		repositories: newRepositories(db),
		db:           db,
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos ports.Repositories) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err = fn(ctx, newRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}
