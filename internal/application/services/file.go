package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"file-vault-api/config"
	"file-vault-api/internal/application/ports"
	"file-vault-api/internal/domain/content"
	"file-vault-api/internal/domain/file"
	"file-vault-api/internal/domain/quota"
	"file-vault-api/internal/infrastructure/mq"
	dto "file-vault-api/internal/interface/api/rest/dto/file"
)

type FileService struct {
	store    ports.Store
	contents *ContentStore
	ledger   *QuotaLedger
	events   ports.EventPublisher
	cfg      config.Vault
	logger   *zap.Logger
	mCounter *prometheus.CounterVec
	now      func() time.Time
}

func NewFileService(
	store ports.Store,
	contents *ContentStore,
	ledger *QuotaLedger,
	events ports.EventPublisher,
	cfg config.Vault,
	logger *zap.Logger,
	mCounter *prometheus.CounterVec,
) ports.FileService {
	return &FileService{
		store:    store,
		contents: contents,
		ledger:   ledger,
		events:   events,
		cfg:      cfg,
		logger:   logger,
		mCounter: mCounter,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// UploadFile stores in.Data once per distinct content and records a new
// file for the owner. Nothing is kept when the quota check fails.
func (fs *FileService) UploadFile(ctx context.Context, in file.Upload) (*file.File, error) {
	if strings.TrimSpace(in.Owner) == "" {
		return nil, fmt.Errorf("%w: owner is required", file.ErrValidation)
	}
	if int64(len(in.Data)) > fs.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", file.ErrValidation, fs.cfg.MaxUploadBytes)
	}

	name := normalizeFilename(in.Filename)
	fileType := classify(name, in.ContentType, in.Data)

	var (
		out *file.File
		res *Resolution
	)
	err := fs.store.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		if res, err = Resolve(ctx, repos, in.Owner, in.Data); err != nil {
			return err
		}

		var actual int64
		if res.NewForOwner {
			actual = res.Size
		}
		if _, err = fs.ledger.Charge(ctx, repos, in.Owner, res.Size, actual); err != nil {
			return err
		}

		out, err = repos.Files().CreateFile(ctx, &file.File{
			ID:               uuid.New(),
			Owner:            in.Owner,
			OriginalFilename: name,
			FileType:         fileType,
			Size:             res.Size,
			Fingerprint:      res.Fingerprint,
			IsReference:      !res.NewForOwner,
			UploadedAt:       fs.now(),
		})
		if err != nil {
			return err
		}

		if res.NewObject {
			return fs.contents.Put(ctx, res.Fingerprint, in.Data)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, quota.ErrQuotaExceeded) {
			fs.mCounter.WithLabelValues("quota_rejections_total").Inc()
		}
		return nil, err
	}

	fs.mCounter.WithLabelValues("files_uploaded_total").Inc()
	if !res.NewObject {
		fs.mCounter.WithLabelValues("files_deduplicated_total").Inc()
	}
	fs.logger.Debug("file uploaded",
		zap.String("owner", out.Owner),
		zap.Stringer("file_id", out.ID),
		zap.String("fingerprint", out.Fingerprint),
		zap.Bool("new_object", res.NewObject),
		zap.Bool("is_reference", out.IsReference),
	)
	fs.publish(http.MethodPost, out)

	return out, nil
}

func (fs *FileService) FindFile(ctx context.Context, owner string, id file.ID) (*file.File, error) {
	return fs.store.Files().FetchFile(ctx, owner, id)
}

func (fs *FileService) FindFiles(ctx context.Context, owner string, filter file.Filter) (*file.Page, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = fs.cfg.DefaultPageSize
	}
	filter.PageSize = min(filter.PageSize, fs.cfg.MaxPageSize)
	if filter.Ordering.Field == "" {
		filter.Ordering = file.DefaultOrdering
	}

	return fs.store.Files().FetchFiles(ctx, owner, filter)
}

func (fs *FileService) FindFileTypes(ctx context.Context, owner string) ([]string, error) {
	return fs.store.Files().FetchFileTypes(ctx, owner)
}

func (fs *FileService) DownloadFile(ctx context.Context, owner string, id file.ID) (*file.File, []byte, error) {
	f, err := fs.store.Files().FetchFile(ctx, owner, id)
	if err != nil {
		return nil, nil, err
	}

	data, err := fs.contents.Get(ctx, f.Fingerprint)
	if err != nil {
		// deleted between the two reads
		if errors.Is(err, content.ErrNotFound) {
			return nil, nil, file.ErrNotFound
		}
		return nil, nil, err
	}

	fs.mCounter.WithLabelValues("files_downloaded_total").Inc()

	return f, data, nil
}

// DeleteFile removes one record. The owner's actual bytes are credited only
// when it was their last record of that content; the blob goes once no
// record of any owner points at it.
func (fs *FileService) DeleteFile(ctx context.Context, owner string, id file.ID) error {
	rec, err := fs.store.Files().FetchFile(ctx, owner, id)
	if err != nil {
		return err
	}

	var (
		deleted   *file.File
		remaining int64
	)
	err = fs.store.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if err := repos.Contents().Lock(ctx, rec.Fingerprint); err != nil {
			return err
		}

		if fs.cfg.ProtectOriginals && !rec.IsReference {
			n, err := repos.Files().CountByFingerprint(ctx, owner, rec.Fingerprint)
			if err != nil {
				return err
			}
			if n > 1 {
				return file.ErrConflict
			}
		}

		var err error
		if deleted, err = repos.Files().DeleteFile(ctx, owner, id); err != nil {
			return err
		}

		last, err := repos.Quotas().Detach(ctx, owner, deleted.Fingerprint)
		if err != nil {
			return err
		}
		var actual int64
		if last {
			actual = deleted.Size
		}
		if _, err = fs.ledger.Credit(ctx, repos, owner, deleted.Size, actual); err != nil {
			return err
		}

		remaining, err = fs.contents.Release(ctx, repos, deleted.Fingerprint)
		return err
	})
	if err != nil {
		return err
	}

	if remaining == 0 {
		if err = fs.contents.Collect(context.WithoutCancel(ctx), deleted.Fingerprint); err != nil {
			// the row is gone; a leftover blob is only wasted space
			fs.logger.Warn("blob collection failed",
				zap.String("fingerprint", deleted.Fingerprint),
				zap.Error(err),
			)
		}
	}

	fs.mCounter.WithLabelValues("files_deleted_total").Inc()
	fs.publish(http.MethodDelete, deleted)

	return nil
}

func (fs *FileService) publish(method string, f *file.File) {
	fs.events.Publish(mq.Event{
		Id:      uuid.New(),
		TS:      fs.now(),
		Method:  method,
		UserID:  f.Owner,
		Payload: dto.ToResponseFile(*f),
	})
}
