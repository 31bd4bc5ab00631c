// Package localfs keeps blobs on the local filesystem, zstd compressed,
// one file per fingerprint under a two-level directory tree.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"file-vault-api/internal/application/ports"
	"file-vault-api/internal/domain/content"
)

type Store struct {
	dir    string
	logger *zap.Logger

	encoderPool sync.Pool
	decoderPool sync.Pool
}

func New(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}

	s := &Store{dir: dir, logger: logger}
	s.encoderPool = sync.Pool{
		New: func() any {
			enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
			return enc
		},
	}
	s.decoderPool = sync.Pool{
		New: func() any {
			dec, _ := zstd.NewReader(nil)
			return dec
		},
	}

	logger.Info("blob store ready", zap.String("driver", "fs"), zap.String("dir", dir))

	return s, nil
}

var _ ports.BlobStore = (*Store)(nil)

// Put is idempotent: an existing blob for fingerprint is left untouched.
func (s *Store) Put(ctx context.Context, fingerprint string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := s.blobPath(fingerprint)
	if err != nil {
		return err
	}
	if fileExists(p) {
		return nil
	}
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create blob subdir: %w", err)
	}

	// concurrent writers of one fingerprint produce identical files; last rename wins
	tmp, err := os.CreateTemp(filepath.Dir(p), ".blob-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err = tmp.Write(s.compress(data)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write blob: %w", err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmpPath, p); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename blob: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, fingerprint string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := s.blobPath(fingerprint)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, content.ErrNotFound
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}

	data, err := s.decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("decompress blob %s: %w", fingerprint, err)
	}

	return data, nil
}

func (s *Store) Exists(_ context.Context, fingerprint string) (bool, error) {
	p, err := s.blobPath(fingerprint)
	if err != nil {
		return false, err
	}
	return fileExists(p), nil
}

func (s *Store) Delete(_ context.Context, fingerprint string) error {
	p, err := s.blobPath(fingerprint)
	if err != nil {
		return err
	}
	if err = os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// blobPath: <dir>/ab/abcdef...
func (s *Store) blobPath(fingerprint string) (string, error) {
	if len(fingerprint) < 2 || filepath.Base(fingerprint) != fingerprint {
		return "", fmt.Errorf("invalid fingerprint %q", fingerprint)
	}
	return filepath.Join(s.dir, fingerprint[:2], fingerprint), nil
}

func (s *Store) compress(data []byte) []byte {
	enc := s.encoderPool.Get().(*zstd.Encoder)
	defer s.encoderPool.Put(enc)

	return enc.EncodeAll(data, nil)
}

func (s *Store) decompress(data []byte) ([]byte, error) {
	dec := s.decoderPool.Get().(*zstd.Decoder)
	defer s.decoderPool.Put(dec)

	return dec.DecodeAll(data, nil)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
