package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"file-vault-api/config"
	"file-vault-api/internal/application/ports"
	"file-vault-api/internal/domain/content"
)

const keyPrefix = "blobs/"

// Client stores blobs in an S3 compatible bucket, one object per fingerprint.
type Client struct {
	logger *zap.Logger
	client *minio.Client
	bucket string
}

func New(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Blob,
) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := mc.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("bucket check failed: %w", err)
	}
	if !exists {
		if err = mc.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("bucket created", zap.String("bucket", cfg.Bucket))
	}

	logger.Info("blob store ready", zap.String("driver", "minio"), zap.String("bucket", cfg.Bucket))

	return &Client{
		logger: logger,
		client: mc,
		bucket: cfg.Bucket,
	}, nil
}

var _ ports.BlobStore = (*Client)(nil)

func (c *Client) Put(ctx context.Context, fingerprint string, data []byte) error {
	ok, err := c.Exists(ctx, fingerprint)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	_, err = c.client.PutObject(
		ctx,
		c.bucket,
		objectKey(fingerprint),
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"},
	)
	if err != nil {
		return fmt.Errorf("put object %s: %w", fingerprint, err)
	}

	return nil
}

func (c *Client) Get(ctx context.Context, fingerprint string) ([]byte, error) {
	obj, err := c.client.GetObject(ctx, c.bucket, objectKey(fingerprint), minio.GetObjectOptions{})
	if err != nil {
		return nil, c.translate(err, fingerprint)
	}
	defer obj.Close()

	// GetObject is lazy; a missing key surfaces on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, c.translate(err, fingerprint)
	}

	return data, nil
}

func (c *Client) Exists(ctx context.Context, fingerprint string) (bool, error) {
	_, err := c.client.StatObject(ctx, c.bucket, objectKey(fingerprint), minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat object %s: %w", fingerprint, err)
	}
	return true, nil
}

func (c *Client) Delete(ctx context.Context, fingerprint string) error {
	if err := c.client.RemoveObject(ctx, c.bucket, objectKey(fingerprint), minio.RemoveObjectOptions{}); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("remove object %s: %w", fingerprint, err)
	}
	return nil
}

func (c *Client) translate(err error, fingerprint string) error {
	if isNotFound(err) {
		return content.ErrNotFound
	}
	return fmt.Errorf("get object %s: %w", fingerprint, err)
}

func objectKey(fingerprint string) string {
	return keyPrefix + fingerprint[:min(2, len(fingerprint))] + "/" + fingerprint
}

func isNotFound(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
	}
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
