package export

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArchiveConfig holds the S3 settings for stored exports.
type ArchiveConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLTTL    time.Duration
}

// Archive stores finished exports in S3-compatible storage and hands out
// presigned download links.
type Archive struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
	now    func() time.Time
}

func NewArchive(cfg ArchiveConfig) (*Archive, error) {
	if cfg.Endpoint == "" {
		return nil, ErrArchiveDisabled
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	ttl := cfg.URLTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Archive{client: client, bucket: cfg.Bucket, ttl: ttl, now: time.Now}, nil
}

// EnsureBucket makes sure the export bucket exists before use.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", a.bucket, err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("make bucket %s: %w", a.bucket, err)
		}
	}
	return nil
}

// ObjectKey places exports under the owner's prefix, newest sorting last.
func ObjectKey(ownerID string, at time.Time, filename string) string {
	return fmt.Sprintf("%s/%s-%s", ownerID, at.UTC().Format("20060102T150405Z"), filename)
}

// Store uploads result and returns a presigned GET URL for it.
func (a *Archive) Store(ctx context.Context, ownerID string, result *Result) (string, error) {
	key := ObjectKey(ownerID, a.now(), result.Filename)
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(result.Data), int64(len(result.Data)),
		minio.PutObjectOptions{ContentType: result.MimeType})
	if err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}

	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	u, err := a.client.PresignedGetObject(ctx, a.bucket, key, a.ttl, params)
	if err != nil {
		return "", fmt.Errorf("presign export: %w", err)
	}
	return u.String(), nil
}
