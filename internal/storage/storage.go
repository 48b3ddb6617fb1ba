package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/download"
)

const (
	defaultRegion = "us-east-1"
	defaultExpiry = time.Hour
)

type Opts func(c *config)

type config struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	region          string
	expiry          time.Duration
	useSSL          bool
}

func newConfig(opts ...Opts) *config {
	cfg := &config{
		region: defaultRegion,
		expiry: defaultExpiry,
	}

	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// Bucket hands out pre-signed URLs for objects of one S3-compatible bucket, so the
// service can read inputs and deliver results over plain HTTP.
type Bucket struct {
	cfg    *config
	client *minio.Client
}

func New(opts ...Opts) (*Bucket, error) {
	cfg := newConfig(opts...)
	if cfg.endpoint == "" || cfg.bucket == "" {
		return nil, errors.New("storage endpoint and bucket are required")
	}

	// The region is fixed so that presigning needs no round trip to the server.
	minioClient, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
		Region: cfg.region,
	})
	if err != nil {
		return nil, err
	}

	return &Bucket{cfg: cfg, client: minioClient}, nil
}

func (b *Bucket) Name() string {
	return b.cfg.bucket
}

// PresignGet returns a URL the service can download the object from.
func (b *Bucket) PresignGet(ctx context.Context, object string) (string, error) {
	u, err := b.client.PresignedGetObject(ctx, b.cfg.bucket, object, b.cfg.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presigning get %s/%s: %w", b.cfg.bucket, object, err)
	}
	return u.String(), nil
}

// PresignPut returns a URL the service can deliver a result to with HTTP PUT.
func (b *Bucket) PresignPut(ctx context.Context, object string) (string, error) {
	u, err := b.client.PresignedPutObject(ctx, b.cfg.bucket, object, b.cfg.expiry)
	if err != nil {
		return "", fmt.Errorf("presigning put %s/%s: %w", b.cfg.bucket, object, err)
	}
	return u.String(), nil
}

// Downloader reads the object back through the S3 API.
func (b *Bucket) Downloader(object string) download.Downloader {
	return download.NewMinioDownloader(b.client, b.cfg.bucket, object)
}

func WithEndpoint(endpoint string) Opts {
	return func(c *config) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) Opts {
	return func(c *config) {
		c.bucket = bucket
	}
}

func WithAccessKey(accessKey string) Opts {
	return func(c *config) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) Opts {
	return func(c *config) {
		c.secretAccessKey = secretKey
	}
}

func WithSSL(useSSL bool) Opts {
	return func(c *config) {
		c.useSSL = useSSL
	}
}

func WithRegion(region string) Opts {
	return func(c *config) {
		if region != "" {
			c.region = region
		}
	}
}

func WithExpiry(d time.Duration) Opts {
	return func(c *config) {
		if d > 0 {
			c.expiry = d
		}
	}
}
