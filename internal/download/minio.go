package download

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
)

// ObjectGetter is the part of the minio client used to read objects.
type ObjectGetter interface {
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
}

// MinioDownloader reads an object from an S3-compatible bucket.
type MinioDownloader struct {
	client ObjectGetter
	bucket string
	object string
}

func NewMinioDownloader(client ObjectGetter, bucket, object string) *MinioDownloader {
	return &MinioDownloader{client: client, bucket: bucket, object: object}
}

func (s *MinioDownloader) Get(ctx context.Context, dst io.Writer) error {
	object, err := s.client.GetObject(ctx, s.bucket, s.object, minio.GetObjectOptions{})
	if err != nil {
		return err
	}
	defer object.Close()

	objInfo, err := object.Stat()
	if err != nil {
		return err
	}

	return copyWithProgress(ctx, dst, object, objInfo.Size)
}

func (s *MinioDownloader) Type() string {
	return "minio"
}
