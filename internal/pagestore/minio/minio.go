// Package minio implements interfaces.ArchiveFile against an S3-compatible
// bucket, grounded on the teacher's minioFileService
// (internal/application/service/file/minio.go): lazy bucket creation,
// PutObject/GetObject keyed by the caller's relative path.
package minio

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// Store is the S3-compatible ArchiveFile adapter.
type Store struct {
	client *minio.Client
	bucket string
}

// New connects to an S3-compatible endpoint and ensures the bucket exists.
func New(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}
	return &Store{client: client, bucket: bucket}, nil
}

var _ interfaces.ArchiveFile = (*Store)(nil)

func (s *Store) Write(ctx context.Context, relativePath string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, relativePath, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	return err
}

func (s *Store) Read(ctx context.Context, relativePath string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, relativePath, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}
