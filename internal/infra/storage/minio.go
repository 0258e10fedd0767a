package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	domain "github.com/M1CTIAN/potato-doc/internal/domain/analysis"
)

// MinioStore keeps one preview object per current selection. The object
// is removed again when the selection is superseded, reset, or the
// session is torn down.
type MinioStore struct {
	client     *minio.Client
	bucketName string
	region     string
}

// NewMinio buat koneksi MinIO
func NewMinio(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*MinioStore, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &MinioStore{client: cli, bucketName: bucket, region: region}, nil
}

// Put implementasi PreviewStore
func (s *MinioStore) Put(ctx context.Context, session domain.SessionID, file *domain.SelectedFile) (*domain.PreviewHandle, error) {
	key := fmt.Sprintf("%s/%s%s", session, uuid.New().String(), filepath.Ext(file.Name))

	_, err := s.client.PutObject(ctx, s.bucketName, key,
		bytes.NewReader(file.Data), int64(len(file.Data)),
		minio.PutObjectOptions{ContentType: file.ContentType},
	)
	if err != nil {
		return nil, err
	}

	// URL publik (jika bucket public), kalau private harus generate presigned URL
	url := fmt.Sprintf("http://%s/%s/%s", s.client.EndpointURL().Host, s.bucketName, key)
	return &domain.PreviewHandle{Key: key, URL: url}, nil
}

// Remove hapus object preview dari bucket
func (s *MinioStore) Remove(ctx context.Context, h *domain.PreviewHandle) error {
	return s.client.RemoveObject(ctx, s.bucketName, h.Key, minio.RemoveObjectOptions{})
}

// Check untuk health endpoint
func (s *MinioStore) Check(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}

var _ domain.PreviewStore = (*MinioStore)(nil)
