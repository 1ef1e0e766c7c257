// blobstore/blobstore.go
//
// Minio-backed document store. Uploads are hashed with keccak-256 while
// streaming so the returned handle is content-addressed; the hash is
// what MOU signature chains root at.
package blobstore

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/crypto/sha3"

	"campusflow/config"
	"campusflow/models"
)

type Store struct {
	client *minio.Client
	bucket string
}

func New() (*Store, error) {
	client, err := minio.New(config.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.MinioAccessKey, config.MinioSecretKey, ""),
		Secure: config.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Store{client: client, bucket: config.MinioBucket}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// HashBytes returns the 0x-prefixed keccak-256 digest of data.
func HashBytes(data []byte) string {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	return "0x" + hex.EncodeToString(hasher.Sum(nil))
}

// Upload streams the reader into object storage, hashing on the way
// through, and returns the content-addressed handle plus the storage key.
func (s *Store) Upload(ctx context.Context, filename string, reader io.Reader, size int64) (*models.Document, string, error) {
	storageKey := fmt.Sprintf("%s/%s", time.Now().UTC().Format("2006/01/02"), uuid.New().String())

	hasher := sha3.NewLegacyKeccak256()
	teeReader := io.TeeReader(reader, hasher)

	info, err := s.client.PutObject(ctx, s.bucket, storageKey, teeReader, size, minio.PutObjectOptions{})
	if err != nil {
		return nil, "", models.ErrDependencyUnavailable("document store is unavailable")
	}

	hash := "0x" + hex.EncodeToString(hasher.Sum(nil))

	doc := &models.Document{
		Hash:     hash,
		Filename: filename,
		Size:     info.Size,
		URL:      config.PublicBaseURL + "/api/documents/" + hash,
	}
	return doc, storageKey, nil
}

// Download opens the stored object for streaming.
func (s *Store) Download(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, storageKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, models.ErrDependencyUnavailable("document store is unavailable")
	}
	return obj, nil
}

// Delete removes an object; used only by election reset cleanup paths.
func (s *Store) Delete(ctx context.Context, storageKey string) error {
	return s.client.RemoveObject(ctx, s.bucket, storageKey, minio.RemoveObjectOptions{})
}
