package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dncl/intake/internal/core"
)

type minioBlobStore struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

func newMinioBlobStore(config *core.BlobStore) (*minioBlobStore, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create blob store client: %w", err)
	}

	publicBaseURL := strings.TrimRight(config.PublicBaseURL, "/")
	if publicBaseURL == "" {
		scheme := "http"
		if config.UseSSL {
			scheme = "https"
		}
		publicBaseURL = fmt.Sprintf("%s://%s/%s", scheme, config.Endpoint, config.Bucket)
	}

	return &minioBlobStore{
		client:        client,
		bucket:        config.Bucket,
		publicBaseURL: publicBaseURL,
	}, nil
}

// ensureBucket creates the bucket on first use rather than at startup, so a
// server with blob storage configured but unreachable still boots.
func (s *minioBlobStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
	}
	return nil
}

func (s *minioBlobStore) Put(ctx context.Context, data []byte, contentType, keyHint string) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("failed to ensure bucket %s: %w", s.bucket, err)
	}

	objectName := ObjectName(keyHint)
	_, err := s.client.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectName, err)
	}

	return s.publicBaseURL + "/" + objectName, nil
}

// ObjectName prefixes the key hint with a millisecond timestamp, keeping
// repeated uploads of identically named files distinct.
func ObjectName(keyHint string) string {
	keyHint = strings.TrimLeft(keyHint, "/")
	dir := ""
	if i := strings.LastIndex(keyHint, "/"); i >= 0 {
		dir = keyHint[:i+1]
		keyHint = keyHint[i+1:]
	}
	return fmt.Sprintf("%s%d_%s", dir, time.Now().UnixMilli(), keyHint)
}
