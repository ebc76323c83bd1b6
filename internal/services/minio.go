package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// ImageStore serves product images out of a MinIO bucket. Image fields that
// already hold an absolute URL are passed through untouched.
type ImageStore struct {
	Client *minio.Client
	Bucket string
	TTL    time.Duration
}

func NewImageStore(client *minio.Client, bucket string, ttl time.Duration) *ImageStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ImageStore{Client: client, Bucket: bucket, TTL: ttl}
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// SignedURL presigns a GET for the object key.
func (s *ImageStore) SignedURL(ctx context.Context, key string) (string, error) {
	if s == nil || s.Client == nil {
		return "", fmt.Errorf("MinIO not initialised")
	}
	key = strings.TrimPrefix(key, "/")
	presigned, err := s.Client.PresignedGetObject(ctx, s.Bucket, key, s.TTL, make(url.Values))
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}

// ResolveImage returns what a client should load for an image field.
func (s *ImageStore) ResolveImage(ctx context.Context, image string) string {
	if image == "" || isAbsoluteURL(image) || s == nil || s.Client == nil {
		return image
	}
	signed, err := s.SignedURL(ctx, image)
	if err != nil {
		log.Printf("⚠️ Could not sign image %s: %v", image, err)
		return image
	}
	return signed
}

// Upload stores an object and returns its key.
func (s *ImageStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if s == nil || s.Client == nil {
		return "", fmt.Errorf("MinIO not initialised")
	}
	key = strings.TrimPrefix(key, "/")
	_, err := s.Client.PutObject(ctx, s.Bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	log.Printf("✅ Uploaded %s to bucket %s", key, s.Bucket)
	return key, nil
}
