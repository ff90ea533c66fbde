// Package media stores editor image uploads in S3-compatible object storage.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Service uploads media objects and hands back the public URL the editor
// embeds into entry content.
type Service struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// New connects to the object store and ensures the bucket exists.
func New(ctx context.Context, endpoint, accessKey, secretKey, bucket, baseURL string, useSSL bool) (*Service, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object store: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	if baseURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket)
	}

	return &Service{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Upload stores one object and returns its public URL. Objects are keyed by
// upload date plus the (sanitized) original filename so repeated uploads of
// the same file on different days never collide.
func (s *Service) Upload(ctx context.Context, filename, contentType string, reader io.Reader, size int64) (string, error) {
	object := objectName(filename)
	_, err := s.client.PutObject(ctx, s.bucket, object, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", object, err)
	}
	return s.baseURL + "/" + object, nil
}

func objectName(filename string) string {
	base := path.Base(filename)
	var clean strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			clean.WriteRune(r)
		default:
			clean.WriteRune('-')
		}
	}
	name := clean.String()
	if name == "" || name == "." {
		name = "upload"
	}
	return time.Now().UTC().Format("2006/01/02") + "/" + fmt.Sprintf("%d-%s", time.Now().UnixNano(), name)
}
