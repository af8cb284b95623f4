// minio.go - Object storage client bootstrap.
package server

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStorage bundles the MinIO client with the bucket uploads land in
// and the base URL used to build public file links.
type ObjectStorage struct {
	Client        *minio.Client
	Bucket        string
	PublicBaseURL string
}

func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	// Accept either "minio:9000" or "http://minio:9000" / "https://minio:9000".
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		secure = (u.Scheme == "https")
		return u.Host, secure, nil
	}

	// No scheme provided, treat as host:port (insecure by default for local MinIO).
	return raw, false, nil
}

// NewObjectStorageFromEnv builds the storage handle from S3_ENDPOINT,
// S3_ACCESS_KEY, S3_SECRET_KEY, and S3_BUCKET. S3_PUBLIC_BASE_URL overrides
// the base for returned file URLs; otherwise it is derived from the endpoint.
func NewObjectStorageFromEnv() (*ObjectStorage, error) {
	rawEndpoint := os.Getenv("S3_ENDPOINT")
	accessKey := os.Getenv("S3_ACCESS_KEY")
	secretKey := os.Getenv("S3_SECRET_KEY")
	bucket := os.Getenv("S3_BUCKET")

	if rawEndpoint == "" || accessKey == "" || secretKey == "" || bucket == "" {
		return nil, fmt.Errorf("object storage configuration incomplete")
	}

	endpoint, secure, err := normaliseEndpoint(rawEndpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid S3_ENDPOINT: %w", err)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	publicBase := strings.TrimRight(os.Getenv("S3_PUBLIC_BASE_URL"), "/")
	if publicBase == "" {
		scheme := "http"
		if secure {
			scheme = "https"
		}
		publicBase = scheme + "://" + endpoint
	}

	return &ObjectStorage{
		Client:        client,
		Bucket:        bucket,
		PublicBaseURL: publicBase,
	}, nil
}

// EnsureBucket creates the configured bucket when it does not exist yet.
func (s *ObjectStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.Client.BucketExists(ctx, s.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.Client.MakeBucket(ctx, s.Bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// publicURL builds the externally reachable URL for a stored object.
func (s *ObjectStorage) publicURL(objectKey string) string {
	return s.PublicBaseURL + "/" + s.Bucket + "/" + objectKey
}
