package ml

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const s3Scheme = "s3://"

// ArtifactError reports that a classifier artifact could not be loaded.
// It is fatal for the whole service, unlike per-reading prediction errors.
type ArtifactError struct {
	Location string
	Err      error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("failed to load model artifact %s: %v", e.Location, e.Err)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}

// ArtifactStore fetches the raw bytes of a model artifact
type ArtifactStore interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// FileStore reads artifacts from the local filesystem
type FileStore struct{}

// Fetch reads the file at location
func (FileStore) Fetch(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	return data, nil
}

// MinioConfig holds S3-compatible object storage settings
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// MinioStore reads artifacts addressed as s3://bucket/key from S3-compatible storage
type MinioStore struct {
	client *minio.Client
}

// NewMinioStore creates an object storage client. No request is made until Fetch.
func NewMinioStore(config MinioConfig) (*MinioStore, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return &MinioStore{client: client}, nil
}

// Fetch downloads the object at location
func (s *MinioStore) Fetch(ctx context.Context, location string) ([]byte, error) {
	bucket, key, err := ParseS3Location(location)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("s3 read object %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// ParseS3Location splits s3://bucket/key into its bucket and key
func ParseS3Location(location string) (bucket, key string, err error) {
	if !IsS3Location(location) {
		return "", "", fmt.Errorf("not an s3 location: %q", location)
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(location, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 location must be s3://bucket/key: %q", location)
	}
	return bucket, key, nil
}

// IsS3Location reports whether location addresses object storage
func IsS3Location(location string) bool {
	return strings.HasPrefix(location, s3Scheme)
}

// RoutingStore sends s3:// locations to the object store and everything else to disk
type RoutingStore struct {
	Files   ArtifactStore
	Objects ArtifactStore // nil when object storage is not configured
}

// Fetch implements ArtifactStore
func (r RoutingStore) Fetch(ctx context.Context, location string) ([]byte, error) {
	if IsS3Location(location) {
		if r.Objects == nil {
			return nil, fmt.Errorf("object storage is not configured (set S3_ENDPOINT) for %s", location)
		}
		return r.Objects.Fetch(ctx, location)
	}
	return r.Files.Fetch(ctx, location)
}

// NewArtifactStore builds the store used at startup. Object storage is only
// set up when an endpoint is configured.
func NewArtifactStore(config MinioConfig) (ArtifactStore, error) {
	store := RoutingStore{Files: FileStore{}}
	if config.Endpoint == "" {
		return store, nil
	}

	objects, err := NewMinioStore(config)
	if err != nil {
		return nil, err
	}
	store.Objects = objects
	return store, nil
}
