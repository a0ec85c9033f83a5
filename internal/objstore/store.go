// Package objstore adapts cache-blob and image storage onto an S3-compatible
// object store (Cloudflare R2 in production).
package objstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Uploaded objects are immutable; browsers may cache them for a year.
const immutableCacheControl = "public, max-age=31536000"

// Config configures one object store adapter.
type Config struct {
	// AccountID is the R2 account id forming the endpoint host.
	AccountID string
	// AccessKeyID and SecretAccessKey are the S3 API credentials.
	AccessKeyID     string
	SecretAccessKey string
	// Bucket is the bucket name.
	Bucket string
	// PublicURL is the public base URL objects are served from. Zero
	// defaults to the pub-<account>.r2.dev host.
	PublicURL string
	// Endpoint optionally overrides the S3 endpoint, for tests.
	Endpoint string
	// Logger optionally overrides slog.Default().
	Logger *slog.Logger
}

// api is the slice of the S3 client the store uses; tests substitute a fake.
type api interface {
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store reads and writes objects in one bucket.
type Store struct {
	client    api
	bucket    string
	publicURL string
	logger    *slog.Logger
}

// New validates the configuration and builds one store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.AccountID) == "" {
		return nil, fmt.Errorf("new object store: missing account id")
	}
	if strings.TrimSpace(cfg.AccessKeyID) == "" || strings.TrimSpace(cfg.SecretAccessKey) == "" {
		return nil, fmt.Errorf("new object store: missing credentials")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("new object store: missing bucket")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("new object store: load aws config: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}
	client := s3.NewFromConfig(awsCfg, func(options *s3.Options) {
		options.BaseEndpoint = aws.String(endpoint)
		options.UsePathStyle = true
	})

	publicURL := strings.TrimSuffix(cfg.PublicURL, "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://pub-%s.r2.dev", cfg.AccountID)
	}

	store := &Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicURL,
		logger:    slog.Default(),
	}
	if cfg.Logger != nil {
		store.logger = cfg.Logger
	}

	return store, nil
}

// GetJSON loads and decodes one JSON object. A missing key returns found=false
// with a nil error so callers can treat absence as a plain cache miss.
func (s *Store) GetJSON(ctx context.Context, key string, value any) (bool, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isMissingObject(err) {
			return false, nil
		}
		return false, fmt.Errorf("get object %s: %w", key, err)
	}
	defer output.Body.Close()

	if err := json.NewDecoder(output.Body).Decode(value); err != nil {
		return false, fmt.Errorf("decode object %s: %w", key, err)
	}

	return true, nil
}

// PutJSON encodes and overwrites one JSON object.
func (s *Store) PutJSON(ctx context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode object %s: %w", key, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(encoded),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	return nil
}

// PutImage uploads one immutable image object and returns its public URL.
func (s *Store) PutImage(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(immutableCacheControl),
	})
	if err != nil {
		return "", fmt.Errorf("put image %s: %w", key, err)
	}

	return s.publicURL + "/" + key, nil
}

// Delete removes one object. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isMissingObject(err) {
		return fmt.Errorf("delete object %s: %w", key, err)
	}

	return nil
}

// PublicURL returns the public base URL objects are served from.
func (s *Store) PublicURL() string {
	return s.publicURL
}

func isMissingObject(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}
