// Package storage provides object storage access for product photos.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	photoapp "github.com/ordertrack/backend/internal/application/photo"
	infraconfig "github.com/ordertrack/backend/internal/infrastructure/config"
)

// maxListPage is the S3 upper bound for one ListObjectsV2 page
const maxListPage = 1000

// Ensure S3ObjectStorage implements ObjectLister
var _ photoapp.ObjectLister = (*S3ObjectStorage)(nil)

// S3ObjectStorage lists the photo bucket through the S3 protocol.
// It works with any S3-compatible backend; Supabase Storage exposes one at
// {project}/storage/v1/s3.
type S3ObjectStorage struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
	logger        *zap.Logger
}

// S3ObjectStorageOption is a functional option for configuring S3ObjectStorage
type S3ObjectStorageOption func(*S3ObjectStorage)

// WithLogger sets a custom logger for S3ObjectStorage
func WithLogger(logger *zap.Logger) S3ObjectStorageOption {
	return func(s *S3ObjectStorage) {
		s.logger = logger
	}
}

// NewS3ObjectStorage creates a new S3ObjectStorage from configuration.
func NewS3ObjectStorage(cfg *infraconfig.StorageConfig, opts ...S3ObjectStorageOption) (*S3ObjectStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}

	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("storage endpoint is required")
	}

	endpoint := cfg.Endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			cfg.SessionToken,
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	storage := &S3ObjectStorage{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(storage)
	}

	if storage.publicBaseURL == "" {
		storage.publicBaseURL = strings.TrimRight(endpoint, "/") + "/" + cfg.Bucket
	}

	return storage, nil
}

// ListObjectNames returns up to limit object names from the bucket root,
// in the store's lexical order.
func (s *S3ObjectStorage) ListObjectNames(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = maxListPage
	}

	names := make([]string, 0, min(limit, maxListPage))
	var token *string
	for len(names) < limit {
		page := int32(min(limit-len(names), maxListPage))
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Delimiter:         aws.String("/"),
			MaxKeys:           aws.Int32(page),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list bucket %s: %w", s.bucket, err)
		}
		for _, obj := range out.Contents {
			if key := aws.ToString(obj.Key); key != "" {
				names = append(names, key)
			}
		}
		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}

	s.logger.Debug("Listed photo bucket",
		zap.String("bucket", s.bucket),
		zap.Int("objects", len(names)),
	)
	return names, nil
}

// PublicURL returns the public address of an object
func (s *S3ObjectStorage) PublicURL(name string) string {
	return publicObjectURL(s.publicBaseURL, name)
}

// GetBucket returns the bucket name
func (s *S3ObjectStorage) GetBucket() string {
	return s.bucket
}

func publicObjectURL(base, name string) string {
	segments := strings.Split(strings.TrimLeft(name, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return base + "/" + strings.Join(segments, "/")
}
