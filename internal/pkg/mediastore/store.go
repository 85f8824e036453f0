package mediastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"
)

// Store uploads and serves post media from S3-compatible object storage.
type Store struct {
	s3Client *s3.Client
	config   *Config
}

// NewStore creates a media store and verifies the bucket is reachable.
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	if !cfg.IsEnabled() {
		return nil, errors.New("media storage is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible services want path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	store := &Store{
		s3Client: s3Client,
		config:   cfg,
	}

	if err := store.checkBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to media storage: %w", err)
	}

	log.Infof("[MediaStore] Initialized media storage for bucket: %s", cfg.BucketName)
	return store, nil
}

// checkBucket verifies the bucket exists, creating it outside of prod.
func (s *Store) checkBucket(ctx context.Context) error {
	_, err := s.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.config.BucketName),
	})
	if err == nil {
		return nil
	}

	if appEnv() != "prod" {
		log.Warnf("[MediaStore] Bucket %s not found, attempting to create it", s.config.BucketName)
		return s.createBucket(ctx)
	}
	return fmt.Errorf("bucket %s not accessible: %w", s.config.BucketName, err)
}

func (s *Store) createBucket(ctx context.Context) error {
	input := &s3.CreateBucketInput{
		Bucket: aws.String(s.config.BucketName),
	}
	// AWS regions other than us-east-1 need a location constraint;
	// S3-compatible endpoints reject it.
	if s.config.EndpointURL == "" && s.config.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.config.Region),
		}
	}

	if _, err := s.s3Client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.config.BucketName, err)
	}

	log.Infof("[MediaStore] Created bucket: %s", s.config.BucketName)
	return nil
}

// UploadResult describes a stored media object.
type UploadResult struct {
	ObjectKey   string
	Size        int64
	ContentType string
	URL         string
}

// Upload streams a media object into the bucket under the given key.
func (s *Store) Upload(ctx context.Context, objectKey string, body io.Reader, size int64, contentType string) (*UploadResult, error) {
	if strings.TrimSpace(objectKey) == "" {
		return nil, errors.New("object key is empty")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.BucketName),
		Key:           aws.String(objectKey),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		Metadata: map[string]string{
			"upload-source": "zapsocial-media",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload media: %w", err)
	}

	log.Infof("[MediaStore] Uploaded: s3://%s/%s (%d bytes)", s.config.BucketName, objectKey, size)
	return &UploadResult{
		ObjectKey:   objectKey,
		Size:        size,
		ContentType: contentType,
		URL:         s.PublicURL(objectKey),
	}, nil
}

// Delete removes a media object from the bucket.
func (s *Store) Delete(ctx context.Context, objectKey string) error {
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete media object: %w", err)
	}

	log.Infof("[MediaStore] Deleted: s3://%s/%s", s.config.BucketName, objectKey)
	return nil
}

// Exists reports whether a media object is present in the bucket.
func (s *Store) Exists(ctx context.Context, objectKey string) (bool, error) {
	_, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check media object: %w", err)
	}
	return true, nil
}

// PublicURL returns the servable URL for an object key.
func (s *Store) PublicURL(objectKey string) string {
	if s.config.PublicBaseURL != "" {
		return strings.TrimRight(s.config.PublicBaseURL, "/") + "/" + objectKey
	}
	if s.config.EndpointURL != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.config.EndpointURL, "/"), s.config.BucketName, objectKey)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.BucketName, s.config.Region, objectKey)
}
