package mediastore

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/env"
)

// Config holds object storage settings for post media.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // optional, for S3-compatible services
	PublicBaseURL   string // optional, CDN or bucket website base for serving media
	Enabled         bool
}

// LoadConfig reads media storage configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PublicBaseURL:   env.GetEnv("S3_PUBLIC_BASE_URL", ""),
		Enabled:         env.GetEnv("MEDIA_STORAGE_ENABLED", "false") == "true",
	}

	if cfg.Enabled {
		if cfg.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when media storage is enabled")
		}
		if cfg.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when media storage is enabled")
		}
		if cfg.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when media storage is enabled")
		}
	}

	return cfg, nil
}

// IsEnabled returns true if media storage is configured and turned on.
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

func appEnv() string {
	return env.GetEnv("APP_ENV", "dev")
}

// NewObjectKey builds a bucket key for a fresh media upload.
// Format: media/<user-id>/YYYY/MM/<uuid><ext>
func NewObjectKey(userID uint, fileExtension string, now time.Time) string {
	return fmt.Sprintf("media/%d/%04d/%02d/%s%s",
		userID, now.Year(), int(now.Month()), uuid.New().String(), fileExtension)
}
