package mediastore

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_DisabledNeedsNothing(t *testing.T) {
	t.Setenv("MEDIA_STORAGE_ENABLED", "false")
	t.Setenv("S3_ACCESS_KEY_ID", "")
	t.Setenv("S3_SECRET_ACCESS_KEY", "")
	t.Setenv("S3_BUCKET_NAME", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.IsEnabled() {
		t.Fatal("expected storage to be disabled")
	}
}

func TestLoadConfig_EnabledRequiresCredentials(t *testing.T) {
	t.Setenv("MEDIA_STORAGE_ENABLED", "true")
	t.Setenv("S3_ACCESS_KEY_ID", "")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")
	t.Setenv("S3_BUCKET_NAME", "bucket")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing access key")
	}
}

func TestNewObjectKey(t *testing.T) {
	now := time.Date(2026, time.March, 7, 10, 0, 0, 0, time.UTC)
	key := NewObjectKey(42, ".png", now)

	if !strings.HasPrefix(key, "media/42/2026/03/") {
		t.Fatalf("unexpected key prefix: %s", key)
	}
	if !strings.HasSuffix(key, ".png") {
		t.Fatalf("unexpected key suffix: %s", key)
	}

	if key == NewObjectKey(42, ".png", now) {
		t.Fatal("expected unique keys for repeated uploads")
	}
}
