package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
http:
  addr: ":9090"
media_host:
  provider: s3
  timeout: 45s
uploads:
  rate_per_minute: 3
  tag: mobile-upload
auth:
  jwt_access_ttl: 30m
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.MediaHost.Provider != MediaProviderS3 {
		t.Fatalf("unexpected media provider: %s", cfg.MediaHost.Provider)
	}
	if cfg.MediaHost.Timeout != 45*time.Second {
		t.Fatalf("unexpected media timeout: %s", cfg.MediaHost.Timeout)
	}
	if cfg.Uploads.RatePerMinute != 3 {
		t.Fatalf("unexpected upload rate/minute: %d", cfg.Uploads.RatePerMinute)
	}
	if cfg.Uploads.Tag != "mobile-upload" {
		t.Fatalf("unexpected upload tag: %s", cfg.Uploads.Tag)
	}
	if cfg.Auth.JWTAccessTTL != 30*time.Minute {
		t.Fatalf("unexpected access ttl: %s", cfg.Auth.JWTAccessTTL)
	}

	if cfg.Uploads.RatePer10Seconds != 5 {
		t.Fatalf("rate_per_10sec default should stay 5")
	}
	if cfg.MediaHost.ImageKit.UploadURL == "" {
		t.Fatalf("imagekit upload url default should stay set")
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if cfg.MediaHost.Provider != MediaProviderImageKit {
		t.Fatalf("unexpected default provider: %s", cfg.MediaHost.Provider)
	}
	if cfg.Uploads.Tag != "backend-upload" {
		t.Fatalf("unexpected default upload tag: %s", cfg.Uploads.Tag)
	}
	if cfg.Auth.MinPasswordSize != 8 {
		t.Fatalf("unexpected min password size: %d", cfg.Auth.MinPasswordSize)
	}
	if want := filepath.Join(os.TempDir(), "posts-uploads"); cfg.Uploads.TempDir != want {
		t.Fatalf("unexpected upload dir: got %s want %s", cfg.Uploads.TempDir, want)
	}
}

func TestLoadKeepsDedicatedUploadDirWhenYAMLBlanksIt(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("uploads:\n  temp_dir: \"\"\n"), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Uploads.TempDir != DefaultUploadDir() || cfg.Uploads.TempDir == os.TempDir() {
		t.Fatalf("upload dir must be service-owned, got %s", cfg.Uploads.TempDir)
	}
}

func TestLoadReadsImageKitKeysFromEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("IMAGEKIT_PRIVATE_KEY", "private_abc")
	t.Setenv("imagekit_public_key", "public_abc")
	t.Setenv("IMAGEKIT_URL_ENDPOINT", "https://ik.imagekit.io/demo")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ik := cfg.MediaHost.ImageKit
	if ik.PrivateKey != "private_abc" || ik.PublicKey != "public_abc" || ik.URLEndpoint != "https://ik.imagekit.io/demo" {
		t.Fatalf("unexpected imagekit config: %+v", ik)
	}
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("IMAGEKIT_PRIVATE_KEY", "private_abc")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error when jwt secret is the default in production")
	}

	t.Setenv("JWT_SECRET", "a-real-secret")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Fatalf("load production config: %v", err)
	}
}

func TestLoadRejectsMissingImageKitKeyInProduction(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "a-real-secret")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error when imagekit private key is empty in production")
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("MEDIA_HOST_PROVIDER", "cloudinary")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unknown media provider")
	}
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("JWT_ACCESS_TTL", "soon")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for malformed duration")
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"HTTP_REQUEST_TIMEOUT",
		"LOG_LEVEL",
		"POSTGRES_DSN",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"JWT_SECRET",
		"JWT_ACCESS_TTL",
		"REFRESH_TTL",
		"VERIFY_TOKEN_TTL",
		"MEDIA_HOST_PROVIDER",
		"MEDIA_HOST_TIMEOUT",
		"IMAGEKIT_PRIVATE_KEY",
		"IMAGEKIT_PUBLIC_KEY",
		"IMAGEKIT_URL_ENDPOINT",
		"imagekit_private_key",
		"imagekit_public_key",
		"imagekit_url_endpoint",
		"S3_ENDPOINT",
		"S3_ACCESS_KEY",
		"S3_SECRET_KEY",
			"S3_REGION",
		"S3_BUCKET",
		"S3_PUBLIC_URL",
		"S3_USE_SSL",
		"UPLOAD_TEMP_DIR",
		"UPLOAD_RATE_PER_MINUTE",
		"UPLOAD_RATE_PER_10SEC",
		"TRACING_ENABLED",
		"OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(key, "")
	}
}
