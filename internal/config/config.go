// Package config loads service configuration from the environment.
//
// A .env file in the working directory is honored when present (local
// development); real deployments set the variables directly.
package config

import (
	"errors"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds every knob the backend reads at startup.
type Config struct {
	Addr        string `env:"IMGD_ADDR" env-default:":8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	// Blob storage. Backend is "fs" (default) or "minio".
	BlobBackend string `env:"IMGD_BLOB_BACKEND" env-default:"fs"`
	DataDir     string `env:"IMGD_DATA_DIR" env-default:"images"`

	// MinIO settings, only consulted when BlobBackend == "minio".
	S3Endpoint  string `env:"IMGD_S3_ENDPOINT"`
	S3AccessKey string `env:"IMGD_S3_ACCESS_KEY"`
	S3SecretKey string `env:"IMGD_S3_SECRET_KEY"`
	S3Bucket    string `env:"IMGD_S3_BUCKET"`

	// Upload hardening. 0 means no body size limit.
	MaxUploadBytes int64 `env:"IMGD_MAX_UPLOAD_BYTES" env-default:"33554432"`

	// Thumbnail worker pool size.
	ThumbWorkers int `env:"IMGD_THUMB_WORKERS" env-default:"4"`

	// Backfill job.
	BackfillEnabled  bool          `env:"IMGD_BACKFILL_ENABLED" env-default:"true"`
	BackfillInterval time.Duration `env:"IMGD_BACKFILL_INTERVAL" env-default:"10m"`
}

// Load reads .env (if any) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, err
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.ThumbWorkers < 1 {
		return errors.New("IMGD_THUMB_WORKERS must be at least 1")
	}
	switch c.BlobBackend {
	case "fs":
		if c.DataDir == "" {
			return errors.New("IMGD_DATA_DIR is required for the fs backend")
		}
	case "minio":
		if c.S3Endpoint == "" || c.S3AccessKey == "" || c.S3SecretKey == "" || c.S3Bucket == "" {
			return errors.New("minio configuration incomplete")
		}
	default:
		return errors.New("IMGD_BLOB_BACKEND must be fs or minio")
	}
	return nil
}
