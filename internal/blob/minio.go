package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Minio stores blobs as objects in a MinIO (or S3-compatible) bucket.
// Meant for deployments where local disk is not durable; the fs backend
// remains the default.
type Minio struct {
	client *minio.Client
	bucket string
}

// MinioOptions carries the connection settings for NewMinio.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
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

func NewMinio(ctx context.Context, opts MinioOptions) (*Minio, error) {
	endpoint, secure, err := normaliseEndpoint(opts.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}

	// Sanity check: bucket must exist.
	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("bucket does not exist: %s", opts.Bucket)
	}

	return &Minio{client: client, bucket: opts.Bucket}, nil
}

func (s *Minio) WriteOriginal(id int64, r io.Reader) error {
	ctx := context.Background()
	key := OriginalName(id)

	// Existence check first; ids are freshly minted so the stat→put
	// window is not contended in practice.
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err == nil {
		return fmt.Errorf("%w: id %d", ErrConflict, id)
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, r, -1,
		minio.PutObjectOptions{ContentType: "image/jpeg"})
	if err != nil {
		return fmt.Errorf("put original %q: %w", key, err)
	}
	return nil
}

func (s *Minio) ReadOriginal(id int64) (io.ReadCloser, int64, error) {
	ctx := context.Background()
	key := OriginalName(id)

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("get original %q: %w", key, err)
	}

	// GetObject is lazy; Stat forces the missing-object error out now.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, 0, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return nil, 0, fmt.Errorf("stat original %q: %w", key, err)
	}
	return obj, info.Size, nil
}

func (s *Minio) WriteThumbnail(id int64, data []byte) error {
	key := ThumbnailName(id)
	_, err := s.client.PutObject(context.Background(), s.bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "image/jpeg"})
	if err != nil {
		return fmt.Errorf("put thumbnail %q: %w", key, err)
	}
	return nil
}

func (s *Minio) HasThumbnail(id int64) bool {
	_, err := s.client.StatObject(context.Background(), s.bucket,
		ThumbnailName(id), minio.StatObjectOptions{})
	return err == nil
}
