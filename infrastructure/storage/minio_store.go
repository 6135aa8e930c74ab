package storage

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioStore keeps blobs as objects of an S3-compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	log    *slog.Logger
}

// NewMinioStore connects to the endpoint and creates the bucket if needed.
func NewMinioStore(ctx context.Context, cfg MinioConfig, log *slog.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: minio client: %w", errors.ErrStorage, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: check bucket %s: %w", errors.ErrStorage, cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("%w: create bucket %s: %w", errors.ErrStorage, cfg.Bucket, err)
		}
		log.Info("Created bucket", "bucket", cfg.Bucket)
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, log: log}, nil
}

// Create streams the upload straight into PutObject. The object only
// exists once PutObject has received all size bytes, so a failed or
// aborted upload leaves any previous version untouched.
func (m *MinioStore) Create(ctx context.Context, key string, size int64) (contract.BlobWriter, error) {
	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(ctx)
	w := &minioWriter{pw: pw, cancel: cancel, done: make(chan error, 1)}
	go func() {
		_, err := m.client.PutObject(ctx, m.bucket, key, pr, size, minio.PutObjectOptions{
			ContentType: "application/octet-stream",
		})
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
	return w, nil
}

func (m *MinioStore) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	info, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, 0, fmt.Errorf("%w: %s", errors.ErrBlobNotFound, key)
		}
		return nil, 0, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	return obj, info.Size, nil
}

func (m *MinioStore) List(ctx context.Context) ([]contract.BlobInfo, error) {
	var blobs []contract.BlobInfo
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrStorage, obj.Err)
		}
		blobs = append(blobs, contract.BlobInfo{
			Key:       obj.Key,
			Size:      obj.Size,
			UpdatedAt: obj.LastModified,
		})
	}
	return blobs, nil
}

func (m *MinioStore) Close() error { return nil }

type minioWriter struct {
	pw     *io.PipeWriter
	cancel context.CancelFunc
	done   chan error
}

func (w *minioWriter) Write(p []byte) (int, error) {
	n, err := w.pw.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	return n, nil
}

func (w *minioWriter) Commit() error {
	defer w.cancel()
	_ = w.pw.Close()
	if err := <-w.done; err != nil {
		return fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	return nil
}

func (w *minioWriter) Abort() error {
	w.cancel()
	_ = w.pw.CloseWithError(io.ErrUnexpectedEOF)
	<-w.done
	return nil
}
