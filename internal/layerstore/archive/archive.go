// Package archive provides an optional MinIO-backed mirror of Layer 1
// (raw/), giving the layer store a durable copy, keyed by source and key, of every
// fetched source file independent of the local filesystem. The local
// filesystem remains the layer store's authoritative backend; this package
// only ever receives writes, never reads consulted by the pipeline itself.
package archive

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/culturemech/culturemech/internal/config"
	"github.com/culturemech/culturemech/internal/telemetry/logging"
	"github.com/culturemech/culturemech/pkg/errors"
)

// Mirror implements layerstore.ArchiveBackend against a MinIO (or any
// S3-compatible) bucket. Objects are keyed "<source>/<key>" so the bucket
// layout mirrors raw/'s own source subdirectories.
type Mirror struct {
	client *minio.Client
	bucket string
	log    logging.Logger
}

// NewMirror connects to cfg's endpoint and ensures the target bucket
// exists, creating it if this is the archive's first run.
func NewMirror(ctx context.Context, cfg config.MinIOConfig, log logging.Logger) (*Mirror, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "archive: create minio client")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "archive: check bucket "+cfg.Bucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, errors.CodeStorageError, "archive: create bucket "+cfg.Bucket)
		}
		log.Info("archive: created bucket", logging.String("bucket", cfg.Bucket))
	}

	return &Mirror{client: client, bucket: cfg.Bucket, log: log}, nil
}

// Archive uploads content under "<source>/<key>", overwriting any prior
// object at that path (a Layer-1 re-fetch supersedes the archived copy).
func (m *Mirror) Archive(ctx context.Context, source, key string, content []byte) error {
	objectName := source + "/" + key
	_, err := m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "archive: put object "+objectName)
	}
	return nil
}

// Fetch retrieves a previously archived object, for disaster recovery when
// the local raw/ directory has been lost.
func (m *Mirror) Fetch(ctx context.Context, source, key string) ([]byte, error) {
	objectName := source + "/" + key
	obj, err := m.client.GetObject(ctx, m.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "archive: get object "+objectName)
	}
	defer obj.Close()

	stat, err := obj.Stat()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNotFound, "archive: stat object "+objectName)
	}
	buf := make([]byte, stat.Size)
	if _, err := io.ReadFull(obj, buf); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "archive: read object "+objectName)
	}
	return buf, nil
}
