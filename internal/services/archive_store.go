package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
)

// GCSArchiveStore writes delivered archives to a Cloud Storage bucket.
type GCSArchiveStore struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
	logger *logrus.Logger
	now    func() time.Time

	stored atomic.Int64
	failed atomic.Int64
}

// NewGCSArchiveStore connects with application default credentials.
func NewGCSArchiveStore(ctx context.Context, bucket string, logger *logrus.Logger) (*GCSArchiveStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSArchiveStore{
		client: client,
		bucket: client.Bucket(bucket),
		name:   bucket,
		logger: logger,
		now:    time.Now,
	}, nil
}

// ArchiveObjectName is <cnpj>/<UTC timestamp>-<uuid>.zip.
func ArchiveObjectName(cnpj string, at time.Time, id string) string {
	return fmt.Sprintf("%s/%s-%s.zip", cnpj, at.UTC().Format("20060102T150405Z"), id)
}

// Store uploads data under a fresh name. An object that already exists is
// left untouched and counts as stored.
func (s *GCSArchiveStore) Store(ctx context.Context, cnpj string, data []byte) (string, error) {
	object := ArchiveObjectName(cnpj, s.now(), uuid.NewString())
	w := s.bucket.Object(object).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = "application/zip"

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return object, s.uploadError(object, err)
	}
	if err := w.Close(); err != nil {
		return object, s.uploadError(object, err)
	}

	s.stored.Add(1)
	s.logger.WithFields(logrus.Fields{
		"bucket": s.name,
		"object": object,
		"bytes":  len(data),
	}).Info("Archive stored")
	return object, nil
}

func (s *GCSArchiveStore) uploadError(object string, err error) error {
	if isPreconditionFailed(err) {
		s.logger.WithField("object", object).Info("Archive already stored, skipping")
		return nil
	}
	s.failed.Add(1)
	return fmt.Errorf("failed to write gs://%s/%s: %w", s.name, object, err)
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

// Health returns store health status
func (s *GCSArchiveStore) Health() map[string]interface{} {
	return map[string]interface{}{
		"status": "healthy",
		"bucket": s.name,
		"stored": s.stored.Load(),
		"failed": s.failed.Load(),
	}
}

// Close releases the storage client.
func (s *GCSArchiveStore) Close() error {
	return s.client.Close()
}
