package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/storage/v1"
)

type gcsStorage struct {
	objects *storage.ObjectsService
	bucket  string
}

// NewGCSStorage stores objects in a Cloud Storage bucket. An empty
// credentialsFile falls back to application default credentials.
func NewGCSStorage(ctx context.Context, bucket, credentialsFile string) (ObjectStorage, error) {
	if bucket == "" {
		return nil, fmt.Errorf("GCS_BUCKET is required for the gcs storage backend")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &gcsStorage{objects: svc.Objects, bucket: bucket}, nil
}

func (s *gcsStorage) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	obj := &storage.Object{Name: objectPath, ContentType: contentType}

	stored, err := s.objects.Insert(s.bucket, obj).
		Media(bytes.NewReader(data), googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	return s.publicURL(stored.Name), nil
}

func (s *gcsStorage) publicURL(name string) string {
	segments := strings.Split(name, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, strings.Join(segments, "/"))
}

func (s *gcsStorage) Read(ctx context.Context, objectPath string) ([]byte, error) {
	resp, err := s.objects.Get(s.bucket, objectPath).Context(ctx).Download()
	if err != nil {
		if isGCSNotFound(err) {
			return nil, fmt.Errorf("%s: %w", objectPath, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to download object: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

func (s *gcsStorage) Delete(ctx context.Context, objectPath string) error {
	if err := s.objects.Delete(s.bucket, objectPath).Context(ctx).Do(); err != nil {
		if isGCSNotFound(err) {
			return fmt.Errorf("%s: %w", objectPath, ErrObjectNotFound)
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func isGCSNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
