package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage holds generated report documents under slash-separated
// object paths.
type ObjectStorage interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
	Read(ctx context.Context, objectPath string) ([]byte, error)
	Delete(ctx context.Context, objectPath string) error
}

type localStorage struct {
	root          string
	publicBaseURL string
}

// NewLocalStorage stores objects below root. Object URLs are built from
// publicBaseURL when set, otherwise they are file:// URLs.
func NewLocalStorage(root, publicBaseURL string) (ObjectStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &localStorage{
		root:          abs,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

func (s *localStorage) resolve(objectPath string) (string, error) {
	clean := path.Clean("/" + objectPath)
	if clean == "/" {
		return "", fmt.Errorf("invalid object path %q", objectPath)
	}
	full := filepath.Join(s.root, filepath.FromSlash(clean))
	if !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("object path %q escapes storage root", objectPath)
	}
	return full, nil
}

func (s *localStorage) Upload(ctx context.Context, objectPath string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, err := s.resolve(objectPath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}

	// write to a temp name first so a half-written object is never visible
	tmp := full + ".part"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return s.url(objectPath, full), nil
}

func (s *localStorage) url(objectPath, full string) string {
	if s.publicBaseURL != "" {
		segments := strings.Split(strings.TrimPrefix(path.Clean("/"+objectPath), "/"), "/")
		for i, seg := range segments {
			segments[i] = url.PathEscape(seg)
		}
		return s.publicBaseURL + "/" + strings.Join(segments, "/")
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(full)}).String()
}

func (s *localStorage) Read(ctx context.Context, objectPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(objectPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", objectPath, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (s *localStorage) Delete(ctx context.Context, objectPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(objectPath)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", objectPath, ErrObjectNotFound)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	// drop now-empty report directories, stopping at the first non-empty one
	for dir := filepath.Dir(full); dir != s.root && strings.HasPrefix(dir, s.root); dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			break
		}
	}
	return nil
}
