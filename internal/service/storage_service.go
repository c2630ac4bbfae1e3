package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"vue-dashboard-api/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	maxAvatarSize    = 5 * 1024 * 1024 // 5 MB
	avatarPathPrefix = "avatars"
)

var (
	ErrFileTooBig           = errors.New("file size exceeds 5MB limit")
	ErrInvalidFileType      = errors.New("invalid file type, only JPEG and PNG images are allowed")
	ErrBucketCreationFailed = errors.New("failed to create storage bucket")
	ErrUploadFailed         = errors.New("failed to upload file")
	ErrStorageDisabled      = errors.New("avatar storage is not configured")

	allowedContentTypes = map[string]struct{}{
		"image/jpeg": {},
		"image/png":  {},
	}
)

// AvatarStorage stores uploaded avatar images and returns a public URL for
// the user row. DeleteAvatar reclaims a replaced avatar's object by that URL.
type AvatarStorage interface {
	UploadAvatar(ctx context.Context, userID uint, file io.Reader, fileSize int64) (string, error)
	DeleteAvatar(ctx context.Context, url string) error
}

// MinioAvatarStorage implements AvatarStorage on MinIO/S3-compatible storage.
type MinioAvatarStorage struct {
	client        *minio.Client
	bucketName    string
	publicBaseURL string
	initOnce      sync.Once
	initErr       error
}

// NewMinioAvatarStorage creates a MinIO-backed avatar store. Bucket creation
// is deferred until the first upload to avoid blocking app startup.
func NewMinioAvatarStorage(cfg *config.Config) (*MinioAvatarStorage, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioAvatarStorage{
		client:        client,
		bucketName:    cfg.MinioBucket,
		publicBaseURL: cfg.MinioPublicBaseURL,
	}, nil
}

func (s *MinioAvatarStorage) lazyInit(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.ensureBucketExists(ctx)
	})
	return s.initErr
}

func (s *MinioAvatarStorage) ensureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("%w: check bucket existence: %v", ErrBucketCreationFailed, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: create bucket: %v", ErrBucketCreationFailed, err)
		}
	}
	return nil
}

// UploadAvatar validates and stores an avatar image, returning its public
// URL. The content type is detected from the actual bytes, not the upload's
// Content-Type header.
func (s *MinioAvatarStorage) UploadAvatar(ctx context.Context, userID uint, file io.Reader, fileSize int64) (string, error) {
	if fileSize > maxAvatarSize {
		return "", ErrFileTooBig
	}

	buf := make([]byte, 512)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("%w: read file for content detection: %v", ErrUploadFailed, err)
	}
	buf = buf[:n]

	detectedType := strings.ToLower(strings.TrimSpace(http.DetectContentType(buf)))
	if _, allowed := allowedContentTypes[detectedType]; !allowed {
		return "", ErrInvalidFileType
	}

	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}

	fullFile := io.MultiReader(bytes.NewReader(buf), file)
	objectKey := fmt.Sprintf("%s/user-%d/%s%s", avatarPathPrefix, userID, uuid.New().String(), contentTypeToExtension(detectedType))

	_, err = s.client.PutObject(ctx, s.bucketName, objectKey, fullFile, fileSize, minio.PutObjectOptions{
		ContentType: detectedType,
		UserMetadata: map[string]string{
			"User-ID":     fmt.Sprintf("%d", userID),
			"Uploaded-At": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return s.publicBaseURL + "/" + objectKey, nil
}

// DeleteAvatar removes a previously uploaded object, addressed by the public
// URL stored on the user row. URLs that do not belong to this store are
// ignored so externally hosted avatars (social-login profile images) survive.
func (s *MinioAvatarStorage) DeleteAvatar(ctx context.Context, url string) error {
	objectKey, ok := strings.CutPrefix(url, s.publicBaseURL+"/")
	if !ok || !strings.HasPrefix(objectKey, avatarPathPrefix+"/") {
		return nil
	}
	if err := s.lazyInit(ctx); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucketName, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove avatar object %q: %w", objectKey, err)
	}
	return nil
}

func contentTypeToExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ""
	}
}

// disabledAvatarStorage rejects uploads when no object store is configured.
type disabledAvatarStorage struct{}

func (disabledAvatarStorage) UploadAvatar(context.Context, uint, io.Reader, int64) (string, error) {
	return "", ErrStorageDisabled
}

// DeleteAvatar is a no-op: nothing was ever stored.
func (disabledAvatarStorage) DeleteAvatar(context.Context, string) error { return nil }

// NewAvatarStorage returns the MinIO store when enabled, otherwise a stub
// that rejects uploads.
func NewAvatarStorage(cfg *config.Config) (AvatarStorage, error) {
	if !cfg.AvatarStorageEnabled {
		return disabledAvatarStorage{}, nil
	}
	return NewMinioAvatarStorage(cfg)
}
