package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	apperrors "moments-backend/internal/common/errors"
	"moments-backend/internal/common/logger"
	"moments-backend/internal/features/media/models"
)

const keyPrefix = "moments/"

// ObjectStore is the subset of the S3 client used for media.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	URL(ctx context.Context, key string) (string, error)
}

type MediaService interface {
	Upload(ctx context.Context, filename string, body io.Reader) (*models.UploadResponse, error)
}

type mediaService struct {
	store    ObjectStore
	maxBytes int64
}

func NewMediaService(store ObjectStore, maxBytes int64) MediaService {
	return &mediaService{
		store:    store,
		maxBytes: maxBytes,
	}
}

// Upload stores body under its sha256 so identical uploads share one object.
func (s *mediaService) Upload(ctx context.Context, filename string, body io.Reader) (*models.UploadResponse, error) {
	if s.store == nil {
		return nil, apperrors.NewStorageError("upload media", fmt.Errorf("object storage is not configured"))
	}

	data, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return nil, apperrors.NewValidationError("file", "could not be read")
	}
	if len(data) == 0 {
		return nil, apperrors.NewValidationError("file", "is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, apperrors.NewValidationError("file", fmt.Sprintf("must be at most %d bytes", s.maxBytes))
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "video/") {
		return nil, apperrors.NewValidationError("file", "must be an image or video")
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	key := keyPrefix + hash + extension(filename, contentType)

	if err := s.store.Put(ctx, key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, apperrors.NewStorageError("put object", err)
	}
	url, err := s.store.URL(ctx, key)
	if err != nil {
		return nil, apperrors.NewStorageError("object url", err)
	}

	logger.Info().
		Str("key", key).
		Int("size", len(data)).
		Str("content_type", contentType).
		Msg("Media uploaded")

	return &models.UploadResponse{ContentHash: hash, ImageURL: url}, nil
}

func extension(filename, contentType string) string {
	if ext := strings.ToLower(path.Ext(filename)); ext != "" && len(ext) <= 6 {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}
