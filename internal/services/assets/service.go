// Package assets validates and stores uploaded media through the blob
// store, handing back the keys that domain records reference.
package assets

import (
	"bytes"
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/webatelier/platform/internal/errors"
	"github.com/webatelier/platform/internal/logging"
	"github.com/webatelier/platform/internal/media"
)

// maxUploadBytes caps a single upload at 5 MiB.
const maxUploadBytes = 5 << 20

var allowedContentTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Service stores uploaded photos.
type Service struct {
	store media.Store
	log   *logging.Logger
}

// New constructs an asset service.
func New(store media.Store, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("assets")
	}
	return &Service{store: store, log: log}
}

// Upload validates and stores an image, returning its blob key. The key is
// namespaced by the owning site section, e.g. "profiles/".
func (s *Service) Upload(ctx context.Context, section, contentType string, body io.Reader) (string, error) {
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return "", errors.InvalidInput("unsupported content type").WithDetails("content_type", contentType)
	}
	if section == "" {
		return "", errors.InvalidInput("section is required")
	}

	// Read one byte past the cap so an oversized body is detected instead
	// of being stored truncated.
	data, err := io.ReadAll(io.LimitReader(body, maxUploadBytes+1))
	if err != nil {
		return "", errors.InvalidInput("failed to read upload").WithDetails("cause", err.Error())
	}
	if len(data) > maxUploadBytes {
		return "", errors.InvalidInput("upload exceeds size limit").WithDetails("max_bytes", maxUploadBytes)
	}

	key := fmt.Sprintf("%s/%s.%s", section, uuid.NewString(), ext)
	if err := s.store.Put(ctx, key, contentType, bytes.NewReader(data)); err != nil {
		return "", errors.Dependency("blob storage", err)
	}

	s.log.WithContext(ctx).WithField("key", key).Info("asset uploaded")
	return key, nil
}

// Get streams a stored asset.
func (s *Service) Get(ctx context.Context, key string) (media.Object, error) {
	obj, err := s.store.Get(ctx, key)
	if stderrors.Is(err, sql.ErrNoRows) {
		return media.Object{}, errors.NotFound("asset")
	}
	if err != nil {
		return media.Object{}, errors.Dependency("blob storage", err)
	}
	return obj, nil
}

// Delete removes a stored asset.
func (s *Service) Delete(ctx context.Context, key string) error {
	err := s.store.Delete(ctx, key)
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound("asset")
	}
	if err != nil {
		return errors.Dependency("blob storage", err)
	}
	return nil
}
