package service

import (
	"context"
	"fmt"

	"quill/internal/models"
	"quill/internal/storage"

	"github.com/google/uuid"
)

// MediaService stores uploaded media blobs and hands back their public URLs.
type MediaService struct {
	store    storage.BlobStore
	maxBytes int64
}

type UploadInput struct {
	UID      string
	Filename string
	Data     []byte
}

// NewMediaService creates a MediaService. maxSizeMB bounds accepted uploads.
func NewMediaService(store storage.BlobStore, maxSizeMB int) *MediaService {
	return &MediaService{
		store:    store,
		maxBytes: int64(maxSizeMB) * 1024 * 1024,
	}
}

// Upload persists a blob under the uploader's namespace and returns its
// public URL. The session check happens before the storage path is built.
func (s *MediaService) Upload(ctx context.Context, in UploadInput) (string, error) {
	if in.UID == "" {
		return "", models.NewUnauthenticatedError("You must be signed in to upload media")
	}
	if in.Filename == "" {
		return "", models.NewValidationError("Filename is required")
	}
	if len(in.Data) == 0 {
		return "", models.NewValidationError("File is empty")
	}
	if s.maxBytes > 0 && int64(len(in.Data)) > s.maxBytes {
		return "", models.NewValidationError(
			fmt.Sprintf("File too large (max %d MB)", s.maxBytes/(1024*1024)))
	}

	// A random token after the original filename keeps repeat uploads of the
	// same file from colliding.
	path := in.UID + "/" + in.Filename + uuid.New().String()
	if err := s.store.Put(ctx, path, in.Data); err != nil {
		return "", err
	}
	return s.store.PublicURL(path), nil
}
