package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/rs/zerolog"

	"github.com/yigit/kebele/internal/app/models"
	"github.com/yigit/kebele/internal/app/rules"
	"github.com/yigit/kebele/internal/pkg/apperrors"
	"github.com/yigit/kebele/internal/pkg/filestorage"
)

// UploadHandler validates submitted files and moves them into storage
type UploadHandler struct {
	storage        filestorage.FileStorage
	limits         rules.PhotoLimits
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(storage filestorage.FileStorage, limits rules.PhotoLimits, maxUploadBytes int64, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		storage:        storage,
		limits:         limits,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// URL resolves a storage key to its public URL
func (h *UploadHandler) URL(key string) string {
	return h.storage.URL(key)
}

// ValidateAttachments runs the per-file checks in slot order and returns the
// first failure.
func (h *UploadHandler) ValidateAttachments(files Uploads) error {
	for _, slot := range files.Slots() {
		fh := files[slot]
		if err := rules.CheckUploadSize(string(slot), fh.Size, h.maxUploadBytes); err != nil {
			return err
		}

		switch slot {
		case models.AttachmentPhoto:
			if err := h.withFile(fh, func(f multipart.File) error { return rules.CheckPhoto(f, h.limits) }); err != nil {
				return err
			}
		case models.AttachmentResidenceProof:
			if err := rules.CheckResidenceProof(fh.Filename); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateImage checks an optional image upload such as a profile picture
func (h *UploadHandler) ValidateImage(field string, fh *multipart.FileHeader) error {
	if fh == nil {
		return nil
	}
	if err := rules.CheckUploadSize(field, fh.Size, h.maxUploadBytes); err != nil {
		return err
	}
	return h.withFile(fh, func(f multipart.File) error { return rules.CheckImage(f, field) })
}

func (h *UploadHandler) withFile(fh *multipart.FileHeader, check func(multipart.File) error) error {
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()
	return check(f)
}

// Save stores one file under dir and returns its key
func (h *UploadHandler) Save(fh *multipart.FileHeader, dir string) (string, error) {
	key, err := h.storage.SaveFileWithPath(fh, dir)
	if err != nil {
		return "", fmt.Errorf("failed to store %q: %w", fh.Filename, err)
	}
	return key, nil
}

// SaveAttachments stores every upload under its slot's storage area. On
// failure the files already written are removed.
func (h *UploadHandler) SaveAttachments(files Uploads) (map[models.Attachment]string, error) {
	keys := make(map[models.Attachment]string, len(files))
	for _, slot := range files.Slots() {
		key, err := h.Save(files[slot], slot.StorageDir())
		if err != nil {
			h.DeleteKeys(valuesOf(keys))
			return nil, err
		}
		keys[slot] = key
	}
	return keys, nil
}

// Open returns the content stored under key
func (h *UploadHandler) Open(key string) (io.ReadSeekCloser, error) {
	f, err := h.storage.Open(key)
	if errors.Is(err, filestorage.ErrNotFound) || errors.Is(err, filestorage.ErrInvalidPath) {
		return nil, apperrors.ErrFileNotFound
	}
	return f, err
}

// DeleteKeys removes stored files, logging rather than returning failures
func (h *UploadHandler) DeleteKeys(keys []string) {
	for _, key := range keys {
		if err := h.storage.DeleteFile(key); err != nil {
			h.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete stored file")
		}
	}
}

func valuesOf(m map[models.Attachment]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
