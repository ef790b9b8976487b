package rules

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/yigit/kebele/internal/app/models"
	"github.com/yigit/kebele/internal/pkg/apperrors"
)

const (
	// DefaultMinPhotoDimension is 1x1 inch at 300 dpi
	DefaultMinPhotoDimension = 300
	// DefaultMaxPhotoDimension is 2x2 inch at 300 dpi
	DefaultMaxPhotoDimension = 600

	photoDimensionMessage  = "Photo must be between 1x1 inch (300x300 px) and 2x2 inch (600x600 px)."
	photoUnreadableMessage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	residenceProofMessage  = "Residence proof must be a PDF file."
)

// PhotoLimits bounds the pixel size of an uploaded photo.
// A zero Max disables the upper bound.
type PhotoLimits struct {
	Min int
	Max int
}

// DefaultPhotoLimits returns the 300..600 px bounds
func DefaultPhotoLimits() PhotoLimits {
	return PhotoLimits{Min: DefaultMinPhotoDimension, Max: DefaultMaxPhotoDimension}
}

// CheckRequired returns a field error for the first attachment the candidate's
// kind requires but does not carry. Slots listed in incoming count as present
// because their files are about to be stored. Unknown kinds require nothing.
func CheckRequired(candidate *models.Application, incoming ...models.Attachment) error {
	k, ok := KindOf(candidate.ApplicationType)
	if !ok {
		return nil
	}

	for _, req := range k.Required {
		if candidate.AttachmentKey(req.Attachment) != nil {
			continue
		}
		if contains(incoming, req.Attachment) {
			continue
		}
		return apperrors.NewFieldError(string(req.Attachment), req.Message)
	}
	return nil
}

// CheckPhoto reads just enough of r to learn the image size and checks it
// against limits.
func CheckPhoto(r io.Reader, limits PhotoLimits) error {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return apperrors.NewFieldError(string(models.AttachmentPhoto), photoUnreadableMessage)
	}

	if cfg.Width < limits.Min || cfg.Height < limits.Min {
		return apperrors.NewFieldError(string(models.AttachmentPhoto), photoDimensionMessage)
	}
	if limits.Max > 0 && (cfg.Width > limits.Max || cfg.Height > limits.Max) {
		return apperrors.NewFieldError(string(models.AttachmentPhoto), photoDimensionMessage)
	}
	return nil
}

// CheckImage verifies that r holds an image in a supported format
func CheckImage(r io.Reader, field string) error {
	if _, _, err := image.DecodeConfig(r); err != nil {
		return apperrors.NewFieldError(field, photoUnreadableMessage)
	}
	return nil
}

// CheckResidenceProof accepts only file names ending in ".pdf"
func CheckResidenceProof(filename string) error {
	if !strings.HasSuffix(filename, ".pdf") {
		return apperrors.NewFieldError(string(models.AttachmentResidenceProof), residenceProofMessage)
	}
	return nil
}

// CheckUploadSize rejects files larger than maxBytes. Zero disables the cap.
func CheckUploadSize(slot string, size, maxBytes int64) error {
	if maxBytes > 0 && size > maxBytes {
		return apperrors.NewFieldError(slot, fmt.Sprintf("File too large. Maximum size is %d bytes.", maxBytes))
	}
	return nil
}

func contains(list []models.Attachment, a models.Attachment) bool {
	for _, v := range list {
		if v == a {
			return true
		}
	}
	return false
}
