package gateway

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/better-hash/ai-video-generator/internal/services"
)

// MaxImageBytes is the hard ceiling for reference image uploads (5 MiB).
const MaxImageBytes int64 = 5 * 1024 * 1024

// ImageUpload is a reference image attached to a character request.
type ImageUpload struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Size returns the payload length in bytes.
func (u ImageUpload) Size() int64 { return int64(len(u.Data)) }

// ContentType returns the declared MIME type, sniffing the bytes when none
// was declared.
func (u ImageUpload) ContentType() string {
	if declared := strings.TrimSpace(u.MIMEType); declared != "" {
		return strings.ToLower(declared)
	}
	if len(u.Data) == 0 {
		return ""
	}
	return mimetype.Detect(u.Data).String()
}

// CheckImage validates an upload against the MIME and size rules using
// limit as the exclusive byte ceiling. A non-positive or oversized limit falls
// back to MaxImageBytes.
func CheckImage(upload ImageUpload, limit int64) error {
	if limit <= 0 || limit > MaxImageBytes {
		limit = MaxImageBytes
	}
	if len(upload.Data) == 0 {
		return services.Wrap(services.ErrValidation, "gateway", "check image", "image is empty", nil)
	}
	contentType := upload.ContentType()
	if !strings.HasPrefix(contentType, "image/") {
		return services.Wrap(
			services.ErrValidation,
			"gateway",
			"check image",
			fmt.Sprintf("unsupported file type %q, only images are accepted", contentType),
			nil,
		)
	}
	if upload.Size() >= limit {
		return services.Wrap(
			services.ErrValidation,
			"gateway",
			"check image",
			fmt.Sprintf("image is %d bytes, must be smaller than %d", upload.Size(), limit),
			nil,
		)
	}
	return nil
}

func (u ImageUpload) filename() string {
	name := strings.TrimSpace(u.Filename)
	if name != "" {
		return name
	}
	ext := mimetype.Lookup(u.ContentType())
	if ext != nil && ext.Extension() != "" {
		return "upload" + ext.Extension()
	}
	return "upload"
}
