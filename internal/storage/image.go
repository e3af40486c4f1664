package storage

import (
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"

	"donationhub/internal/domain"
)

// MaxImageBytes is the largest accepted upload.
const MaxImageBytes = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ValidateImage checks the upload size and sniffs its content type. The
// declared type from the client is never trusted.
func ValidateImage(data []byte, maxBytes int64) (contentType, ext string, err error) {
	if maxBytes <= 0 {
		maxBytes = MaxImageBytes
	}
	if len(data) == 0 {
		return "", "", fmt.Errorf("%w: empty file", domain.ErrInvalidInput)
	}
	if int64(len(data)) > maxBytes {
		return "", "", fmt.Errorf("%w: file exceeds %d bytes", domain.ErrInvalidInput, maxBytes)
	}
	contentType = http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", "", fmt.Errorf("%w: unsupported image type %s", domain.ErrInvalidInput, contentType)
	}
	return contentType, ext, nil
}

// NewImageKey returns a unique object key for an upload by userID.
func NewImageKey(userID, ext string, now time.Time) string {
	return path.Join(
		"donations",
		now.UTC().Format("2006/01/02"),
		userID,
		uuid.NewString()+ext,
	)
}
