package handlers

import (
	"errors"
	"io"
	"net/http"

	"donationhub/internal/storage"
)

type uploadResponse struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// UploadImage stores one image from the multipart field "file".
func (a *App) UploadImage(w http.ResponseWriter, r *http.Request) {
	actor := principal(r)
	if actor.Anonymous() {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	limit := a.MaxUploadBytes
	if limit <= 0 {
		limit = storage.MaxImageBytes
	}
	// Leave room for multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, limit+64<<10)
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "image exceeds upload limit")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "multipart field \"file\" required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read upload")
		return
	}
	if int64(len(data)) > limit {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "image exceeds upload limit")
		return
	}
	contentType, ext, err := storage.ValidateImage(data, limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	key := storage.NewImageKey(actor.UserID, ext, a.clock())
	url, err := a.Files.Put(r.Context(), key, contentType, data)
	if err != nil {
		a.Logger.Error().Err(err).Str("key", key).Msg("store upload failed")
		a.error(w, http.StatusServiceUnavailable, "unavailable", "failed to store image, retry")
		return
	}
	a.json(w, http.StatusCreated, uploadResponse{URL: url, Key: key, ContentType: contentType, Size: len(data)})
}
