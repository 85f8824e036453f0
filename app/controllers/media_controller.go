package controllers

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/mediastore"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/usercontext"
)

// maxMediaUploadBytes caps a single media upload at 25 MB.
const maxMediaUploadBytes = 25 << 20

var mediaStore *mediastore.Store

// SetMediaStore wires the media storage used by upload handlers. Called from
// main during startup, stays nil when media storage is disabled.
func SetMediaStore(store *mediastore.Store) {
	mediaStore = store
}

var allowedMediaTypes = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".mp4":  true,
}

// HandleUploadMedia stores a media file for later use in posts and returns
// its servable URL.
func HandleUploadMedia(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	if mediaStore == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service_unavailable", "message": "Media storage is not configured"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Missing file upload"})
	}
	if fileHeader.Size > maxMediaUploadBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "too_large", "message": "File exceeds the upload limit"})
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedMediaTypes[ext] {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "unsupported_type", "message": "Unsupported file type: " + ext})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to read upload"})
	}
	defer file.Close()

	objectKey := mediastore.NewObjectKey(userCtx.UserID, ext, time.Now())
	contentType := fileHeader.Header.Get("Content-Type")

	result, err := mediaStore.Upload(c.Context(), objectKey, file, fileHeader.Size, contentType)
	if err != nil {
		log.Errorf("[Media] Upload failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Upload failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"object_key":   result.ObjectKey,
		"url":          result.URL,
		"size":         result.Size,
		"content_type": result.ContentType,
	})
}
