package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/models"
	"github.com/faizanprofitpilot/ZapSocial-sub001/app/repository"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/publisher"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/usercontext"
)

type createPostRequest struct {
	Content     string     `json:"content"`
	MediaURL    string     `json:"media_url"`
	Platforms   []string   `json:"platforms"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// HandleCreatePost creates a draft or scheduled post
func HandleCreatePost(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	status := models.PostStatusDraft
	if req.ScheduledAt != nil {
		if req.ScheduledAt.Before(time.Now()) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "scheduled_at must be in the future"})
		}
		status = models.PostStatusScheduled
	}

	post := &models.ScheduledPost{
		UserID:      userCtx.UserID,
		Content:     req.Content,
		MediaURL:    req.MediaURL,
		Platforms:   strings.Join(req.Platforms, ","),
		Status:      status,
		ScheduledAt: req.ScheduledAt,
	}
	if err := post.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}
	for _, platform := range post.PlatformList() {
		if platform != models.PlatformFacebook && platform != models.PlatformInstagram && platform != models.PlatformLinkedIn {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unknown platform: " + platform})
		}
	}

	repo := repository.GetGlobalFactory().GetPostRepository()
	if err := repo.Create(post); err != nil {
		log.Errorf("[Posts] Failed to create post for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create post"})
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// HandleListPosts returns the user's posts, newest first
func HandleListPosts(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	repo := repository.GetGlobalFactory().GetPostRepository()
	posts, err := repo.ListByUser(userCtx.UserID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load posts"})
	}

	return c.JSON(fiber.Map{"posts": posts, "offset": offset, "limit": limit})
}

// HandleGetPost returns one post by id
func HandleGetPost(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid post id"})
	}

	repo := repository.GetGlobalFactory().GetPostRepository()
	post, err := repo.GetByID(userCtx.UserID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Post not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load post"})
	}

	return c.JSON(post)
}

// HandleDeletePost deletes a post that has not been published yet
func HandleDeletePost(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid post id"})
	}

	repo := repository.GetGlobalFactory().GetPostRepository()
	post, err := repo.GetByID(userCtx.UserID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Post not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load post"})
	}
	if post.Status == models.PostStatusPublishing {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Post is being published"})
	}

	if err := repo.Delete(userCtx.UserID, uint(id)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete post"})
	}

	return c.JSON(fiber.Map{"message": "deleted"})
}

// HandlePublishPostNow queues a post for immediate publication
func HandlePublishPostNow(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid post id"})
	}

	repo := repository.GetGlobalFactory().GetPostRepository()
	post, err := repo.GetByID(userCtx.UserID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Post not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load post"})
	}
	if post.Status == models.PostStatusPublished {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Post already published"})
	}

	manager := publisher.GetManager()
	if manager == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service_unavailable", "message": "Publisher is not running"})
	}

	if err := repo.SetStatus(post.ID, models.PostStatusPublishing, ""); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to queue post"})
	}
	payload := publisher.PublishPostJobPayload{PostID: post.ID, UserID: post.UserID}
	if _, err := manager.GetQueue().EnqueueJob(publisher.JobTypePublishPost, payload.ToMap()); err != nil {
		log.Errorf("[Posts] Failed to enqueue publish for post %d: %v", post.ID, err)
		if serr := repo.SetStatus(post.ID, post.Status, post.LastError); serr != nil {
			log.Errorf("[Posts] Failed to restore status for post %d: %v", post.ID, serr)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to queue post"})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "queued", "post_id": post.ID})
}
