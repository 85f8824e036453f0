package publisher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/models"
	"github.com/faizanprofitpilot/ZapSocial-sub001/app/repository"
)

// TextPublisher pushes a text post to a single platform.
type TextPublisher interface {
	Platform() string
	PublishText(ctx context.Context, integration *models.Integration, message string) (string, error)
}

// PostProcessor publishes due posts to their target platforms.
type PostProcessor struct {
	posts        repository.PostRepository
	integrations repository.IntegrationRepository
	logs         repository.ApiLogRepository
	publishers   map[string]TextPublisher
}

// NewPostProcessor wires the processor with its repositories and one
// publisher per supported platform.
func NewPostProcessor(posts repository.PostRepository, integrations repository.IntegrationRepository, logs repository.ApiLogRepository, publishers ...TextPublisher) *PostProcessor {
	byPlatform := make(map[string]TextPublisher, len(publishers))
	for _, p := range publishers {
		byPlatform[p.Platform()] = p
	}
	return &PostProcessor{
		posts:        posts,
		integrations: integrations,
		logs:         logs,
		publishers:   byPlatform,
	}
}

// Process publishes the post named by the job payload to every platform in
// its platform list. A platform that fails does not block the others; the
// job fails (and is retried) if any platform failed.
func (p *PostProcessor) Process(ctx context.Context, job *Job) error {
	if job.Type != JobTypePublishPost {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	payload, err := PublishPostJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid publish payload: %w", err)
	}

	post, err := p.posts.GetByID(payload.UserID, payload.PostID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Post deleted between scheduling and publish; nothing to do.
			log.Warnf("[Publisher] Post %d no longer exists, skipping", payload.PostID)
			return nil
		}
		return err
	}
	if post.Status == models.PostStatusPublished {
		return nil
	}

	var failures []string
	for _, platform := range post.PlatformList() {
		// A retry after a partial failure must not re-post to platforms
		// that already accepted it.
		if payload.HasPublished(platform) {
			continue
		}
		if err := p.publishToPlatform(ctx, post, platform); err != nil {
			log.Errorf("[Publisher] Post %d failed on %s: %v", post.ID, platform, err)
			failures = append(failures, fmt.Sprintf("%s: %v", platform, err))
			continue
		}
		payload.Published = append(payload.Published, platform)
	}
	job.Payload = payload.ToMap()

	if len(failures) > 0 {
		msg := strings.Join(failures, "; ")
		if err := p.posts.SetStatus(post.ID, models.PostStatusFailed, msg); err != nil {
			log.Errorf("[Publisher] Failed to mark post %d failed: %v", post.ID, err)
		}
		return errors.New(msg)
	}

	if err := p.posts.MarkPublished(post.ID, time.Now()); err != nil {
		return fmt.Errorf("failed to mark post %d published: %w", post.ID, err)
	}
	log.Infof("[Publisher] Post %d published to %s", post.ID, post.Platforms)
	return nil
}

func (p *PostProcessor) publishToPlatform(ctx context.Context, post *models.ScheduledPost, platform string) error {
	publisher, ok := p.publishers[platform]
	if !ok {
		return fmt.Errorf("no publisher configured for platform %s", platform)
	}

	integration, err := p.integrations.GetByUserAndPlatform(post.UserID, platform)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no %s connection for user %d", platform, post.UserID)
		}
		return err
	}
	if integration.IsExpired() {
		return fmt.Errorf("%s credentials expired, reconnect required", platform)
	}

	start := time.Now()
	externalPostID, err := publisher.PublishText(ctx, integration, post.Content)
	p.logPublish(post, integration, externalPostID, time.Since(start), err)
	return err
}

// logPublish appends an audit row for the outbound publish call. Audit
// failures are logged and swallowed; they never fail the publish.
func (p *PostProcessor) logPublish(post *models.ScheduledPost, integration *models.Integration, externalPostID string, duration time.Duration, publishErr error) {
	integrationID := integration.ID
	entry := &models.ApiLog{
		UserID:        post.UserID,
		IntegrationID: &integrationID,
		Platform:      integration.Platform,
		Endpoint:      fmt.Sprintf("/%s/feed", integration.ExternalAccountID),
		Method:        http.MethodPost,
		RequestBody:   post.Content,
		Success:       publishErr == nil,
		DurationMs:    duration.Milliseconds(),
	}
	if publishErr != nil {
		entry.ErrorMessage = publishErr.Error()
	} else {
		entry.ResponseBody = externalPostID
		entry.StatusCode = http.StatusOK
	}
	if err := p.logs.Create(entry); err != nil {
		log.Warnf("[Publisher] Failed to write audit row for post %d: %v", post.ID, err)
	}
}
