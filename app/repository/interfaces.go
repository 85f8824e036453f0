package repository

import (
	"time"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
}

// IntegrationRepository defines the interface for social platform connections.
// Token columns are encrypted at rest when a key is configured; callers always
// see plaintext tokens.
type IntegrationRepository interface {
	Upsert(integration *models.Integration) error
	GetByID(userID, id uint) (*models.Integration, error)
	GetByUserAndPlatform(userID uint, platform string) (*models.Integration, error)
	GetByPlatformAndExternalID(platform, externalAccountID string) ([]models.Integration, error)
	ListByUser(userID uint) ([]models.Integration, error)
	UpdateTokens(id uint, accessToken, refreshToken string, expiresAt *time.Time, metadata models.MetadataMap) error
	UpdateMetadata(id uint, metadata models.MetadataMap) error
	Delete(userID, id uint) error
	DeleteByIDs(ids []uint) error
}

// ApiLogRepository appends audit rows for outbound provider calls
type ApiLogRepository interface {
	Create(entry *models.ApiLog) error
}

// PostRepository defines the interface for scheduled post operations
type PostRepository interface {
	Create(post *models.ScheduledPost) error
	GetByID(userID, id uint) (*models.ScheduledPost, error)
	ListByUser(userID uint, offset, limit int) ([]models.ScheduledPost, error)
	ListDue(now time.Time, limit int) ([]models.ScheduledPost, error)
	Update(post *models.ScheduledPost) error
	SetStatus(id uint, status string, lastError string) error
	MarkPublished(id uint, publishedAt time.Time) error
	Delete(userID, id uint) error
}

// ChatRepository stores assistant conversation history
type ChatRepository interface {
	Create(message *models.ChatMessage) error
	ListByUser(userID uint, limit int) ([]models.ChatMessage, error)
}
