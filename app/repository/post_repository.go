package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/models"
)

// postRepository implements the PostRepository interface
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository instance
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Create creates a new scheduled post
func (r *postRepository) Create(post *models.ScheduledPost) error {
	return r.db.Create(post).Error
}

// GetByID retrieves a post scoped to its owning user
func (r *postRepository) GetByID(userID, id uint) (*models.ScheduledPost, error) {
	var post models.ScheduledPost
	err := r.db.Where("user_id = ?", userID).First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListByUser returns a page of the user's posts, newest first
func (r *postRepository) ListByUser(userID uint, offset, limit int) ([]models.ScheduledPost, error) {
	var posts []models.ScheduledPost
	err := r.db.Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, err
}

// ListDue returns scheduled posts whose time has come
func (r *postRepository) ListDue(now time.Time, limit int) ([]models.ScheduledPost, error) {
	var posts []models.ScheduledPost
	err := r.db.Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?", models.PostStatusScheduled, now).
		Order("scheduled_at asc").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// Update saves a post
func (r *postRepository) Update(post *models.ScheduledPost) error {
	return r.db.Save(post).Error
}

// SetStatus updates status and last error in one statement
func (r *postRepository) SetStatus(id uint, status string, lastError string) error {
	return r.db.Model(&models.ScheduledPost{}).Where("id = ?", id).Updates(map[string]any{
		"status":     status,
		"last_error": lastError,
	}).Error
}

// MarkPublished finalizes a post after all platforms accepted it
func (r *postRepository) MarkPublished(id uint, publishedAt time.Time) error {
	return r.db.Model(&models.ScheduledPost{}).Where("id = ?", id).Updates(map[string]any{
		"status":       models.PostStatusPublished,
		"published_at": publishedAt,
		"last_error":   "",
	}).Error
}

// Delete removes a post scoped to its owning user
func (r *postRepository) Delete(userID, id uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.ScheduledPost{}, id).Error
}
