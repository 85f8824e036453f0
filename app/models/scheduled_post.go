package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	PostStatusDraft      = "draft"
	PostStatusScheduled  = "scheduled"
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)

// ScheduledPost is a piece of content queued for publication to one or more
// connected platforms. Platforms is stored as a comma separated list of
// platform names.
type ScheduledPost struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"index" json:"user_id"`
	Content     string     `gorm:"type:text" json:"content" validate:"required,max=5000"`
	MediaURL    string     `gorm:"type:varchar(512)" json:"media_url"`
	Platforms   string     `gorm:"type:varchar(191)" json:"platforms" validate:"required"`
	Status      string     `gorm:"type:varchar(20);default:'draft';index" json:"status" validate:"oneof=draft scheduled publishing published failed"`
	ScheduledAt *time.Time `gorm:"type:timestamp;default:null;index" json:"scheduled_at,omitempty"`
	PublishedAt *time.Time `gorm:"type:timestamp;default:null" json:"published_at,omitempty"`
	LastError   string     `gorm:"type:text" json:"last_error"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *ScheduledPost) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// PlatformList splits the Platforms column into its platform names.
func (p *ScheduledPost) PlatformList() []string {
	var out []string
	for _, part := range strings.Split(p.Platforms, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}
