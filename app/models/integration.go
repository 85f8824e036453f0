package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
	PlatformLinkedIn  = "linkedin"
)

// Metadata keys written by the refresh flow. Values are strings so the column
// stays a flat key/value JSON object.
const (
	MetaExpired          = "expired"
	MetaExpiredAt        = "expired_at"
	MetaTokenRefreshedAt = "token_refreshed_at"
	MetaLastRefreshError = "last_refresh_error"
)

// MetadataMap stores provider specific facts about an integration as a JSON
// object column.
type MetadataMap map[string]string

func (m MetadataMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *MetadataMap) Scan(value interface{}) error {
	if value == nil {
		*m = MetadataMap{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata column type %T", value)
	}
	if len(raw) == 0 {
		*m = MetadataMap{}
		return nil
	}
	return json.Unmarshal(raw, m)
}

// Integration links one user to one external social platform account and
// holds its credentials. At most one row exists per (user, platform).
type Integration struct {
	ID                uint        `gorm:"primaryKey" json:"id"`
	UserID            uint        `gorm:"index:idx_user_platform,unique" json:"user_id"`
	Platform          string      `gorm:"index:idx_user_platform,unique;type:varchar(50)" json:"platform"`
	ExternalAccountID string      `gorm:"index;type:varchar(191)" json:"external_account_id"`
	AccountName       string      `gorm:"type:varchar(191)" json:"account_name"`
	AccessToken       string      `gorm:"type:text" json:"-"`
	RefreshToken      string      `gorm:"type:text" json:"-"`
	ExpiresAt         *time.Time  `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	Metadata          MetadataMap `gorm:"type:json" json:"metadata"`
	CreatedAt         time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsExpired reports whether a refresh marked this integration as needing
// re-authorization.
func (i *Integration) IsExpired() bool {
	return i.Metadata[MetaExpired] == "true"
}
