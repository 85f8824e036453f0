package models

import "time"

// ApiLog is an append-only audit record of one outbound call to a social
// platform API. Rows are written after every attempt and never updated.
type ApiLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"index" json:"user_id"`
	IntegrationID *uint     `gorm:"index" json:"integration_id,omitempty"`
	Platform      string    `gorm:"type:varchar(50);index" json:"platform"`
	Endpoint      string    `gorm:"type:varchar(255)" json:"endpoint"`
	Method        string    `gorm:"type:varchar(10)" json:"method"`
	RequestBody   string    `gorm:"type:text" json:"request_body"`
	ResponseBody  string    `gorm:"type:text" json:"response_body"`
	StatusCode    int       `json:"status_code"`
	Success       bool      `gorm:"index" json:"success"`
	ErrorMessage  string    `gorm:"type:text" json:"error_message"`
	DurationMs    int64     `json:"duration_ms"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
