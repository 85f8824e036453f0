package repository

import (
	"gorm.io/gorm"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/models"
)

// apiLogRepository implements the ApiLogRepository interface
type apiLogRepository struct {
	db *gorm.DB
}

// NewApiLogRepository creates a new api log repository instance
func NewApiLogRepository(db *gorm.DB) ApiLogRepository {
	return &apiLogRepository{db: db}
}

// Create appends one audit row. Rows are write-once; there are no update or
// delete operations on this repository.
func (r *apiLogRepository) Create(entry *models.ApiLog) error {
	return r.db.Create(entry).Error
}
