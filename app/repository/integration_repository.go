package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/models"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/encryption"
)

// integrationRepository implements the IntegrationRepository interface.
// Access and refresh tokens pass through the at-rest encryption helpers on
// every read and write so callers only ever handle plaintext.
type integrationRepository struct {
	db *gorm.DB
}

// NewIntegrationRepository creates a new integration repository instance
func NewIntegrationRepository(db *gorm.DB) IntegrationRepository {
	return &integrationRepository{db: db}
}

// Upsert creates the integration or replaces the existing row for the same
// (user, platform) pair.
func (r *integrationRepository) Upsert(integration *models.Integration) error {
	access, err := encryption.EncryptToken(integration.AccessToken)
	if err != nil {
		return err
	}
	refresh, err := encryption.EncryptToken(integration.RefreshToken)
	if err != nil {
		return err
	}

	row := *integration
	row.AccessToken = access
	row.RefreshToken = refresh
	if row.Metadata == nil {
		row.Metadata = models.MetadataMap{}
	}

	err = r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "platform"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"external_account_id", "account_name",
			"access_token", "refresh_token", "expires_at", "metadata",
		}),
	}).Create(&row).Error
	if err != nil {
		return err
	}
	integration.ID = row.ID
	return nil
}

// GetByID retrieves an integration scoped to its owning user
func (r *integrationRepository) GetByID(userID, id uint) (*models.Integration, error) {
	var integration models.Integration
	err := r.db.Where("user_id = ?", userID).First(&integration, id).Error
	if err != nil {
		return nil, err
	}
	return r.decrypt(&integration)
}

// GetByUserAndPlatform retrieves the single integration for a platform
func (r *integrationRepository) GetByUserAndPlatform(userID uint, platform string) (*models.Integration, error) {
	var integration models.Integration
	err := r.db.Where("user_id = ? AND platform = ?", userID, platform).First(&integration).Error
	if err != nil {
		return nil, err
	}
	return r.decrypt(&integration)
}

// GetByPlatformAndExternalID looks integrations up by the provider-issued
// account id. This is the indexed deauthorization lookup.
func (r *integrationRepository) GetByPlatformAndExternalID(platform, externalAccountID string) ([]models.Integration, error) {
	var integrations []models.Integration
	err := r.db.Where("platform = ? AND external_account_id = ?", platform, externalAccountID).Find(&integrations).Error
	if err != nil {
		return nil, err
	}
	for i := range integrations {
		if _, err := r.decrypt(&integrations[i]); err != nil {
			return nil, err
		}
	}
	return integrations, nil
}

// ListByUser returns all integrations of a user
func (r *integrationRepository) ListByUser(userID uint) ([]models.Integration, error) {
	var integrations []models.Integration
	err := r.db.Where("user_id = ?", userID).Order("platform asc").Find(&integrations).Error
	if err != nil {
		return nil, err
	}
	for i := range integrations {
		if _, err := r.decrypt(&integrations[i]); err != nil {
			return nil, err
		}
	}
	return integrations, nil
}

// UpdateTokens applies a refresh result in a single update statement
func (r *integrationRepository) UpdateTokens(id uint, accessToken, refreshToken string, expiresAt *time.Time, metadata models.MetadataMap) error {
	access, err := encryption.EncryptToken(accessToken)
	if err != nil {
		return err
	}
	refresh, err := encryption.EncryptToken(refreshToken)
	if err != nil {
		return err
	}
	if metadata == nil {
		metadata = models.MetadataMap{}
	}
	return r.db.Model(&models.Integration{}).Where("id = ?", id).Updates(map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"expires_at":    expiresAt,
		"metadata":      metadata,
	}).Error
}

// UpdateMetadata replaces the metadata column only
func (r *integrationRepository) UpdateMetadata(id uint, metadata models.MetadataMap) error {
	if metadata == nil {
		metadata = models.MetadataMap{}
	}
	return r.db.Model(&models.Integration{}).Where("id = ?", id).Update("metadata", metadata).Error
}

// Delete removes an integration scoped to its owning user
func (r *integrationRepository) Delete(userID, id uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.Integration{}, id).Error
}

// DeleteByIDs removes integrations by primary key, used by deauthorization
func (r *integrationRepository) DeleteByIDs(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Delete(&models.Integration{}, ids).Error
}

func (r *integrationRepository) decrypt(integration *models.Integration) (*models.Integration, error) {
	access, err := encryption.DecryptToken(integration.AccessToken)
	if err != nil {
		return nil, err
	}
	refresh, err := encryption.DecryptToken(integration.RefreshToken)
	if err != nil {
		return nil, err
	}
	integration.AccessToken = access
	integration.RefreshToken = refresh
	if integration.Metadata == nil {
		integration.Metadata = models.MetadataMap{}
	}
	return integration, nil
}
