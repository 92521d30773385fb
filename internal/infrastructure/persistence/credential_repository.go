package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/channel"
	"github.com/cmsdsdssd/cms-s-sub001/internal/infrastructure/persistence/models"
)

// GormCredentialRepository implements channel.CredentialRepository using GORM.
// Save is a last-write-wins upsert keyed by channel id; concurrent token
// refreshes are harmless because tokens are fungible.
type GormCredentialRepository struct {
	db *gorm.DB
}

// NewGormCredentialRepository creates a new GormCredentialRepository
func NewGormCredentialRepository(db *gorm.DB) *GormCredentialRepository {
	return &GormCredentialRepository{db: db}
}

// Find returns the stored credential for a channel
func (r *GormCredentialRepository) Find(ctx context.Context, channelID uuid.UUID) (*channel.Credential, error) {
	var model models.ChannelCredentialModel
	if err := r.db.WithContext(ctx).First(&model, "channel_id = ?", channelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, channel.ErrCredentialNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save upserts the credential for a channel
func (r *GormCredentialRepository) Save(ctx context.Context, credential *channel.Credential) error {
	var model models.ChannelCredentialModel
	model.FromDomain(credential)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "channel_id"}},
			UpdateAll: true,
		}).
		Create(&model).Error
}
