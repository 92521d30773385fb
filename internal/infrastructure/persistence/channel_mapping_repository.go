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

// GormMappingRepository implements channel.MappingRepository using GORM
type GormMappingRepository struct {
	db *gorm.DB
}

// NewGormMappingRepository creates a new GormMappingRepository
func NewGormMappingRepository(db *gorm.DB) *GormMappingRepository {
	return &GormMappingRepository{db: db}
}

// FindByID finds one mapping by its ID
func (r *GormMappingRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.Mapping, error) {
	var model models.ChannelMappingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, channel.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByChannel lists active mappings, optionally narrowed to a master
// item subset
func (r *GormMappingRepository) FindActiveByChannel(ctx context.Context, channelID uuid.UUID, masterItemIDs []uuid.UUID) ([]channel.Mapping, error) {
	query := r.db.WithContext(ctx).
		Where("channel_id = ? AND active = ?", channelID, true)
	if len(masterItemIDs) > 0 {
		query = query.Where("master_item_id IN ?", masterItemIDs)
	}

	var mappingModels []models.ChannelMappingModel
	err := query.
		Order("external_product_no ASC, external_variant_code ASC").
		Find(&mappingModels).Error
	if err != nil {
		return nil, err
	}

	mappings := make([]channel.Mapping, len(mappingModels))
	for i := range mappingModels {
		mappings[i] = *mappingModels[i].ToDomain()
	}
	return mappings, nil
}

// FindByProduct lists all mappings (base + variants) of one channel product
func (r *GormMappingRepository) FindByProduct(ctx context.Context, channelID uuid.UUID, productNo string) ([]channel.Mapping, error) {
	var mappingModels []models.ChannelMappingModel
	err := r.db.WithContext(ctx).
		Where("channel_id = ? AND external_product_no = ?", channelID, productNo).
		Order("external_variant_code ASC").
		Find(&mappingModels).Error
	if err != nil {
		return nil, err
	}

	mappings := make([]channel.Mapping, len(mappingModels))
	for i := range mappingModels {
		mappings[i] = *mappingModels[i].ToDomain()
	}
	return mappings, nil
}

// Save upserts one mapping by primary key
func (r *GormMappingRepository) Save(ctx context.Context, mapping *channel.Mapping) error {
	model := models.ChannelMappingModelFromDomain(mapping)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// SaveBatch upserts many mappings in one statement. Used by push
// auto-discovery to persist variant clones.
func (r *GormMappingRepository) SaveBatch(ctx context.Context, mappings []*channel.Mapping) error {
	if len(mappings) == 0 {
		return nil
	}
	mappingModels := make([]models.ChannelMappingModel, len(mappings))
	for i, mapping := range mappings {
		mappingModels[i].FromDomain(mapping)
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&mappingModels).Error
}

// GormRuleSetRepository implements channel.RuleSetRepository using GORM
type GormRuleSetRepository struct {
	db *gorm.DB
}

// NewGormRuleSetRepository creates a new GormRuleSetRepository
func NewGormRuleSetRepository(db *gorm.DB) *GormRuleSetRepository {
	return &GormRuleSetRepository{db: db}
}

// FindByID finds one rule set header by its ID
func (r *GormRuleSetRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.RuleSet, error) {
	var model models.RuleSetModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, channel.ErrMappingRuleSet
		}
		return nil, err
	}
	return model.ToDomain(), nil
}
