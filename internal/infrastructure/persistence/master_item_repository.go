package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/catalog"
	"github.com/cmsdsdssd/cms-s-sub001/internal/infrastructure/persistence/models"
)

// GormMasterItemRepository implements catalog.MasterItemRepository using GORM
type GormMasterItemRepository struct {
	db *gorm.DB
}

// NewGormMasterItemRepository creates a new GormMasterItemRepository
func NewGormMasterItemRepository(db *gorm.DB) *GormMasterItemRepository {
	return &GormMasterItemRepository{db: db}
}

// FindByID finds one master item by its ID
func (r *GormMasterItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.MasterItem, error) {
	var model models.MasterItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrMasterItemNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs batch-loads master items keyed by id; missing ids are absent
func (r *GormMasterItemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.MasterItem, error) {
	items := make(map[uuid.UUID]*catalog.MasterItem, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	var itemModels []models.MasterItemModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&itemModels).Error; err != nil {
		return nil, err
	}
	for i := range itemModels {
		item := itemModels[i].ToDomain()
		items[item.ID] = item
	}
	return items, nil
}
