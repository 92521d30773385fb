package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/pricing"
	"github.com/cmsdsdssd/cms-s-sub001/internal/infrastructure/persistence/models"
)

// GormPolicyRepository implements pricing.PolicyRepository using GORM
type GormPolicyRepository struct {
	db *gorm.DB
}

// NewGormPolicyRepository creates a new GormPolicyRepository
func NewGormPolicyRepository(db *gorm.DB) *GormPolicyRepository {
	return &GormPolicyRepository{db: db}
}

// FindActiveByChannel returns the active policy for a channel
func (r *GormPolicyRepository) FindActiveByChannel(ctx context.Context, channelID uuid.UUID) (*pricing.Policy, error) {
	var model models.PricingPolicyModel
	err := r.db.WithContext(ctx).
		Where("channel_id = ? AND active = ?", channelID, true).
		Order("updated_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pricing.ErrPolicyNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GormFactorRepository implements pricing.FactorRepository using GORM
type GormFactorRepository struct {
	db *gorm.DB
}

// NewGormFactorRepository creates a new GormFactorRepository
func NewGormFactorRepository(db *gorm.DB) *GormFactorRepository {
	return &GormFactorRepository{db: db}
}

// FindBySet returns every factor row of one factor set
func (r *GormFactorRepository) FindBySet(ctx context.Context, factorSetID uuid.UUID) ([]pricing.MaterialFactor, error) {
	var factorModels []models.MaterialFactorModel
	err := r.db.WithContext(ctx).
		Where("factor_set_id = ?", factorSetID).
		Order("material_code ASC").
		Find(&factorModels).Error
	if err != nil {
		return nil, err
	}
	if len(factorModels) == 0 {
		return nil, pricing.ErrFactorSetNotFound
	}

	factors := make([]pricing.MaterialFactor, len(factorModels))
	for i := range factorModels {
		factors[i] = factorModels[i].ToDomain()
	}
	return factors, nil
}

// GormTickRepository implements pricing.TickRepository using GORM
type GormTickRepository struct {
	db *gorm.DB
}

// NewGormTickRepository creates a new GormTickRepository
func NewGormTickRepository(db *gorm.DB) *GormTickRepository {
	return &GormTickRepository{db: db}
}

// Latest returns the newest observed quote. Ticks are insert-only, so the
// newest quoted_at row is authoritative.
func (r *GormTickRepository) Latest(ctx context.Context) (*pricing.MarketTick, error) {
	var model models.MarketTickModel
	err := r.db.WithContext(ctx).
		Order("quoted_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pricing.ErrTickNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}
