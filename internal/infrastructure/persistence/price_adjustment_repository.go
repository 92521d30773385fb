package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/pricing"
	"github.com/cmsdsdssd/cms-s-sub001/internal/infrastructure/persistence/models"
)

// GormAdjustmentRepository implements pricing.AdjustmentRepository using GORM
type GormAdjustmentRepository struct {
	db *gorm.DB
}

// NewGormAdjustmentRepository creates a new GormAdjustmentRepository
func NewGormAdjustmentRepository(db *gorm.DB) *GormAdjustmentRepository {
	return &GormAdjustmentRepository{db: db}
}

// FindActive returns adjustments valid at the given instant. Channel-scoped
// rows are narrowed to the channel; item-scoped rows are returned for all
// items and filtered per mapping by the caller.
func (r *GormAdjustmentRepository) FindActive(ctx context.Context, channelID uuid.UUID, at time.Time) ([]pricing.Adjustment, error) {
	var adjustmentModels []models.PriceAdjustmentModel
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("scope <> ? OR scope_ref = ?", string(pricing.ScopeChannel), channelID).
		Where("valid_from IS NULL OR valid_from <= ?", at).
		Where("valid_to IS NULL OR valid_to >= ?", at).
		Order("created_at ASC").
		Find(&adjustmentModels).Error
	if err != nil {
		return nil, err
	}

	adjustments := make([]pricing.Adjustment, len(adjustmentModels))
	for i := range adjustmentModels {
		adjustments[i] = adjustmentModels[i].ToDomain()
	}
	return adjustments, nil
}

// FindActiveOverrides returns overrides valid at the given instant keyed by
// master item id. The newest row per item wins.
func (r *GormAdjustmentRepository) FindActiveOverrides(ctx context.Context, at time.Time) (map[uuid.UUID]pricing.Override, error) {
	var overrideModels []models.PriceOverrideModel
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("valid_from IS NULL OR valid_from <= ?", at).
		Where("valid_to IS NULL OR valid_to >= ?", at).
		Order("updated_at ASC").
		Find(&overrideModels).Error
	if err != nil {
		return nil, err
	}

	overrides := make(map[uuid.UUID]pricing.Override, len(overrideModels))
	for i := range overrideModels {
		override := overrideModels[i].ToDomain()
		overrides[override.MasterItemID] = override
	}
	return overrides, nil
}

type ledgerSumRow struct {
	MasterItemID uuid.UUID       `gorm:"column:master_item_id"`
	Total        decimal.Decimal `gorm:"column:total"`
}

// SumLedger returns the cumulative ledger amount per master item for one
// ledger kind
func (r *GormAdjustmentRepository) SumLedger(ctx context.Context, kind pricing.LedgerKind) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []ledgerSumRow
	err := r.db.WithContext(ctx).
		Model(&models.PriceLedgerEntryModel{}).
		Select("master_item_id, SUM(amount) AS total").
		Where("kind = ?", string(kind)).
		Group("master_item_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	sums := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.MasterItemID] = row.Total
	}
	return sums, nil
}
