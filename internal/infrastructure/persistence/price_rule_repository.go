package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/pricing"
	"github.com/cmsdsdssd/cms-s-sub001/internal/infrastructure/persistence/models"
)

// GormRuleRepository implements pricing.RuleRepository using GORM.
// All four rule families live in one table discriminated by the family
// column; rows are partitioned back into a RuleTable on read.
type GormRuleRepository struct {
	db *gorm.DB
}

// NewGormRuleRepository creates a new GormRuleRepository
func NewGormRuleRepository(db *gorm.DB) *GormRuleRepository {
	return &GormRuleRepository{db: db}
}

// FindActiveBySet loads one rule set's active rules
func (r *GormRuleRepository) FindActiveBySet(ctx context.Context, ruleSetID uuid.UUID) (*pricing.RuleTable, error) {
	tables, err := r.FindActiveBySets(ctx, []uuid.UUID{ruleSetID})
	if err != nil {
		return nil, err
	}
	if table, ok := tables[ruleSetID]; ok {
		return table, nil
	}
	return &pricing.RuleTable{}, nil
}

// FindActiveBySets batch-loads active rules for many rule sets
func (r *GormRuleRepository) FindActiveBySets(ctx context.Context, ruleSetIDs []uuid.UUID) (map[uuid.UUID]*pricing.RuleTable, error) {
	tables := make(map[uuid.UUID]*pricing.RuleTable, len(ruleSetIDs))
	if len(ruleSetIDs) == 0 {
		return tables, nil
	}

	var ruleModels []models.PriceRuleModel
	err := r.db.WithContext(ctx).
		Where("rule_set_id IN ? AND active = ?", ruleSetIDs, true).
		Order("priority ASC, created_at ASC").
		Find(&ruleModels).Error
	if err != nil {
		return nil, err
	}

	for i := range ruleModels {
		m := &ruleModels[i]
		table, ok := tables[m.RuleSetID]
		if !ok {
			table = &pricing.RuleTable{}
			tables[m.RuleSetID] = table
		}
		switch pricing.RuleFamily(m.Family) {
		case pricing.FamilyMaterialSwap:
			table.Swap = append(table.Swap, m.ToSwapRule())
		case pricing.FamilyWeightRange:
			table.Weight = append(table.Weight, m.ToWeightRule())
		case pricing.FamilyColorMargin:
			table.Color = append(table.Color, m.ToColorRule())
		case pricing.FamilyDecoration:
			table.Decoration = append(table.Decoration, m.ToDecorationRule())
		}
	}
	return tables, nil
}
