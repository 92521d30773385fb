package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/shared"
)

// MasterItem is the catalog product as the pricing engine sees it.
// It is created and edited by the catalog workflow; this subsystem only reads it.
type MasterItem struct {
	ID uuid.UUID
	// ItemCode is the human-facing model number
	ItemCode string
	Name     string
	// CategoryCode classifies the item (ring, necklace, ...)
	CategoryCode string
	// MaterialCode is the default material (e.g. "14", "18", "925", "00")
	MaterialCode string
	// WeightGram is the default gross weight in grams
	WeightGram decimal.Decimal
	// DeductionWeightGram is subtracted from the gross weight (stones, findings)
	DeductionWeightGram decimal.Decimal
	// Labor components in KRW
	LaborBase   decimal.Decimal
	LaborCenter decimal.Decimal
	LaborSub1   decimal.Decimal
	LaborSub2   decimal.Decimal
	// Stone quantities multiplying the matching labor component
	CenterStoneQty int
	Sub1StoneQty   int
	Sub2StoneQty   int
	// PlatingPrice is added to labor when the mapping has plating enabled
	PlatingPrice decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NetWeight returns gross minus deduction plus the given extra grams, clamped at zero.
func (i *MasterItem) NetWeight(extraGram decimal.Decimal) decimal.Decimal {
	w := i.WeightGram.Sub(i.DeductionWeightGram).Add(extraGram)
	if w.IsNegative() {
		return decimal.Zero
	}
	return w
}

// LaborTotal returns the labor amount before ledger deltas and plating.
func (i *MasterItem) LaborTotal() decimal.Decimal {
	total := i.LaborBase
	total = total.Add(i.LaborCenter.Mul(decimal.NewFromInt(int64(i.CenterStoneQty))))
	total = total.Add(i.LaborSub1.Mul(decimal.NewFromInt(int64(i.Sub1StoneQty))))
	total = total.Add(i.LaborSub2.Mul(decimal.NewFromInt(int64(i.Sub2StoneQty))))
	return total
}

// Common catalog errors
var (
	ErrMasterItemNotFound = shared.NewDomainError("MASTER_ITEM_NOT_FOUND", "Master item not found")
)

// MasterItemRepository reads catalog products for pricing.
type MasterItemRepository interface {
	// FindByID finds one master item
	FindByID(ctx context.Context, id uuid.UUID) (*MasterItem, error)

	// FindByIDs batch-loads master items keyed by id; missing ids are absent from the map
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*MasterItem, error)
}
