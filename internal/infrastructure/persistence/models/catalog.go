package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/catalog"
)

// MasterItemModel is the persistence model for the MasterItem domain entity.
type MasterItemModel struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primary_key"`
	ItemCode            string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_master_item_code"`
	Name                string          `gorm:"type:varchar(255);not null"`
	CategoryCode        string          `gorm:"type:varchar(20);not null;index"`
	MaterialCode        string          `gorm:"type:varchar(10);not null"`
	WeightGram          decimal.Decimal `gorm:"type:numeric(10,3);not null"`
	DeductionWeightGram decimal.Decimal `gorm:"type:numeric(10,3);not null;default:0"`
	LaborBase           decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	LaborCenter         decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	LaborSub1           decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	LaborSub2           decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CenterStoneQty      int             `gorm:"not null;default:0"`
	Sub1StoneQty        int             `gorm:"not null;default:0"`
	Sub2StoneQty        int             `gorm:"not null;default:0"`
	PlatingPrice        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CreatedAt           time.Time       `gorm:"not null"`
	UpdatedAt           time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MasterItemModel) TableName() string {
	return "master_items"
}

// ToDomain converts the persistence model to a domain MasterItem entity.
func (m *MasterItemModel) ToDomain() *catalog.MasterItem {
	return &catalog.MasterItem{
		ID:                  m.ID,
		ItemCode:            m.ItemCode,
		Name:                m.Name,
		CategoryCode:        m.CategoryCode,
		MaterialCode:        m.MaterialCode,
		WeightGram:          m.WeightGram,
		DeductionWeightGram: m.DeductionWeightGram,
		LaborBase:           m.LaborBase,
		LaborCenter:         m.LaborCenter,
		LaborSub1:           m.LaborSub1,
		LaborSub2:           m.LaborSub2,
		CenterStoneQty:      m.CenterStoneQty,
		Sub1StoneQty:        m.Sub1StoneQty,
		Sub2StoneQty:        m.Sub2StoneQty,
		PlatingPrice:        m.PlatingPrice,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}
