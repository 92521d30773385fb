package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/pricing"
)

// PricingPolicyModel is the persistence model for the channel pricing policy.
type PricingPolicyModel struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primary_key"`
	ChannelID             uuid.UUID       `gorm:"type:uuid;not null;index:idx_pricing_policy_channel"`
	MarginMultiplier      decimal.Decimal `gorm:"type:numeric(8,4);not null;default:1"`
	RoundUnit             decimal.Decimal `gorm:"type:numeric(10,2);not null;default:1"`
	RoundMode             string          `gorm:"type:varchar(10);not null;default:'ROUND'"`
	DefaultSwapMultiplier decimal.Decimal `gorm:"type:numeric(8,4);not null;default:1.2"`
	MaterialFactorSetID   uuid.UUID       `gorm:"type:uuid;not null"`
	Active                bool            `gorm:"not null;default:true"`
	CreatedAt             time.Time       `gorm:"not null"`
	UpdatedAt             time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PricingPolicyModel) TableName() string {
	return "pricing_policies"
}

// ToDomain converts the persistence model to a domain Policy.
func (m *PricingPolicyModel) ToDomain() *pricing.Policy {
	return &pricing.Policy{
		ID:                    m.ID,
		ChannelID:             m.ChannelID,
		MarginMultiplier:      m.MarginMultiplier,
		RoundUnit:             m.RoundUnit,
		RoundMode:             pricing.RoundingMode(m.RoundMode),
		DefaultSwapMultiplier: m.DefaultSwapMultiplier,
		MaterialFactorSetID:   m.MaterialFactorSetID,
		Active:                m.Active,
	}
}

// MaterialFactorModel is the persistence model for one material factor row.
type MaterialFactorModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	FactorSetID  uuid.UUID       `gorm:"type:uuid;not null;index:idx_material_factor_set"`
	MaterialCode string          `gorm:"type:varchar(10);not null"`
	PurityRate   decimal.Decimal `gorm:"type:numeric(8,4);not null"`
	AdjustFactor decimal.Decimal `gorm:"type:numeric(8,4);not null;default:1"`
	Basis        string          `gorm:"type:varchar(10);not null;default:'GOLD'"`
	CreatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MaterialFactorModel) TableName() string {
	return "material_factors"
}

// ToDomain converts the persistence model to a domain MaterialFactor.
func (m *MaterialFactorModel) ToDomain() pricing.MaterialFactor {
	return pricing.MaterialFactor{
		ID:           m.ID,
		FactorSetID:  m.FactorSetID,
		MaterialCode: m.MaterialCode,
		PurityRate:   m.PurityRate,
		AdjustFactor: m.AdjustFactor,
		Basis:        pricing.Basis(m.Basis),
	}
}

// MarketTickModel is the persistence model for one observed commodity quote.
// Rows are insert-only; readers take the newest by quoted_at.
type MarketTickModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	GoldPerGram   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	SilverPerGram decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Source        string          `gorm:"type:varchar(50);not null"`
	QuotedAt      time.Time       `gorm:"not null;index:idx_market_tick_quoted_at,sort:desc"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MarketTickModel) TableName() string {
	return "market_ticks"
}

// ToDomain converts the persistence model to a domain MarketTick.
func (m *MarketTickModel) ToDomain() *pricing.MarketTick {
	return &pricing.MarketTick{
		GoldPerGram:   m.GoldPerGram,
		SilverPerGram: m.SilverPerGram,
		Source:        m.Source,
		QuotedAt:      m.QuotedAt,
	}
}

// PriceRuleModel stores all four rule families in one table, discriminated by
// the family column. Family-specific columns are nullable.
type PriceRuleModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	RuleSetID uuid.UUID `gorm:"type:uuid;not null;index:idx_price_rule_set"`
	Family    string    `gorm:"type:varchar(5);not null;index:idx_price_rule_set,priority:2"`

	SourceMaterial   string           `gorm:"type:varchar(10)"`
	TargetMaterial   string           `gorm:"type:varchar(10)"`
	MaterialCode     string           `gorm:"type:varchar(10)"`
	ColorCode        string           `gorm:"type:varchar(20)"`
	DecorationCode   string           `gorm:"type:varchar(20)"`
	CategoryCode     string           `gorm:"type:varchar(20)"`
	LinkedSwapRuleID *uuid.UUID       `gorm:"type:uuid"`
	WeightMin        *decimal.Decimal `gorm:"type:numeric(10,3)"`
	WeightMax        *decimal.Decimal `gorm:"type:numeric(10,3)"`
	MarginMin        *decimal.Decimal `gorm:"type:numeric(14,2)"`
	MarginMax        *decimal.Decimal `gorm:"type:numeric(14,2)"`
	OptionRangeExpr  string           `gorm:"type:varchar(100)"`

	Multiplier decimal.Decimal `gorm:"type:numeric(8,4);not null;default:0"`
	Delta      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	RoundUnit  decimal.Decimal `gorm:"type:numeric(10,2);not null;default:1"`
	RoundMode  string          `gorm:"type:varchar(10);not null;default:'ROUND'"`
	Priority   int             `gorm:"not null;default:100"`
	Active     bool            `gorm:"not null;default:true"`
	CreatedAt  time.Time       `gorm:"not null"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PriceRuleModel) TableName() string {
	return "price_rules"
}

// ToSwapRule converts a family R1 row.
func (m *PriceRuleModel) ToSwapRule() pricing.MaterialSwapRule {
	return pricing.MaterialSwapRule{
		ID:             m.ID,
		RuleSetID:      m.RuleSetID,
		SourceMaterial: m.SourceMaterial,
		TargetMaterial: m.TargetMaterial,
		CategoryCode:   m.CategoryCode,
		WeightMin:      m.WeightMin,
		WeightMax:      m.WeightMax,
		Multiplier:     m.Multiplier,
		RoundUnit:      m.RoundUnit,
		RoundMode:      pricing.RoundingMode(m.RoundMode),
		Priority:       m.Priority,
		Active:         m.Active,
	}
}

// ToWeightRule converts a family R2 row.
func (m *PriceRuleModel) ToWeightRule() pricing.WeightRangeRule {
	return pricing.WeightRangeRule{
		ID:               m.ID,
		RuleSetID:        m.RuleSetID,
		LinkedSwapRuleID: m.LinkedSwapRuleID,
		MaterialCode:     m.MaterialCode,
		CategoryCode:     m.CategoryCode,
		WeightMin:        m.WeightMin,
		WeightMax:        m.WeightMax,
		MarginMin:        m.MarginMin,
		MarginMax:        m.MarginMax,
		OptionRangeExpr:  m.OptionRangeExpr,
		Delta:            m.Delta,
		RoundUnit:        m.RoundUnit,
		RoundMode:        pricing.RoundingMode(m.RoundMode),
		Priority:         m.Priority,
		Active:           m.Active,
	}
}

// ToColorRule converts a family R3 row.
func (m *PriceRuleModel) ToColorRule() pricing.ColorMarginRule {
	return pricing.ColorMarginRule{
		ID:        m.ID,
		RuleSetID: m.RuleSetID,
		ColorCode: m.ColorCode,
		MarginMin: m.MarginMin,
		MarginMax: m.MarginMax,
		Delta:     m.Delta,
		RoundUnit: m.RoundUnit,
		RoundMode: pricing.RoundingMode(m.RoundMode),
		Priority:  m.Priority,
		Active:    m.Active,
	}
}

// ToDecorationRule converts a family R4 row.
func (m *PriceRuleModel) ToDecorationRule() pricing.DecorationRule {
	return pricing.DecorationRule{
		ID:               m.ID,
		RuleSetID:        m.RuleSetID,
		LinkedSwapRuleID: m.LinkedSwapRuleID,
		DecorationCode:   m.DecorationCode,
		MaterialCode:     m.MaterialCode,
		ColorCode:        m.ColorCode,
		CategoryCode:     m.CategoryCode,
		Delta:            m.Delta,
		RoundUnit:        m.RoundUnit,
		RoundMode:        pricing.RoundingMode(m.RoundMode),
		Priority:         m.Priority,
		Active:           m.Active,
	}
}

// PriceAdjustmentModel is the persistence model for time-bounded adjustments.
type PriceAdjustmentModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	Scope     string          `gorm:"type:varchar(10);not null"`
	ScopeRef  uuid.UUID       `gorm:"type:uuid;not null;index:idx_price_adjustment_scope_ref"`
	Stage     string          `gorm:"type:varchar(12);not null"`
	Kind      string          `gorm:"type:varchar(10);not null"`
	Amount    decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	ValidFrom *time.Time
	ValidTo   *time.Time
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PriceAdjustmentModel) TableName() string {
	return "price_adjustments"
}

// ToDomain converts the persistence model to a domain Adjustment.
func (m *PriceAdjustmentModel) ToDomain() pricing.Adjustment {
	return pricing.Adjustment{
		ID:        m.ID,
		Scope:     pricing.AdjustmentScope(m.Scope),
		ScopeRef:  m.ScopeRef,
		Stage:     pricing.AdjustmentStage(m.Stage),
		Kind:      pricing.AdjustmentKind(m.Kind),
		Amount:    m.Amount,
		ValidFrom: m.ValidFrom,
		ValidTo:   m.ValidTo,
		Active:    m.Active,
	}
}

// PriceOverrideModel is the persistence model for absolute price overrides.
type PriceOverrideModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	MasterItemID uuid.UUID       `gorm:"type:uuid;not null;index:idx_price_override_master"`
	Amount       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	ValidFrom    *time.Time
	ValidTo      *time.Time
	Active       bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PriceOverrideModel) TableName() string {
	return "price_overrides"
}

// ToDomain converts the persistence model to a domain Override.
func (m *PriceOverrideModel) ToDomain() pricing.Override {
	return pricing.Override{
		ID:           m.ID,
		MasterItemID: m.MasterItemID,
		Amount:       m.Amount,
		ValidFrom:    m.ValidFrom,
		ValidTo:      m.ValidTo,
		Active:       m.Active,
	}
}

// PriceLedgerEntryModel is the insert-only persistence model for manual
// price and labor corrections.
type PriceLedgerEntryModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	MasterItemID uuid.UUID       `gorm:"type:uuid;not null;index:idx_price_ledger_master_kind,priority:1"`
	Kind         string          `gorm:"type:varchar(12);not null;index:idx_price_ledger_master_kind,priority:2"`
	Amount       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Memo         string          `gorm:"type:text"`
	CreatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PriceLedgerEntryModel) TableName() string {
	return "price_ledger_entries"
}

// PriceSnapshotModel is the insert-only persistence model for one computation.
type PriceSnapshotModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key"`
	ComputeRequestID  uuid.UUID       `gorm:"type:uuid;not null;index:idx_price_snapshot_request"`
	ChannelID         uuid.UUID       `gorm:"type:uuid;not null"`
	MappingID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_price_snapshot_mapping_created,priority:1"`
	MasterItemID      uuid.UUID       `gorm:"type:uuid;not null"`
	PriceMode         string          `gorm:"type:varchar(10);not null"`
	EffectiveMaterial string          `gorm:"type:varchar(10)"`
	NetWeightGram     decimal.Decimal `gorm:"type:numeric(10,3);not null"`
	MaterialValue     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	LaborValue        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	SwapDelta       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	WeightDelta     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	ColorDelta      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	DecorationDelta decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	RuleTotal       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	PreMarginValue   decimal.Decimal  `gorm:"type:numeric(14,2);not null;default:0"`
	MarginMultiplier decimal.Decimal  `gorm:"type:numeric(8,4);not null;default:1"`
	AfterMarginValue decimal.Decimal  `gorm:"type:numeric(14,2);not null;default:0"`
	PostMarginValue  decimal.Decimal  `gorm:"type:numeric(14,2);not null;default:0"`
	LedgerDelta      decimal.Decimal  `gorm:"type:numeric(14,2);not null;default:0"`
	RawTarget        decimal.Decimal  `gorm:"type:numeric(14,2);not null;default:0"`
	RoundedTarget    decimal.Decimal  `gorm:"type:numeric(14,2);not null;default:0"`
	OverrideAmount   *decimal.Decimal `gorm:"type:numeric(14,2)"`
	FinalTarget      *decimal.Decimal `gorm:"type:numeric(14,2)"`

	Blocked          bool   `gorm:"not null;default:false"`
	MissingRulesJSON string `gorm:"type:jsonb;column:missing_rules"`
	RuleHitTraceJSON string `gorm:"type:jsonb;column:rule_hit_trace"`

	TickGoldPerGram   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	TickSilverPerGram decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	TickSource        string          `gorm:"type:varchar(50)"`
	TickQuotedAt      time.Time

	CreatedAt time.Time `gorm:"not null;index:idx_price_snapshot_mapping_created,priority:2,sort:desc"`
}

// TableName returns the table name for GORM
func (PriceSnapshotModel) TableName() string {
	return "price_snapshots"
}

// ToDomain converts the persistence model to a domain Snapshot.
func (m *PriceSnapshotModel) ToDomain() *pricing.Snapshot {
	snap := &pricing.Snapshot{
		ID:                m.ID,
		ComputeRequestID:  m.ComputeRequestID,
		ChannelID:         m.ChannelID,
		MappingID:         m.MappingID,
		MasterItemID:      m.MasterItemID,
		PriceMode:         m.PriceMode,
		EffectiveMaterial: m.EffectiveMaterial,
		NetWeightGram:     m.NetWeightGram,
		MaterialValue:     m.MaterialValue,
		LaborValue:        m.LaborValue,
		SwapDelta:         m.SwapDelta,
		WeightDelta:       m.WeightDelta,
		ColorDelta:        m.ColorDelta,
		DecorationDelta:   m.DecorationDelta,
		RuleTotal:         m.RuleTotal,
		PreMarginValue:    m.PreMarginValue,
		MarginMultiplier:  m.MarginMultiplier,
		AfterMarginValue:  m.AfterMarginValue,
		PostMarginValue:   m.PostMarginValue,
		LedgerDelta:       m.LedgerDelta,
		RawTarget:         m.RawTarget,
		RoundedTarget:     m.RoundedTarget,
		OverrideAmount:    m.OverrideAmount,
		FinalTarget:       m.FinalTarget,
		Blocked:           m.Blocked,
		TickGoldPerGram:   m.TickGoldPerGram,
		TickSilverPerGram: m.TickSilverPerGram,
		TickSource:        m.TickSource,
		TickQuotedAt:      m.TickQuotedAt,
		CreatedAt:         m.CreatedAt,
	}
	snap.MissingRules = decodeStrings(m.MissingRulesJSON)
	snap.RuleHitTrace = decodeStrings(m.RuleHitTraceJSON)
	return snap
}

// FromDomain populates the persistence model from a domain Snapshot.
func (m *PriceSnapshotModel) FromDomain(s *pricing.Snapshot) {
	m.ID = s.ID
	m.ComputeRequestID = s.ComputeRequestID
	m.ChannelID = s.ChannelID
	m.MappingID = s.MappingID
	m.MasterItemID = s.MasterItemID
	m.PriceMode = s.PriceMode
	m.EffectiveMaterial = s.EffectiveMaterial
	m.NetWeightGram = s.NetWeightGram
	m.MaterialValue = s.MaterialValue
	m.LaborValue = s.LaborValue
	m.SwapDelta = s.SwapDelta
	m.WeightDelta = s.WeightDelta
	m.ColorDelta = s.ColorDelta
	m.DecorationDelta = s.DecorationDelta
	m.RuleTotal = s.RuleTotal
	m.PreMarginValue = s.PreMarginValue
	m.MarginMultiplier = s.MarginMultiplier
	m.AfterMarginValue = s.AfterMarginValue
	m.PostMarginValue = s.PostMarginValue
	m.LedgerDelta = s.LedgerDelta
	m.RawTarget = s.RawTarget
	m.RoundedTarget = s.RoundedTarget
	m.OverrideAmount = s.OverrideAmount
	m.FinalTarget = s.FinalTarget
	m.Blocked = s.Blocked
	m.MissingRulesJSON = encodeStrings(s.MissingRules)
	m.RuleHitTraceJSON = encodeStrings(s.RuleHitTrace)
	m.TickGoldPerGram = s.TickGoldPerGram
	m.TickSilverPerGram = s.TickSilverPerGram
	m.TickSource = s.TickSource
	m.TickQuotedAt = s.TickQuotedAt
	m.CreatedAt = s.CreatedAt
}

func encodeStrings(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeStrings(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
