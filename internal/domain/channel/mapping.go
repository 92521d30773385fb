package channel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/shared"
)

// PriceMode selects how a mapping's target price is produced.
type PriceMode string

const (
	// PriceModeSync computes the price through the rule engine
	PriceModeSync PriceMode = "SYNC"
	// PriceModeManual bypasses the rule engine entirely
	PriceModeManual PriceMode = "MANUAL"
)

// IsValid returns true for a known price mode
func (m PriceMode) IsValid() bool {
	return m == PriceModeSync || m == PriceModeManual
}

// MappingSource distinguishes operator-created mappings from variant clones
// created by push auto-discovery.
type MappingSource string

const (
	SourceManual MappingSource = "MANUAL"
	SourceAuto   MappingSource = "AUTO"
)

// Mapping binds one master item to one external channel product/variant,
// carrying the option attributes and rule configuration the engine consumes.
type Mapping struct {
	ID           uuid.UUID
	ChannelID    uuid.UUID
	MasterItemID uuid.UUID
	// ExternalProductNo is the channel's product number
	ExternalProductNo string
	// ExternalVariantCode is empty for the base row, set for option rows
	ExternalVariantCode string

	// Option attributes the rule engine matches against
	OptionMaterial   string
	OptionColor      string
	OptionDecoration string
	OptionSize       *decimal.Decimal
	// SizeWeightDelta adds grams to the net weight when the weight rule is on
	SizeWeightDelta decimal.Decimal

	// RuleSetID is required for SYNC mode
	RuleSetID *uuid.UUID
	// Per-family enable flags; the material swap family is always required
	UseWeightRule     bool
	UseColorRule      bool
	UseDecorationRule bool
	UseMarginRule     bool
	UseRoundingRule   bool
	UsePlatingRule    bool

	PriceMode PriceMode
	// ManualTarget is the absolute KRW target for MANUAL mode
	ManualTarget *decimal.Decimal
	// ManualOptionDelta replaces the engine total for MANUAL mappings priced
	// through the pipeline (no absolute target set)
	ManualOptionDelta decimal.Decimal

	Source MappingSource
	Active bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Common mapping errors
var (
	ErrMappingNotFound     = shared.NewDomainError("MAPPING_NOT_FOUND", "Channel mapping not found")
	ErrMappingInvalidMode  = shared.NewDomainError("MAPPING_INVALID_MODE", "Unknown price mode")
	ErrMappingRuleSet      = shared.NewDomainError("MAPPING_RULE_SET_REQUIRED", "Sync-mode mapping requires a rule set")
	ErrMappingManualTarget = shared.NewDomainError("MAPPING_MANUAL_TARGET", "Manual target price must be zero or positive")
	ErrMappingProductNo    = shared.NewDomainError("MAPPING_PRODUCT_NO", "External product number is required")
)

// Validate enforces the field-level invariants before any persistence.
func (m *Mapping) Validate() error {
	if m.ChannelID == uuid.Nil || m.MasterItemID == uuid.Nil {
		return shared.ErrInvalidInput
	}
	if m.ExternalProductNo == "" {
		return ErrMappingProductNo
	}
	if !m.PriceMode.IsValid() {
		return ErrMappingInvalidMode
	}
	if m.PriceMode == PriceModeSync && (m.RuleSetID == nil || *m.RuleSetID == uuid.Nil) {
		return ErrMappingRuleSet
	}
	if m.ManualTarget != nil && m.ManualTarget.IsNegative() {
		return ErrMappingManualTarget
	}
	return nil
}

// IsBaseRow reports whether this mapping represents the channel product's
// base price rather than an option-level price.
func (m *Mapping) IsBaseRow() bool {
	return m.ExternalVariantCode == ""
}

// HasValidManualTarget reports whether MANUAL mode can use the absolute target.
func (m *Mapping) HasValidManualTarget() bool {
	return m.ManualTarget != nil && !m.ManualTarget.IsNegative()
}

// CloneForVariant derives an AUTO-source option row from a base mapping,
// copying the rule configuration.
func (m *Mapping) CloneForVariant(variantCode string, now time.Time) *Mapping {
	clone := *m
	clone.ID = uuid.New()
	clone.ExternalVariantCode = variantCode
	clone.Source = SourceAuto
	clone.CreatedAt = now
	clone.UpdatedAt = now
	return &clone
}

// Deactivate soft-deletes the mapping.
func (m *Mapping) Deactivate() {
	m.Active = false
	m.UpdatedAt = time.Now()
}

// RuleSet is a named, channel-scoped container of rules. Read-only to the
// engine; rules reference it by id.
type RuleSet struct {
	ID        uuid.UUID
	ChannelID uuid.UUID
	Name      string
	Active    bool
	CreatedAt time.Time
}

// MappingRepository persists channel mappings.
type MappingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Mapping, error)

	// FindActiveByChannel lists active mappings, optionally narrowed to a
	// master item subset
	FindActiveByChannel(ctx context.Context, channelID uuid.UUID, masterItemIDs []uuid.UUID) ([]Mapping, error)

	// FindByProduct lists all mappings (base + variants) of one channel product
	FindByProduct(ctx context.Context, channelID uuid.UUID, productNo string) ([]Mapping, error)

	Save(ctx context.Context, mapping *Mapping) error
	SaveBatch(ctx context.Context, mappings []*Mapping) error
}

// RuleSetRepository reads rule set headers.
type RuleSetRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*RuleSet, error)
}
