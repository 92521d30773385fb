package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Snapshot is one immutable price computation for one mapping. Rows are
// insert-only; a recompute never updates an earlier snapshot.
type Snapshot struct {
	ID uuid.UUID
	// ComputeRequestID groups every snapshot of one recompute invocation
	ComputeRequestID uuid.UUID
	ChannelID        uuid.UUID
	MappingID        uuid.UUID
	MasterItemID     uuid.UUID
	PriceMode        string
	// EffectiveMaterial is the material the swap rule resolved to
	EffectiveMaterial string
	NetWeightGram     decimal.Decimal
	MaterialValue     decimal.Decimal
	LaborValue        decimal.Decimal

	SwapDelta       decimal.Decimal
	WeightDelta     decimal.Decimal
	ColorDelta      decimal.Decimal
	DecorationDelta decimal.Decimal
	RuleTotal       decimal.Decimal

	PreMarginValue   decimal.Decimal
	MarginMultiplier decimal.Decimal
	AfterMarginValue decimal.Decimal
	PostMarginValue  decimal.Decimal
	LedgerDelta      decimal.Decimal
	RawTarget        decimal.Decimal
	RoundedTarget    decimal.Decimal
	// OverrideAmount is set when a time-valid override replaced the rounded
	// value; both values are persisted
	OverrideAmount *decimal.Decimal
	// FinalTarget is null when the computation was blocked
	FinalTarget *decimal.Decimal

	Blocked bool
	// MissingRules lists the required rule families without a hit
	MissingRules []string
	// RuleHitTrace lists "family:rule-id" pairs in evaluation order
	RuleHitTrace []string

	TickGoldPerGram   decimal.Decimal
	TickSilverPerGram decimal.Decimal
	TickSource        string
	TickQuotedAt      time.Time

	CreatedAt time.Time
}

// Usable reports whether the snapshot carries a pushable price.
func (s *Snapshot) Usable() bool {
	return !s.Blocked && s.FinalTarget != nil && s.FinalTarget.IsPositive()
}
