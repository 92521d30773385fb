package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdjustmentStage says whether an adjustment applies before or after the
// margin multiplier.
type AdjustmentStage string

const (
	StagePreMargin  AdjustmentStage = "PRE_MARGIN"
	StagePostMargin AdjustmentStage = "POST_MARGIN"
)

// AdjustmentKind distinguishes flat amounts from percentages of the base.
type AdjustmentKind string

const (
	KindAmount  AdjustmentKind = "AMOUNT"
	KindPercent AdjustmentKind = "PERCENT"
)

// AdjustmentScope narrows an adjustment to a channel, master item or mapping.
type AdjustmentScope string

const (
	ScopeChannel AdjustmentScope = "CHANNEL"
	ScopeMaster  AdjustmentScope = "MASTER"
	ScopeMapping AdjustmentScope = "MAPPING"
)

// Adjustment is a time-bounded price modifier managed by ops.
type Adjustment struct {
	ID    uuid.UUID
	Scope AdjustmentScope
	// ScopeRef is the channel, master item or mapping id the scope points at
	ScopeRef uuid.UUID
	Stage    AdjustmentStage
	Kind     AdjustmentKind
	// Amount is KRW for KindAmount, percent points for KindPercent
	Amount    decimal.Decimal
	ValidFrom *time.Time
	ValidTo   *time.Time
	Active    bool
}

// ActiveAt reports whether the adjustment applies at the given instant.
func (a Adjustment) ActiveAt(t time.Time) bool {
	if !a.Active {
		return false
	}
	if a.ValidFrom != nil && t.Before(*a.ValidFrom) {
		return false
	}
	if a.ValidTo != nil && t.After(*a.ValidTo) {
		return false
	}
	return true
}

// AppliesTo reports whether the adjustment's scope covers the given ids.
func (a Adjustment) AppliesTo(channelID, masterItemID, mappingID uuid.UUID) bool {
	switch a.Scope {
	case ScopeChannel:
		return a.ScopeRef == channelID
	case ScopeMaster:
		return a.ScopeRef == masterItemID
	case ScopeMapping:
		return a.ScopeRef == mappingID
	}
	return false
}

// ApplyAdjustments applies a stage's adjustments to a base amount. Flat
// amounts add up; percentages are summed against the same original base,
// never compounded. Compounding would silently change historical results.
func ApplyAdjustments(base decimal.Decimal, adjustments []Adjustment) decimal.Decimal {
	flat := decimal.Zero
	percent := decimal.Zero
	for _, a := range adjustments {
		switch a.Kind {
		case KindPercent:
			percent = percent.Add(a.Amount)
		default:
			flat = flat.Add(a.Amount)
		}
	}
	return base.Add(flat).Add(base.Mul(percent).Div(decimal.NewFromInt(100)))
}

// Override replaces a computed rounded price with an absolute amount for one
// master item while time-valid.
type Override struct {
	ID           uuid.UUID
	MasterItemID uuid.UUID
	Amount       decimal.Decimal
	ValidFrom    *time.Time
	ValidTo      *time.Time
	Active       bool
}

// ActiveAt reports whether the override applies at the given instant.
func (o Override) ActiveAt(t time.Time) bool {
	if !o.Active {
		return false
	}
	if o.ValidFrom != nil && t.Before(*o.ValidFrom) {
		return false
	}
	if o.ValidTo != nil && t.After(*o.ValidTo) {
		return false
	}
	return true
}

// LedgerKind separates the two cumulative manual adjustment ledgers.
type LedgerKind string

const (
	LedgerBasePrice LedgerKind = "BASE_PRICE"
	LedgerLabor     LedgerKind = "LABOR"
)

// LedgerEntry is one manual price or labor correction for a master item.
// Entries accumulate; recompute consumes their per-item sums.
type LedgerEntry struct {
	ID           uuid.UUID
	MasterItemID uuid.UUID
	Kind         LedgerKind
	Amount       decimal.Decimal
	Memo         string
	CreatedAt    time.Time
}
