package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Policy holds the channel-level computation constants loaded once per
// recompute run.
type Policy struct {
	ID        uuid.UUID
	ChannelID uuid.UUID
	// MarginMultiplier scales the pre-margin amount for mappings with the
	// margin rule enabled
	MarginMultiplier decimal.Decimal
	RoundUnit        decimal.Decimal
	RoundMode        RoundingMode
	// DefaultSwapMultiplier is the 18K-equivalent weight multiplier used when
	// a swap rule carries no usable multiplier of its own
	DefaultSwapMultiplier decimal.Decimal
	// MaterialFactorSetID selects the factor set; a recompute request may
	// override it
	MaterialFactorSetID uuid.UUID
	Active              bool
}

// EffectiveMargin returns the multiplier to apply, 1 when the mapping has the
// margin rule disabled.
func (p *Policy) EffectiveMargin(useMarginRule bool) decimal.Decimal {
	if !useMarginRule {
		return decimal.NewFromInt(1)
	}
	return p.MarginMultiplier
}
