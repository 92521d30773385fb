package pricing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Basis classifies which commodity tick prices a material.
type Basis string

const (
	BasisGold   Basis = "GOLD"
	BasisSilver Basis = "SILVER"
	BasisNone   Basis = "NONE"
)

// IsValid returns true for a known basis
func (b Basis) IsValid() bool {
	switch b {
	case BasisGold, BasisSilver, BasisNone:
		return true
	}
	return false
}

// MaterialFactor holds the per-material pricing constants of one factor set.
type MaterialFactor struct {
	ID uuid.UUID
	// FactorSetID groups factors into a named, swappable set
	FactorSetID  uuid.UUID
	MaterialCode string
	// PurityRate is the fine-metal fraction (0.585 for 14K, 0.75 for 18K, ...)
	PurityRate decimal.Decimal
	// AdjustFactor scales the commodity value (loss, alloy premium)
	AdjustFactor decimal.Decimal
	Basis        Basis
}

// MarketTick is the latest observed commodity price in KRW per gram.
// It is refreshed by an external feed; the engine only reads it.
type MarketTick struct {
	GoldPerGram   decimal.Decimal
	SilverPerGram decimal.Decimal
	Source        string
	QuotedAt      time.Time
}

// noneMaterialCode always prices material at zero regardless of tick.
const noneMaterialCode = "00"

// NormalizeMaterialCode trims and upper-cases a material code for lookup.
func NormalizeMaterialCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// MaterialContext resolves purity, adjust factor and commodity tick per material
// code for one computation run. It is immutable once built.
type MaterialContext struct {
	factors map[string]MaterialFactor
	tick    MarketTick
}

// NewMaterialContext builds a context from one factor set and the current tick.
func NewMaterialContext(factors []MaterialFactor, tick MarketTick) *MaterialContext {
	byCode := make(map[string]MaterialFactor, len(factors))
	for _, f := range factors {
		byCode[NormalizeMaterialCode(f.MaterialCode)] = f
	}
	return &MaterialContext{factors: byCode, tick: tick}
}

// Tick returns the current market tick the context was built with.
func (c *MaterialContext) TickInfo() MarketTick {
	return c.tick
}

// Purity returns the purity rate for a material code, or fallback when the
// code has no configured factor.
func (c *MaterialContext) Purity(code string, fallback decimal.Decimal) decimal.Decimal {
	if f, ok := c.factors[NormalizeMaterialCode(code)]; ok {
		return f.PurityRate
	}
	return fallback
}

// AdjustFactor returns the price-adjustment factor for a material code,
// defaulting to 1 when unconfigured.
func (c *MaterialContext) AdjustFactor(code string) decimal.Decimal {
	if f, ok := c.factors[NormalizeMaterialCode(code)]; ok {
		return f.AdjustFactor
	}
	return decimal.NewFromInt(1)
}

// Tick returns the commodity tick in KRW/gram for a material code.
// Code "00" and any basis NONE price at zero. Codes without an explicit basis
// are classified silver for "925"/"999" and gold otherwise.
func (c *MaterialContext) Tick(code string) decimal.Decimal {
	norm := NormalizeMaterialCode(code)
	if norm == noneMaterialCode {
		return decimal.Zero
	}
	if f, ok := c.factors[norm]; ok && f.Basis.IsValid() {
		switch f.Basis {
		case BasisNone:
			return decimal.Zero
		case BasisSilver:
			return c.tick.SilverPerGram
		default:
			return c.tick.GoldPerGram
		}
	}
	if norm == "925" || norm == "999" {
		return c.tick.SilverPerGram
	}
	return c.tick.GoldPerGram
}

// Value prices net weight of one material: purity * adjust * weight * tick.
func (c *MaterialContext) Value(code string, netWeightGram decimal.Decimal) decimal.Decimal {
	return c.Purity(code, decimal.Zero).
		Mul(c.AdjustFactor(code)).
		Mul(netWeightGram).
		Mul(c.Tick(code))
}
