package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fallbackSwapMultiplier applies when neither the rule nor the policy carries
// a usable weight multiplier.
var fallbackSwapMultiplier = decimal.NewFromFloat(1.2)

// EngineInput is everything the rule-matching engine needs for one mapping.
// All fields are read-only; Evaluate never mutates its input.
type EngineInput struct {
	// BaseMaterial is the master item's default material code
	BaseMaterial string
	// OptionMaterial is the material requested by the channel option
	OptionMaterial string
	OptionColor      string
	OptionDecoration string
	// OptionSize is the numeric size value; nil when the option has none
	OptionSize   *decimal.Decimal
	CategoryCode string
	NetWeight    decimal.Decimal
	// RequireWeight/Color/Decoration mirror the mapping's per-family enable
	// flags. The material swap family is always required.
	RequireWeight     bool
	RequireColor      bool
	RequireDecoration bool
	// DefaultSwapMultiplier is the policy fallback for swap rules without one
	DefaultSwapMultiplier decimal.Decimal
}

// RuleHit records which rule satisfied one family.
type RuleHit struct {
	Family RuleFamily
	RuleID uuid.UUID
}

// EngineResult is the structured outcome of one engine run.
type EngineResult struct {
	SwapDelta       decimal.Decimal
	WeightDelta     decimal.Decimal
	ColorDelta      decimal.Decimal
	DecorationDelta decimal.Decimal
	// EffectiveMaterial is the swap rule's target, or the requested option
	// material when the rule leaves it open
	EffectiveMaterial string
	Hits              []RuleHit
	// Missing lists required families with no matching rule; a non-empty
	// list blocks the mapping from producing a final price
	Missing []RuleFamily
}

// Total sums the four family deltas.
func (r EngineResult) Total() decimal.Decimal {
	return r.SwapDelta.Add(r.WeightDelta).Add(r.ColorDelta).Add(r.DecorationDelta)
}

// Blocked reports whether any required family failed to match.
func (r EngineResult) Blocked() bool {
	return len(r.Missing) > 0
}

// HitID returns the rule id that satisfied a family, if any.
func (r EngineResult) HitID(family RuleFamily) (uuid.UUID, bool) {
	for _, h := range r.Hits {
		if h.Family == family {
			return h.RuleID, true
		}
	}
	return uuid.Nil, false
}

// Evaluate runs the four rule families against one mapping. Each family scans
// its list ascending by priority and stops at the first match; later matches
// in the same family are ignored. The function is pure: same inputs, same
// result.
func Evaluate(in EngineInput, rules RuleTable, ctx *MaterialContext) EngineResult {
	res := EngineResult{EffectiveMaterial: in.OptionMaterial}

	swapRule, swapHit := matchSwap(in, rules.Swap)
	var swapRuleID uuid.UUID
	if swapHit {
		swapRuleID = swapRule.ID
		res.Hits = append(res.Hits, RuleHit{Family: FamilyMaterialSwap, RuleID: swapRule.ID})
		res.SwapDelta, res.EffectiveMaterial = swapDelta(in, swapRule, ctx)
	} else {
		res.Missing = append(res.Missing, FamilyMaterialSwap)
	}

	if weightRule, ok := matchWeight(in, rules.Weight, swapHit, swapRuleID, res.SwapDelta); ok {
		res.Hits = append(res.Hits, RuleHit{Family: FamilyWeightRange, RuleID: weightRule.ID})
		res.WeightDelta = Round(weightRule.Delta, weightRule.RoundUnit, weightRule.RoundMode)
	} else if in.RequireWeight {
		res.Missing = append(res.Missing, FamilyWeightRange)
	}

	runningMargin := res.SwapDelta.Add(res.WeightDelta)
	if colorRule, ok := matchColor(in, rules.Color, runningMargin); ok {
		res.Hits = append(res.Hits, RuleHit{Family: FamilyColorMargin, RuleID: colorRule.ID})
		res.ColorDelta = Round(colorRule.Delta, colorRule.RoundUnit, colorRule.RoundMode)
	} else if in.RequireColor {
		res.Missing = append(res.Missing, FamilyColorMargin)
	}

	if decoRule, ok := matchDecoration(in, rules.Decoration, swapHit, swapRuleID); ok {
		res.Hits = append(res.Hits, RuleHit{Family: FamilyDecoration, RuleID: decoRule.ID})
		res.DecorationDelta = Round(decoRule.Delta, decoRule.RoundUnit, decoRule.RoundMode)
	} else if in.RequireDecoration {
		res.Missing = append(res.Missing, FamilyDecoration)
	}

	return res
}

func matchSwap(in EngineInput, rules []MaterialSwapRule) (MaterialSwapRule, bool) {
	return firstMatch(rules,
		func(r MaterialSwapRule) int { return r.Priority },
		func(r MaterialSwapRule) bool {
			if !r.Active {
				return false
			}
			if !codeMatches(r.SourceMaterial, in.BaseMaterial) {
				return false
			}
			if !codeMatches(r.TargetMaterial, in.OptionMaterial) {
				return false
			}
			if !codeMatches(r.CategoryCode, in.CategoryCode) {
				return false
			}
			return InRange(r.WeightMin, r.WeightMax, in.NetWeight)
		})
}

// swapDelta prices the material swap: the target-material value of the
// multiplied weight minus the base-material value of the plain weight.
func swapDelta(in EngineInput, rule MaterialSwapRule, ctx *MaterialContext) (decimal.Decimal, string) {
	mult := rule.Multiplier
	if mult.LessThanOrEqual(decimal.Zero) {
		mult = in.DefaultSwapMultiplier
	}
	if mult.LessThanOrEqual(decimal.Zero) {
		mult = fallbackSwapMultiplier
	}

	target := rule.TargetMaterial
	if target == "" {
		target = in.OptionMaterial
	}

	targetPrice := ctx.Purity(target, decimal.Zero).
		Mul(ctx.AdjustFactor(target)).
		Mul(in.NetWeight.Mul(mult)).
		Mul(ctx.Tick(target))
	basePrice := ctx.Value(in.BaseMaterial, in.NetWeight)

	return Round(targetPrice.Sub(basePrice), rule.RoundUnit, rule.RoundMode), target
}

func matchWeight(in EngineInput, rules []WeightRangeRule, swapHit bool, swapRuleID uuid.UUID, swapAmount decimal.Decimal) (WeightRangeRule, bool) {
	return firstMatch(rules,
		func(r WeightRangeRule) int { return r.Priority },
		func(r WeightRangeRule) bool {
			if !r.Active {
				return false
			}
			if !linkedSwapMatches(r.LinkedSwapRuleID, swapHit, swapRuleID) {
				return false
			}
			if !codeMatches(r.MaterialCode, in.OptionMaterial) {
				return false
			}
			if !codeMatches(r.CategoryCode, in.CategoryCode) {
				return false
			}
			if !InRange(r.WeightMin, r.WeightMax, in.NetWeight) {
				return false
			}
			if r.HasMarginBand() {
				return InRange(r.MarginMin, r.MarginMax, swapAmount)
			}
			return MatchOptionRange(r.OptionRangeExpr, in.OptionSize)
		})
}

func matchColor(in EngineInput, rules []ColorMarginRule, runningMargin decimal.Decimal) (ColorMarginRule, bool) {
	return firstMatch(rules,
		func(r ColorMarginRule) int { return r.Priority },
		func(r ColorMarginRule) bool {
			if !r.Active {
				return false
			}
			if !codeMatches(r.ColorCode, in.OptionColor) {
				return false
			}
			return InRange(r.MarginMin, r.MarginMax, runningMargin)
		})
}

func matchDecoration(in EngineInput, rules []DecorationRule, swapHit bool, swapRuleID uuid.UUID) (DecorationRule, bool) {
	return firstMatch(rules,
		func(r DecorationRule) int { return r.Priority },
		func(r DecorationRule) bool {
			if !r.Active {
				return false
			}
			if !linkedSwapMatches(r.LinkedSwapRuleID, swapHit, swapRuleID) {
				return false
			}
			if !codeMatches(r.DecorationCode, in.OptionDecoration) {
				return false
			}
			if !codeMatches(r.MaterialCode, in.OptionMaterial) {
				return false
			}
			if !codeMatches(r.ColorCode, in.OptionColor) {
				return false
			}
			return codeMatches(r.CategoryCode, in.CategoryCode)
		})
}

// linkedSwapMatches gates a rule on the swap rule that actually hit.
func linkedSwapMatches(linked *uuid.UUID, swapHit bool, swapRuleID uuid.UUID) bool {
	if linked == nil || *linked == uuid.Nil {
		return true
	}
	return swapHit && *linked == swapRuleID
}
