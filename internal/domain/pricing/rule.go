package pricing

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleFamily identifies one of the four ordered pricing-rule categories.
type RuleFamily string

const (
	FamilyMaterialSwap RuleFamily = "R1"
	FamilyWeightRange  RuleFamily = "R2"
	FamilyColorMargin  RuleFamily = "R3"
	FamilyDecoration   RuleFamily = "R4"
)

// RoundingMode controls how a value is snapped to a rounding unit.
type RoundingMode string

const (
	RoundCeil  RoundingMode = "CEIL"
	RoundFloor RoundingMode = "FLOOR"
	RoundHalf  RoundingMode = "ROUND"
)

// IsValid returns true for a known rounding mode
func (m RoundingMode) IsValid() bool {
	switch m {
	case RoundCeil, RoundFloor, RoundHalf:
		return true
	}
	return false
}

// Round snaps value to a multiple of unit. A unit of zero or less behaves as
// unit 1. RoundHalf breaks half-value ties away from zero, matching how KRW
// amounts were audited historically.
func Round(value decimal.Decimal, unit decimal.Decimal, mode RoundingMode) decimal.Decimal {
	if unit.LessThanOrEqual(decimal.Zero) {
		unit = decimal.NewFromInt(1)
	}
	scaled := value.Div(unit)
	switch mode {
	case RoundCeil:
		scaled = scaled.Ceil()
	case RoundFloor:
		scaled = scaled.Floor()
	default:
		scaled = scaled.Round(0)
	}
	return scaled.Mul(unit)
}

// InRange reports whether v lies in [min, max]; a nil bound is unbounded.
func InRange(min, max *decimal.Decimal, v decimal.Decimal) bool {
	if min != nil && v.LessThan(*min) {
		return false
	}
	if max != nil && v.GreaterThan(*max) {
		return false
	}
	return true
}

// codeMatches treats an empty rule code as a wildcard.
func codeMatches(ruleCode, actual string) bool {
	ruleCode = strings.TrimSpace(ruleCode)
	if ruleCode == "" {
		return true
	}
	return strings.EqualFold(ruleCode, strings.TrimSpace(actual))
}

// MatchOptionRange evaluates a comma-separated comparison expression
// (">=5,<=20", ">3", "12") against an optional numeric size value.
// An empty or unparseable expression matches everything, including a nil
// size; any concrete bound fails a nil size.
func MatchOptionRange(expr string, size *decimal.Decimal) bool {
	terms := parseOptionRange(expr)
	if len(terms) == 0 {
		return true
	}
	if size == nil {
		return false
	}
	for _, t := range terms {
		if !t.matches(*size) {
			return false
		}
	}
	return true
}

type rangeTerm struct {
	op    string
	bound decimal.Decimal
}

func (t rangeTerm) matches(v decimal.Decimal) bool {
	switch t.op {
	case ">=":
		return v.GreaterThanOrEqual(t.bound)
	case "<=":
		return v.LessThanOrEqual(t.bound)
	case ">":
		return v.GreaterThan(t.bound)
	case "<":
		return v.LessThan(t.bound)
	default:
		return v.Equal(t.bound)
	}
}

// parseOptionRange returns nil for expressions that should wildcard-match.
func parseOptionRange(expr string) []rangeTerm {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil
	}
	parts := strings.Split(expr, ",")
	terms := make([]rangeTerm, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		op := "="
		for _, candidate := range []string{">=", "<=", ">", "<", "="} {
			if strings.HasPrefix(part, candidate) {
				op = candidate
				part = strings.TrimSpace(strings.TrimPrefix(part, candidate))
				break
			}
		}
		bound, err := decimal.NewFromString(part)
		if err != nil {
			// Unparseable term degrades the whole expression to a wildcard
			return nil
		}
		terms = append(terms, rangeTerm{op: op, bound: bound})
	}
	return terms
}

// ---------------------------------------------------------------------------
// Rule rows
// ---------------------------------------------------------------------------

// MaterialSwapRule prices the economics of selling an item in a different
// material than its catalog default.
type MaterialSwapRule struct {
	ID        uuid.UUID
	RuleSetID uuid.UUID
	// SourceMaterial matches the item's base material; empty = wildcard
	SourceMaterial string
	// TargetMaterial matches the requested option material; empty = wildcard
	TargetMaterial string
	// CategoryCode matches the item category; empty = wildcard
	CategoryCode string
	WeightMin    *decimal.Decimal
	WeightMax    *decimal.Decimal
	// Multiplier scales the net weight on the target side; invalid or <= 0
	// falls back to the policy default
	Multiplier decimal.Decimal
	RoundUnit  decimal.Decimal
	RoundMode  RoundingMode
	Priority   int
	Active     bool
}

// WeightRangeRule adds a size/weight delta, gated on the swap rule that hit.
type WeightRangeRule struct {
	ID        uuid.UUID
	RuleSetID uuid.UUID
	// LinkedSwapRuleID restricts this rule to one swap rule's hits; nil = any
	LinkedSwapRuleID *uuid.UUID
	MaterialCode     string
	CategoryCode     string
	WeightMin        *decimal.Decimal
	WeightMax        *decimal.Decimal
	// MarginMin/MarginMax select margin-band matching when both are set
	MarginMin *decimal.Decimal
	MarginMax *decimal.Decimal
	// OptionRangeExpr selects option-range matching otherwise
	OptionRangeExpr string
	Delta           decimal.Decimal
	RoundUnit       decimal.Decimal
	RoundMode       RoundingMode
	Priority        int
	Active          bool
}

// HasMarginBand reports whether the rule matches on the swap+weight margin.
func (r WeightRangeRule) HasMarginBand() bool {
	return r.MarginMin != nil && r.MarginMax != nil
}

// ColorMarginRule adds a plating/color margin over the running delta.
type ColorMarginRule struct {
	ID        uuid.UUID
	RuleSetID uuid.UUID
	// ColorCode matches the requested option color; empty = wildcard
	ColorCode string
	MarginMin *decimal.Decimal
	MarginMax *decimal.Decimal
	Delta     decimal.Decimal
	RoundUnit decimal.Decimal
	RoundMode RoundingMode
	Priority  int
	Active    bool
}

// DecorationRule adds a decoration surcharge, gated like WeightRangeRule.
type DecorationRule struct {
	ID               uuid.UUID
	RuleSetID        uuid.UUID
	LinkedSwapRuleID *uuid.UUID
	DecorationCode   string
	MaterialCode     string
	ColorCode        string
	CategoryCode     string
	Delta            decimal.Decimal
	RoundUnit        decimal.Decimal
	RoundMode        RoundingMode
	Priority         int
	Active           bool
}

// RuleTable holds the four family lists of one rule set.
type RuleTable struct {
	Swap       []MaterialSwapRule
	Weight     []WeightRangeRule
	Color      []ColorMarginRule
	Decoration []DecorationRule
}

// firstMatch scans rules ascending by priority and returns the first one the
// predicate accepts. The sort is stable so equal priorities keep table order.
// All three evaluation paths (recompute, preview, mapping validation) share
// this helper so the tie-break cannot drift.
func firstMatch[R any](rules []R, priorityOf func(R) int, matches func(R) bool) (R, bool) {
	ordered := make([]R, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return priorityOf(ordered[i]) < priorityOf(ordered[j])
	})
	for _, r := range ordered {
		if matches(r) {
			return r, true
		}
	}
	var zero R
	return zero, false
}
