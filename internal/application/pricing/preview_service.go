package pricing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/catalog"
	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/channel"
	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/pricing"
)

// defaultPreviewSampleLimit bounds returned samples when the caller gives none.
const defaultPreviewSampleLimit = 10

// PreviewRequest tests a rule set against current mappings without side
// effects, used to validate the set before activation.
type PreviewRequest struct {
	ChannelID uuid.UUID
	RuleSetID uuid.UUID
	// ProductNo optionally narrows the run to one channel product
	ProductNo   string
	SampleLimit int
}

// PreviewRow is one evaluated mapping in a preview result.
type PreviewRow struct {
	MappingID   uuid.UUID       `json:"mapping_id"`
	ProductNo   string          `json:"product_no"`
	VariantCode string          `json:"variant_code"`
	RuleTotal   decimal.Decimal `json:"rule_total"`
	HitTrace    []string        `json:"rule_hit_trace"`
	Missing     []string        `json:"missing_rules"`
}

// PreviewResult aggregates a read-only engine run.
type PreviewResult struct {
	Total         int          `json:"total"`
	Matched       int          `json:"matched"`
	Blocked       int          `json:"blocked"`
	MatchedSample []PreviewRow `json:"matched_sample"`
	BlockedSample []PreviewRow `json:"blocked_sample"`
}

// PreviewService evaluates the rule engine over current mappings without
// persisting anything.
type PreviewService struct {
	policies pricing.PolicyRepository
	factors  pricing.FactorRepository
	ticks    pricing.TickRepository
	rules    pricing.RuleRepository
	mappings channel.MappingRepository
	items    catalog.MasterItemRepository
}

// NewPreviewService wires the preview path.
func NewPreviewService(
	policies pricing.PolicyRepository,
	factors pricing.FactorRepository,
	ticks pricing.TickRepository,
	rules pricing.RuleRepository,
	mappings channel.MappingRepository,
	items catalog.MasterItemRepository,
) *PreviewService {
	return &PreviewService{
		policies: policies,
		factors:  factors,
		ticks:    ticks,
		rules:    rules,
		mappings: mappings,
		items:    items,
	}
}

// Preview runs the candidate rule set against the channel's current SYNC
// mappings and reports matched/blocked totals with bounded samples.
func (s *PreviewService) Preview(ctx context.Context, req PreviewRequest) (*PreviewResult, error) {
	policy, err := s.policies.FindActiveByChannel(ctx, req.ChannelID)
	if err != nil {
		return nil, err
	}
	factors, err := s.factors.FindBySet(ctx, policy.MaterialFactorSetID)
	if err != nil {
		return nil, err
	}
	tick, err := s.ticks.Latest(ctx)
	if err != nil {
		return nil, err
	}
	table, err := s.rules.FindActiveBySet(ctx, req.RuleSetID)
	if err != nil {
		return nil, err
	}

	mappings, err := s.mappings.FindActiveByChannel(ctx, req.ChannelID, nil)
	if err != nil {
		return nil, err
	}

	itemIDs := make([]uuid.UUID, 0, len(mappings))
	for _, m := range mappings {
		itemIDs = append(itemIDs, m.MasterItemID)
	}
	items, err := s.items.FindByIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}

	limit := req.SampleLimit
	if limit <= 0 {
		limit = defaultPreviewSampleLimit
	}

	material := pricing.NewMaterialContext(factors, *tick)
	result := &PreviewResult{
		MatchedSample: make([]PreviewRow, 0),
		BlockedSample: make([]PreviewRow, 0),
	}

	for i := range mappings {
		m := &mappings[i]
		if m.PriceMode != channel.PriceModeSync {
			continue
		}
		if req.ProductNo != "" && m.ExternalProductNo != req.ProductNo {
			continue
		}
		item, ok := items[m.MasterItemID]
		if !ok {
			continue
		}

		extra := decimal.Zero
		if m.UseWeightRule {
			extra = m.SizeWeightDelta
		}
		res := pricing.Evaluate(pricing.EngineInput{
			BaseMaterial:          item.MaterialCode,
			OptionMaterial:        m.OptionMaterial,
			OptionColor:           m.OptionColor,
			OptionDecoration:      m.OptionDecoration,
			OptionSize:            m.OptionSize,
			CategoryCode:          item.CategoryCode,
			NetWeight:             item.NetWeight(extra),
			RequireWeight:         m.UseWeightRule,
			RequireColor:          m.UseColorRule,
			RequireDecoration:     m.UseDecorationRule,
			DefaultSwapMultiplier: policy.DefaultSwapMultiplier,
		}, *table, material)

		result.Total++
		row := PreviewRow{
			MappingID:   m.ID,
			ProductNo:   m.ExternalProductNo,
			VariantCode: m.ExternalVariantCode,
			RuleTotal:   res.Total(),
			HitTrace:    hitTrace(res.Hits),
			Missing:     familyStrings(res.Missing),
		}
		if res.Blocked() {
			result.Blocked++
			if len(result.BlockedSample) < limit {
				result.BlockedSample = append(result.BlockedSample, row)
			}
		} else {
			result.Matched++
			if len(result.MatchedSample) < limit {
				result.MatchedSample = append(result.MatchedSample, row)
			}
		}
	}

	return result, nil
}
