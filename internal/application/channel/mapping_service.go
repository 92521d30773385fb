package channel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/catalog"
	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/channel"
	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/pricing"
	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/shared"
)

// ErrMappingRulesIncomplete rejects activating a SYNC mapping whose rule set
// cannot satisfy every required family.
var ErrMappingRulesIncomplete = shared.NewDomainError("MAPPING_RULES_INCOMPLETE", "Rule set does not cover every required rule family")

// UpdateMappingRequest carries one mapping upsert.
type UpdateMappingRequest struct {
	ID           *uuid.UUID `json:"id"`
	ChannelID    uuid.UUID  `json:"channel_id" binding:"required"`
	MasterItemID uuid.UUID  `json:"master_item_id" binding:"required"`

	ExternalProductNo   string `json:"external_product_no" binding:"required"`
	ExternalVariantCode string `json:"external_variant_code"`

	OptionMaterial   string           `json:"option_material"`
	OptionColor      string           `json:"option_color"`
	OptionDecoration string           `json:"option_decoration"`
	OptionSize       *decimal.Decimal `json:"option_size"`
	SizeWeightDelta  decimal.Decimal  `json:"size_weight_delta"`

	RuleSetID         *uuid.UUID `json:"rule_set_id"`
	UseWeightRule     bool       `json:"use_weight_rule"`
	UseColorRule      bool       `json:"use_color_rule"`
	UseDecorationRule bool       `json:"use_decoration_rule"`
	UseMarginRule     bool       `json:"use_margin_rule"`
	UseRoundingRule   bool       `json:"use_rounding_rule"`
	UsePlatingRule    bool       `json:"use_plating_rule"`

	PriceMode         channel.PriceMode `json:"price_mode" binding:"required"`
	ManualTarget      *decimal.Decimal  `json:"manual_target"`
	ManualOptionDelta decimal.Decimal   `json:"manual_option_delta"`

	Active bool `json:"active"`
}

// MappingService manages channel mapping writes. Reads happen through the
// dashboard and the push flow; this service owns validation and the
// activation gate for SYNC mappings.
type MappingService struct {
	mappings channel.MappingRepository
	ruleSets channel.RuleSetRepository
	items    catalog.MasterItemRepository
	policies pricing.PolicyRepository
	factors  pricing.FactorRepository
	ticks    pricing.TickRepository
	rules    pricing.RuleRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewMappingService wires the mapping write path.
func NewMappingService(
	mappings channel.MappingRepository,
	ruleSets channel.RuleSetRepository,
	items catalog.MasterItemRepository,
	policies pricing.PolicyRepository,
	factors pricing.FactorRepository,
	ticks pricing.TickRepository,
	rules pricing.RuleRepository,
	logger *zap.Logger,
) *MappingService {
	return &MappingService{
		mappings: mappings,
		ruleSets: ruleSets,
		items:    items,
		policies: policies,
		factors:  factors,
		ticks:    ticks,
		rules:    rules,
		logger:   logger,
		now:      time.Now,
	}
}

// Update creates or replaces a mapping. Activating a SYNC mapping runs the
// engine once against the current rules and rejects the write when a required
// family has no matching rule, so pushes never discover the gap later.
func (s *MappingService) Update(ctx context.Context, req UpdateMappingRequest) (*channel.Mapping, error) {
	now := s.now()
	mapping := &channel.Mapping{
		ChannelID:           req.ChannelID,
		MasterItemID:        req.MasterItemID,
		ExternalProductNo:   req.ExternalProductNo,
		ExternalVariantCode: req.ExternalVariantCode,
		OptionMaterial:      req.OptionMaterial,
		OptionColor:         req.OptionColor,
		OptionDecoration:    req.OptionDecoration,
		OptionSize:          req.OptionSize,
		SizeWeightDelta:     req.SizeWeightDelta,
		RuleSetID:           req.RuleSetID,
		UseWeightRule:       req.UseWeightRule,
		UseColorRule:        req.UseColorRule,
		UseDecorationRule:   req.UseDecorationRule,
		UseMarginRule:       req.UseMarginRule,
		UseRoundingRule:     req.UseRoundingRule,
		UsePlatingRule:      req.UsePlatingRule,
		PriceMode:           req.PriceMode,
		ManualTarget:        req.ManualTarget,
		ManualOptionDelta:   req.ManualOptionDelta,
		Source:              channel.SourceManual,
		Active:              req.Active,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if req.ID != nil && *req.ID != uuid.Nil {
		existing, err := s.mappings.FindByID(ctx, *req.ID)
		if err != nil {
			return nil, err
		}
		mapping.ID = existing.ID
		mapping.Source = existing.Source
		mapping.CreatedAt = existing.CreatedAt
	} else {
		mapping.ID = uuid.New()
	}

	if err := mapping.Validate(); err != nil {
		return nil, err
	}

	if mapping.Active && mapping.PriceMode == channel.PriceModeSync {
		if err := s.checkRuleCoverage(ctx, mapping); err != nil {
			return nil, err
		}
	}

	if err := s.mappings.Save(ctx, mapping); err != nil {
		return nil, err
	}

	s.logger.Info("channel mapping saved",
		zap.String("mapping_id", mapping.ID.String()),
		zap.String("product_no", mapping.ExternalProductNo),
		zap.String("variant_code", mapping.ExternalVariantCode),
		zap.String("price_mode", string(mapping.PriceMode)),
		zap.Bool("active", mapping.Active),
	)
	return mapping, nil
}

// Delete soft-deactivates a mapping.
func (s *MappingService) Delete(ctx context.Context, id uuid.UUID) error {
	mapping, err := s.mappings.FindByID(ctx, id)
	if err != nil {
		return err
	}
	mapping.Deactivate()
	if err := s.mappings.Save(ctx, mapping); err != nil {
		return err
	}
	s.logger.Info("channel mapping deactivated", zap.String("mapping_id", id.String()))
	return nil
}

// checkRuleCoverage runs the engine once with the mapping's configuration and
// the current market tick.
func (s *MappingService) checkRuleCoverage(ctx context.Context, mapping *channel.Mapping) error {
	if _, err := s.ruleSets.FindByID(ctx, *mapping.RuleSetID); err != nil {
		return err
	}
	item, err := s.items.FindByID(ctx, mapping.MasterItemID)
	if err != nil {
		return err
	}
	policy, err := s.policies.FindActiveByChannel(ctx, mapping.ChannelID)
	if err != nil {
		return err
	}
	factors, err := s.factors.FindBySet(ctx, policy.MaterialFactorSetID)
	if err != nil {
		return err
	}
	tick, err := s.ticks.Latest(ctx)
	if err != nil {
		return err
	}
	table, err := s.rules.FindActiveBySet(ctx, *mapping.RuleSetID)
	if err != nil {
		return err
	}

	extraWeight := decimal.Zero
	if mapping.UseWeightRule {
		extraWeight = mapping.SizeWeightDelta
	}
	result := pricing.Evaluate(pricing.EngineInput{
		BaseMaterial:          item.MaterialCode,
		OptionMaterial:        mapping.OptionMaterial,
		OptionColor:           mapping.OptionColor,
		OptionDecoration:      mapping.OptionDecoration,
		OptionSize:            mapping.OptionSize,
		CategoryCode:          item.CategoryCode,
		NetWeight:             item.NetWeight(extraWeight),
		RequireWeight:         mapping.UseWeightRule,
		RequireColor:          mapping.UseColorRule,
		RequireDecoration:     mapping.UseDecorationRule,
		DefaultSwapMultiplier: policy.DefaultSwapMultiplier,
	}, *table, pricing.NewMaterialContext(factors, *tick))

	if result.Blocked() {
		missing := make([]string, 0, len(result.Missing))
		for _, f := range result.Missing {
			missing = append(missing, string(f))
		}
		s.logger.Warn("sync mapping activation blocked",
			zap.String("mapping_id", mapping.ID.String()),
			zap.Strings("missing_families", missing),
		)
		return ErrMappingRulesIncomplete
	}
	return nil
}
