package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/catalog"
	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/channel"
	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/pricing"
)

// blockedSampleLimit bounds the blocked-mapping sample returned to callers.
const blockedSampleLimit = 20

// RecomputeRequest triggers one batch price computation.
type RecomputeRequest struct {
	ChannelID uuid.UUID
	// MasterItemIDs optionally narrows the run to a catalog subset
	MasterItemIDs []uuid.UUID
	// FactorSetID optionally overrides the policy's material factor set
	FactorSetID *uuid.UUID
}

// RecomputeResult aggregates one run's outcome.
type RecomputeResult struct {
	ComputeRequestID uuid.UUID   `json:"compute_request_id"`
	Requested        int         `json:"requested"`
	Inserted         int         `json:"inserted"`
	Skipped          int         `json:"skipped"`
	Blocked          int         `json:"blocked"`
	BlockedSample    []uuid.UUID `json:"blocked_sample"`
}

// RecomputeService runs the batch pipeline: per active mapping it gathers
// context, evaluates the rule engine (or the manual path), applies
// adjustments, margin and rounding, and inserts one immutable snapshot.
type RecomputeService struct {
	policies    pricing.PolicyRepository
	factors     pricing.FactorRepository
	ticks       pricing.TickRepository
	rules       pricing.RuleRepository
	adjustments pricing.AdjustmentRepository
	snapshots   pricing.SnapshotRepository
	mappings    channel.MappingRepository
	items       catalog.MasterItemRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewRecomputeService wires the pipeline.
func NewRecomputeService(
	policies pricing.PolicyRepository,
	factors pricing.FactorRepository,
	ticks pricing.TickRepository,
	rules pricing.RuleRepository,
	adjustments pricing.AdjustmentRepository,
	snapshots pricing.SnapshotRepository,
	mappings channel.MappingRepository,
	items catalog.MasterItemRepository,
	logger *zap.Logger,
) *RecomputeService {
	return &RecomputeService{
		policies:    policies,
		factors:     factors,
		ticks:       ticks,
		rules:       rules,
		adjustments: adjustments,
		snapshots:   snapshots,
		mappings:    mappings,
		items:       items,
		logger:      logger,
		now:         time.Now,
	}
}

// batchContext holds everything loaded once per run.
type batchContext struct {
	policy      *pricing.Policy
	material    *pricing.MaterialContext
	tick        *pricing.MarketTick
	ruleTables  map[uuid.UUID]*pricing.RuleTable
	adjustments []pricing.Adjustment
	overrides   map[uuid.UUID]pricing.Override
	baseLedger  map[uuid.UUID]decimal.Decimal
	laborLedger map[uuid.UUID]decimal.Decimal
	items       map[uuid.UUID]*catalog.MasterItem
	at          time.Time
}

// Recompute executes one batch run and returns aggregate counts.
func (s *RecomputeService) Recompute(ctx context.Context, req RecomputeRequest) (*RecomputeResult, error) {
	mappings, err := s.mappings.FindActiveByChannel(ctx, req.ChannelID, req.MasterItemIDs)
	if err != nil {
		return nil, err
	}

	batch, err := s.loadBatchContext(ctx, req, mappings)
	if err != nil {
		return nil, err
	}

	result := &RecomputeResult{
		ComputeRequestID: uuid.New(),
		Requested:        len(mappings),
		BlockedSample:    make([]uuid.UUID, 0),
	}

	for i := range mappings {
		m := &mappings[i]
		item, ok := batch.items[m.MasterItemID]
		if !ok {
			result.Skipped++
			continue
		}

		snapshot, outcome := s.computeOne(m, item, batch, result.ComputeRequestID)
		switch outcome {
		case outcomeSkipped:
			result.Skipped++
			continue
		case outcomeBlocked:
			result.Blocked++
			if len(result.BlockedSample) < blockedSampleLimit {
				result.BlockedSample = append(result.BlockedSample, m.ID)
			}
		default:
			result.Inserted++
		}

		if err := s.snapshots.Insert(ctx, snapshot); err != nil {
			return nil, err
		}
	}

	s.logger.Info("price recompute finished",
		zap.String("channel_id", req.ChannelID.String()),
		zap.String("compute_request_id", result.ComputeRequestID.String()),
		zap.Int("requested", result.Requested),
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped),
		zap.Int("blocked", result.Blocked),
	)
	return result, nil
}

func (s *RecomputeService) loadBatchContext(ctx context.Context, req RecomputeRequest, mappings []channel.Mapping) (*batchContext, error) {
	policy, err := s.policies.FindActiveByChannel(ctx, req.ChannelID)
	if err != nil {
		return nil, err
	}

	factorSetID := policy.MaterialFactorSetID
	if req.FactorSetID != nil && *req.FactorSetID != uuid.Nil {
		factorSetID = *req.FactorSetID
	}
	factors, err := s.factors.FindBySet(ctx, factorSetID)
	if err != nil {
		return nil, err
	}

	tick, err := s.ticks.Latest(ctx)
	if err != nil {
		return nil, err
	}

	ruleSetIDs := make([]uuid.UUID, 0)
	seenSets := make(map[uuid.UUID]struct{})
	itemIDs := make([]uuid.UUID, 0, len(mappings))
	seenItems := make(map[uuid.UUID]struct{})
	for _, m := range mappings {
		if m.RuleSetID != nil {
			if _, ok := seenSets[*m.RuleSetID]; !ok {
				seenSets[*m.RuleSetID] = struct{}{}
				ruleSetIDs = append(ruleSetIDs, *m.RuleSetID)
			}
		}
		if _, ok := seenItems[m.MasterItemID]; !ok {
			seenItems[m.MasterItemID] = struct{}{}
			itemIDs = append(itemIDs, m.MasterItemID)
		}
	}

	ruleTables, err := s.rules.FindActiveBySets(ctx, ruleSetIDs)
	if err != nil {
		return nil, err
	}

	items, err := s.items.FindByIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}

	at := s.now()
	adjustments, err := s.adjustments.FindActive(ctx, req.ChannelID, at)
	if err != nil {
		return nil, err
	}
	overrides, err := s.adjustments.FindActiveOverrides(ctx, at)
	if err != nil {
		return nil, err
	}
	baseLedger, err := s.adjustments.SumLedger(ctx, pricing.LedgerBasePrice)
	if err != nil {
		return nil, err
	}
	laborLedger, err := s.adjustments.SumLedger(ctx, pricing.LedgerLabor)
	if err != nil {
		return nil, err
	}

	return &batchContext{
		policy:      policy,
		material:    pricing.NewMaterialContext(factors, *tick),
		tick:        tick,
		ruleTables:  ruleTables,
		adjustments: adjustments,
		overrides:   overrides,
		baseLedger:  baseLedger,
		laborLedger: laborLedger,
		items:       items,
		at:          at,
	}, nil
}

type computeOutcome int

const (
	outcomeInserted computeOutcome = iota
	outcomeSkipped
	outcomeBlocked
)

// computeOne runs the full per-mapping pipeline and builds the snapshot.
func (s *RecomputeService) computeOne(m *channel.Mapping, item *catalog.MasterItem, batch *batchContext, requestID uuid.UUID) (*pricing.Snapshot, computeOutcome) {
	extra := decimal.Zero
	if m.UseWeightRule {
		extra = m.SizeWeightDelta
	}
	netWeight := item.NetWeight(extra)

	snapshot := &pricing.Snapshot{
		ID:                uuid.New(),
		ComputeRequestID:  requestID,
		ChannelID:         m.ChannelID,
		MappingID:         m.ID,
		MasterItemID:      m.MasterItemID,
		PriceMode:         string(m.PriceMode),
		EffectiveMaterial: item.MaterialCode,
		NetWeightGram:     netWeight,
		MarginMultiplier:  batch.policy.EffectiveMargin(m.UseMarginRule),
		TickGoldPerGram:   batch.tick.GoldPerGram,
		TickSilverPerGram: batch.tick.SilverPerGram,
		TickSource:        batch.tick.Source,
		TickQuotedAt:      batch.tick.QuotedAt,
		CreatedAt:         batch.at,
	}

	// MANUAL mode with a usable absolute target bypasses the engine and the
	// whole adjustment pipeline
	if m.PriceMode == channel.PriceModeManual && m.HasValidManualTarget() {
		target := *m.ManualTarget
		snapshot.RawTarget = target
		snapshot.RoundedTarget = target
		snapshot.FinalTarget = &target
		return snapshot, outcomeInserted
	}

	ruleTotal := decimal.Zero
	if m.PriceMode == channel.PriceModeSync {
		var table pricing.RuleTable
		if m.RuleSetID != nil {
			if t, ok := batch.ruleTables[*m.RuleSetID]; ok {
				table = *t
			}
		}
		res := pricing.Evaluate(pricing.EngineInput{
			BaseMaterial:          item.MaterialCode,
			OptionMaterial:        m.OptionMaterial,
			OptionColor:           m.OptionColor,
			OptionDecoration:      m.OptionDecoration,
			OptionSize:            m.OptionSize,
			CategoryCode:          item.CategoryCode,
			NetWeight:             netWeight,
			RequireWeight:         m.UseWeightRule,
			RequireColor:          m.UseColorRule,
			RequireDecoration:     m.UseDecorationRule,
			DefaultSwapMultiplier: batch.policy.DefaultSwapMultiplier,
		}, table, batch.material)

		snapshot.SwapDelta = res.SwapDelta
		snapshot.WeightDelta = res.WeightDelta
		snapshot.ColorDelta = res.ColorDelta
		snapshot.DecorationDelta = res.DecorationDelta
		snapshot.RuleTotal = res.Total()
		snapshot.RuleHitTrace = hitTrace(res.Hits)

		if res.Blocked() {
			// Fails closed: the snapshot records the block, no usable price
			snapshot.Blocked = true
			snapshot.MissingRules = familyStrings(res.Missing)
			return snapshot, outcomeBlocked
		}
		snapshot.EffectiveMaterial = res.EffectiveMaterial
		ruleTotal = res.Total()
	} else {
		// MANUAL without an absolute target prices through the pipeline with
		// the mapping's flat option delta in place of the engine total
		ruleTotal = m.ManualOptionDelta
		snapshot.RuleTotal = ruleTotal
	}

	// Material is valued at the base material code: the swap delta already
	// carries the swap economics
	materialValue := batch.material.Value(item.MaterialCode, netWeight)
	snapshot.MaterialValue = materialValue

	labor := item.LaborTotal()
	if m.UsePlatingRule {
		labor = labor.Add(item.PlatingPrice)
	}
	if delta, ok := batch.laborLedger[m.MasterItemID]; ok {
		labor = labor.Add(delta)
	}
	labor = pricing.ApplyAdjustments(labor, s.stageAdjustments(batch, m, pricing.StagePreMargin, true))
	snapshot.LaborValue = labor

	preMargin := pricing.ApplyAdjustments(materialValue.Add(labor), s.stageAdjustments(batch, m, pricing.StagePreMargin, false))
	snapshot.PreMarginValue = preMargin

	afterMargin := preMargin.Mul(batch.policy.EffectiveMargin(m.UseMarginRule))
	snapshot.AfterMarginValue = afterMargin

	postMargin := pricing.ApplyAdjustments(afterMargin, s.stageAdjustments(batch, m, pricing.StagePostMargin, false))
	snapshot.PostMarginValue = postMargin

	ledgerDelta := decimal.Zero
	if delta, ok := batch.baseLedger[m.MasterItemID]; ok {
		ledgerDelta = delta
	}
	snapshot.LedgerDelta = ledgerDelta

	raw := postMargin.Add(ledgerDelta).Add(ruleTotal)
	snapshot.RawTarget = raw

	var rounded decimal.Decimal
	if m.UseRoundingRule {
		rounded = pricing.Round(raw, batch.policy.RoundUnit, batch.policy.RoundMode)
	} else {
		rounded = raw.Round(0)
	}
	snapshot.RoundedTarget = rounded

	final := rounded
	if ov, ok := batch.overrides[m.MasterItemID]; ok && ov.ActiveAt(batch.at) {
		// Both the rounded value and the override are persisted
		amount := ov.Amount
		snapshot.OverrideAmount = &amount
		final = amount
	}
	snapshot.FinalTarget = &final

	if final.IsNegative() {
		return snapshot, outcomeSkipped
	}
	return snapshot, outcomeInserted
}

// stageAdjustments filters the run's adjustments to one stage and mapping.
// laborOnly selects the labor-scoped pre-margin pass, which by convention is
// the MASTER-scoped subset.
func (s *RecomputeService) stageAdjustments(batch *batchContext, m *channel.Mapping, stage pricing.AdjustmentStage, laborOnly bool) []pricing.Adjustment {
	out := make([]pricing.Adjustment, 0)
	for _, a := range batch.adjustments {
		if a.Stage != stage || !a.ActiveAt(batch.at) {
			continue
		}
		if !a.AppliesTo(m.ChannelID, m.MasterItemID, m.ID) {
			continue
		}
		if laborOnly != (a.Scope == pricing.ScopeMaster) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func hitTrace(hits []pricing.RuleHit) []string {
	trace := make([]string, 0, len(hits))
	for _, h := range hits {
		trace = append(trace, string(h.Family)+":"+h.RuleID.String())
	}
	return trace
}

func familyStrings(families []pricing.RuleFamily) []string {
	out := make([]string, 0, len(families))
	for _, f := range families {
		out = append(out, string(f))
	}
	return out
}
