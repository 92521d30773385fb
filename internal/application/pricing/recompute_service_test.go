package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/catalog"
	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/channel"
	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/pricing"
)

func newTestLogger() *zap.Logger {
	return zap.NewNop()
}

// MockPolicyRepository is a mock implementation of PolicyRepository
type MockPolicyRepository struct {
	mock.Mock
}

func (m *MockPolicyRepository) FindActiveByChannel(ctx context.Context, channelID uuid.UUID) (*pricing.Policy, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.Policy), args.Error(1)
}

// MockFactorRepository is a mock implementation of FactorRepository
type MockFactorRepository struct {
	mock.Mock
}

func (m *MockFactorRepository) FindBySet(ctx context.Context, factorSetID uuid.UUID) ([]pricing.MaterialFactor, error) {
	args := m.Called(ctx, factorSetID)
	return args.Get(0).([]pricing.MaterialFactor), args.Error(1)
}

// MockTickRepository is a mock implementation of TickRepository
type MockTickRepository struct {
	mock.Mock
}

func (m *MockTickRepository) Latest(ctx context.Context) (*pricing.MarketTick, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.MarketTick), args.Error(1)
}

// MockRuleRepository is a mock implementation of RuleRepository
type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) FindActiveBySet(ctx context.Context, ruleSetID uuid.UUID) (*pricing.RuleTable, error) {
	args := m.Called(ctx, ruleSetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.RuleTable), args.Error(1)
}

func (m *MockRuleRepository) FindActiveBySets(ctx context.Context, ruleSetIDs []uuid.UUID) (map[uuid.UUID]*pricing.RuleTable, error) {
	args := m.Called(ctx, ruleSetIDs)
	return args.Get(0).(map[uuid.UUID]*pricing.RuleTable), args.Error(1)
}

// MockAdjustmentRepository is a mock implementation of AdjustmentRepository
type MockAdjustmentRepository struct {
	mock.Mock
}

func (m *MockAdjustmentRepository) FindActive(ctx context.Context, channelID uuid.UUID, at time.Time) ([]pricing.Adjustment, error) {
	args := m.Called(ctx, channelID, at)
	return args.Get(0).([]pricing.Adjustment), args.Error(1)
}

func (m *MockAdjustmentRepository) FindActiveOverrides(ctx context.Context, at time.Time) (map[uuid.UUID]pricing.Override, error) {
	args := m.Called(ctx, at)
	return args.Get(0).(map[uuid.UUID]pricing.Override), args.Error(1)
}

func (m *MockAdjustmentRepository) SumLedger(ctx context.Context, kind pricing.LedgerKind) (map[uuid.UUID]decimal.Decimal, error) {
	args := m.Called(ctx, kind)
	return args.Get(0).(map[uuid.UUID]decimal.Decimal), args.Error(1)
}

// MockSnapshotRepository is a mock implementation of SnapshotRepository that
// captures inserted snapshots for assertions
type MockSnapshotRepository struct {
	mock.Mock
	Inserted []*pricing.Snapshot
}

func (m *MockSnapshotRepository) Insert(ctx context.Context, snapshot *pricing.Snapshot) error {
	args := m.Called(ctx, snapshot)
	m.Inserted = append(m.Inserted, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotRepository) FindLatestByMapping(ctx context.Context, mappingIDs []uuid.UUID) (map[uuid.UUID]*pricing.Snapshot, error) {
	args := m.Called(ctx, mappingIDs)
	return args.Get(0).(map[uuid.UUID]*pricing.Snapshot), args.Error(1)
}

// MockMappingRepository is a mock implementation of channel.MappingRepository
type MockMappingRepository struct {
	mock.Mock
}

func (m *MockMappingRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.Mapping, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.Mapping), args.Error(1)
}

func (m *MockMappingRepository) FindActiveByChannel(ctx context.Context, channelID uuid.UUID, masterItemIDs []uuid.UUID) ([]channel.Mapping, error) {
	args := m.Called(ctx, channelID, masterItemIDs)
	return args.Get(0).([]channel.Mapping), args.Error(1)
}

func (m *MockMappingRepository) FindByProduct(ctx context.Context, channelID uuid.UUID, productNo string) ([]channel.Mapping, error) {
	args := m.Called(ctx, channelID, productNo)
	return args.Get(0).([]channel.Mapping), args.Error(1)
}

func (m *MockMappingRepository) Save(ctx context.Context, mapping *channel.Mapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *MockMappingRepository) SaveBatch(ctx context.Context, mappings []*channel.Mapping) error {
	args := m.Called(ctx, mappings)
	return args.Error(0)
}

// MockMasterItemRepository is a mock implementation of catalog.MasterItemRepository
type MockMasterItemRepository struct {
	mock.Mock
}

func (m *MockMasterItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.MasterItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.MasterItem), args.Error(1)
}

func (m *MockMasterItemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.MasterItem, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[uuid.UUID]*catalog.MasterItem), args.Error(1)
}

// recomputeFixture bundles the service with its mocks and a consistent
// gold-pricing world: 14K base item, 18K option, one swap rule.
type recomputeFixture struct {
	service     *RecomputeService
	policies    *MockPolicyRepository
	factors     *MockFactorRepository
	ticks       *MockTickRepository
	rules       *MockRuleRepository
	adjustments *MockAdjustmentRepository
	snapshots   *MockSnapshotRepository
	mappings    *MockMappingRepository
	items       *MockMasterItemRepository

	channelID uuid.UUID
	ruleSetID uuid.UUID
	item      *catalog.MasterItem
	policy    *pricing.Policy
	tick      *pricing.MarketTick
	swapRule  pricing.MaterialSwapRule
}

func newRecomputeFixture() *recomputeFixture {
	f := &recomputeFixture{
		policies:    new(MockPolicyRepository),
		factors:     new(MockFactorRepository),
		ticks:       new(MockTickRepository),
		rules:       new(MockRuleRepository),
		adjustments: new(MockAdjustmentRepository),
		snapshots:   new(MockSnapshotRepository),
		mappings:    new(MockMappingRepository),
		items:       new(MockMasterItemRepository),
		channelID:   uuid.New(),
		ruleSetID:   uuid.New(),
	}
	f.service = NewRecomputeService(
		f.policies, f.factors, f.ticks, f.rules,
		f.adjustments, f.snapshots, f.mappings, f.items,
		newTestLogger(),
	)

	factorSetID := uuid.New()
	f.policy = &pricing.Policy{
		ID:                    uuid.New(),
		ChannelID:             f.channelID,
		MarginMultiplier:      decimal.NewFromFloat(1.1),
		RoundUnit:             decimal.NewFromInt(100),
		RoundMode:             pricing.RoundCeil,
		DefaultSwapMultiplier: decimal.NewFromFloat(1.2),
		MaterialFactorSetID:   factorSetID,
		Active:                true,
	}
	f.tick = &pricing.MarketTick{
		GoldPerGram:   decimal.NewFromInt(100000),
		SilverPerGram: decimal.NewFromInt(1500),
		Source:        "test-feed",
		QuotedAt:      time.Now(),
	}
	f.item = &catalog.MasterItem{
		ID:           uuid.New(),
		ItemCode:     "RG-1001",
		CategoryCode: "RING",
		MaterialCode: "14",
		WeightGram:   decimal.NewFromInt(2),
		LaborBase:    decimal.NewFromInt(20000),
	}
	f.swapRule = pricing.MaterialSwapRule{
		ID:             uuid.New(),
		RuleSetID:      f.ruleSetID,
		SourceMaterial: "14",
		TargetMaterial: "18",
		Multiplier:     decimal.NewFromInt(1),
		Priority:       10,
		Active:         true,
	}
	return f
}

func (f *recomputeFixture) factorRows() []pricing.MaterialFactor {
	return []pricing.MaterialFactor{
		{MaterialCode: "14", PurityRate: decimal.NewFromFloat(0.585), AdjustFactor: decimal.NewFromInt(1), Basis: pricing.BasisGold},
		{MaterialCode: "18", PurityRate: decimal.NewFromFloat(0.75), AdjustFactor: decimal.NewFromInt(1), Basis: pricing.BasisGold},
	}
}

func (f *recomputeFixture) syncMapping() channel.Mapping {
	return channel.Mapping{
		ID:                uuid.New(),
		ChannelID:         f.channelID,
		MasterItemID:      f.item.ID,
		ExternalProductNo: "5000001",
		RuleSetID:         &f.ruleSetID,
		OptionMaterial:    "18",
		UseMarginRule:     true,
		UseRoundingRule:   true,
		PriceMode:         channel.PriceModeSync,
		Active:            true,
	}
}

// expectBatch wires the standard expectations for one recompute run.
func (f *recomputeFixture) expectBatch(mappings []channel.Mapping, table *pricing.RuleTable, adjustments []pricing.Adjustment, overrides map[uuid.UUID]pricing.Override) {
	f.mappings.On("FindActiveByChannel", mock.Anything, f.channelID, mock.Anything).Return(mappings, nil)
	f.policies.On("FindActiveByChannel", mock.Anything, f.channelID).Return(f.policy, nil)
	f.factors.On("FindBySet", mock.Anything, f.policy.MaterialFactorSetID).Return(f.factorRows(), nil)
	f.ticks.On("Latest", mock.Anything).Return(f.tick, nil)

	tables := map[uuid.UUID]*pricing.RuleTable{}
	if table != nil {
		tables[f.ruleSetID] = table
	}
	f.rules.On("FindActiveBySets", mock.Anything, mock.Anything).Return(tables, nil)
	f.items.On("FindByIDs", mock.Anything, mock.Anything).Return(map[uuid.UUID]*catalog.MasterItem{f.item.ID: f.item}, nil)
	f.adjustments.On("FindActive", mock.Anything, f.channelID, mock.Anything).Return(adjustments, nil)
	f.adjustments.On("FindActiveOverrides", mock.Anything, mock.Anything).Return(overrides, nil)
	f.adjustments.On("SumLedger", mock.Anything, pricing.LedgerBasePrice).Return(map[uuid.UUID]decimal.Decimal{}, nil)
	f.adjustments.On("SumLedger", mock.Anything, pricing.LedgerLabor).Return(map[uuid.UUID]decimal.Decimal{}, nil)
	f.snapshots.On("Insert", mock.Anything, mock.AnythingOfType("*pricing.Snapshot")).Return(nil)
}

func TestRecompute_SyncPipeline(t *testing.T) {
	f := newRecomputeFixture()
	mapping := f.syncMapping()
	f.expectBatch([]channel.Mapping{mapping},
		&pricing.RuleTable{Swap: []pricing.MaterialSwapRule{f.swapRule}},
		nil, map[uuid.UUID]pricing.Override{})

	result, err := f.service.Recompute(context.Background(), RecomputeRequest{ChannelID: f.channelID})

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Requested)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 0, result.Blocked)
	assert.Len(t, f.snapshots.Inserted, 1)

	// material 0.585*2*100000 = 117000, labor 20000, margin 1.1 -> 150700
	// swap delta (0.75*2*100000) - 117000 = 33000, raw 183700, unit 100 CEIL
	snap := f.snapshots.Inserted[0]
	assert.False(t, snap.Blocked)
	assert.Equal(t, "117000", snap.MaterialValue.String())
	assert.Equal(t, "33000", snap.SwapDelta.String())
	assert.Equal(t, "150700", snap.AfterMarginValue.String())
	assert.Equal(t, "183700", snap.RoundedTarget.String())
	if assert.NotNil(t, snap.FinalTarget) {
		assert.Equal(t, "183700", snap.FinalTarget.String())
	}
	assert.Equal(t, "18", snap.EffectiveMaterial)
	assert.Len(t, snap.RuleHitTrace, 1)
}

func TestRecompute_ManualTargetBypassesPipeline(t *testing.T) {
	f := newRecomputeFixture()
	manualTarget := decimal.NewFromInt(5000)
	mapping := f.syncMapping()
	mapping.PriceMode = channel.PriceModeManual
	mapping.RuleSetID = nil
	mapping.ManualTarget = &manualTarget

	// Adjustments and overrides exist but must not touch the manual price
	adjustment := pricing.Adjustment{
		ID: uuid.New(), Scope: pricing.ScopeChannel, ScopeRef: f.channelID,
		Stage: pricing.StagePreMargin, Kind: pricing.KindPercent,
		Amount: decimal.NewFromInt(50), Active: true,
	}
	f.expectBatch([]channel.Mapping{mapping}, nil,
		[]pricing.Adjustment{adjustment}, map[uuid.UUID]pricing.Override{})

	result, err := f.service.Recompute(context.Background(), RecomputeRequest{ChannelID: f.channelID})

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	snap := f.snapshots.Inserted[0]
	if assert.NotNil(t, snap.FinalTarget) {
		assert.True(t, snap.FinalTarget.Equal(manualTarget), "manual target must pass through untouched, got %s", snap.FinalTarget)
	}
	assert.Equal(t, "5000", snap.RawTarget.String())
	assert.Equal(t, "5000", snap.RoundedTarget.String())
}

func TestRecompute_BlockedMappingStillAudited(t *testing.T) {
	f := newRecomputeFixture()
	mapping := f.syncMapping()
	// Empty rule table: the required swap family cannot match
	f.expectBatch([]channel.Mapping{mapping}, &pricing.RuleTable{},
		nil, map[uuid.UUID]pricing.Override{})

	result, err := f.service.Recompute(context.Background(), RecomputeRequest{ChannelID: f.channelID})

	assert.NoError(t, err)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 1, result.Blocked)
	assert.Equal(t, []uuid.UUID{mapping.ID}, result.BlockedSample)

	// Blocked runs still leave an audit snapshot, just without a price
	assert.Len(t, f.snapshots.Inserted, 1)
	snap := f.snapshots.Inserted[0]
	assert.True(t, snap.Blocked)
	assert.Nil(t, snap.FinalTarget)
	assert.Contains(t, snap.MissingRules, "R1")
}

func TestRecompute_SnapshotsAreInsertOnly(t *testing.T) {
	f := newRecomputeFixture()
	mapping := f.syncMapping()
	f.expectBatch([]channel.Mapping{mapping},
		&pricing.RuleTable{Swap: []pricing.MaterialSwapRule{f.swapRule}},
		nil, map[uuid.UUID]pricing.Override{})

	ctx := context.Background()
	first, err := f.service.Recompute(ctx, RecomputeRequest{ChannelID: f.channelID})
	assert.NoError(t, err)
	second, err := f.service.Recompute(ctx, RecomputeRequest{ChannelID: f.channelID})
	assert.NoError(t, err)

	assert.NotEqual(t, first.ComputeRequestID, second.ComputeRequestID)
	assert.Len(t, f.snapshots.Inserted, 2)

	a, b := f.snapshots.Inserted[0], f.snapshots.Inserted[1]
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.ComputeRequestID, b.ComputeRequestID)
	// Same inputs, same price: only the identifiers differ
	assert.True(t, a.RawTarget.Equal(b.RawTarget))
	assert.True(t, a.FinalTarget.Equal(*b.FinalTarget))
}

func TestRecompute_AdjustmentsAndOverride(t *testing.T) {
	f := newRecomputeFixture()
	mapping := f.syncMapping()

	postMargin := pricing.Adjustment{
		ID: uuid.New(), Scope: pricing.ScopeChannel, ScopeRef: f.channelID,
		Stage: pricing.StagePostMargin, Kind: pricing.KindAmount,
		Amount: decimal.NewFromInt(300), Active: true,
	}
	override := pricing.Override{
		ID: uuid.New(), MasterItemID: f.item.ID,
		Amount: decimal.NewFromInt(99999), Active: true,
	}
	f.expectBatch([]channel.Mapping{mapping},
		&pricing.RuleTable{Swap: []pricing.MaterialSwapRule{f.swapRule}},
		[]pricing.Adjustment{postMargin},
		map[uuid.UUID]pricing.Override{f.item.ID: override})

	result, err := f.service.Recompute(context.Background(), RecomputeRequest{ChannelID: f.channelID})

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	snap := f.snapshots.Inserted[0]
	// 150700 + 300 post-margin, + 33000 swap, CEIL(184000, 100)
	assert.Equal(t, "151000", snap.PostMarginValue.String())
	assert.Equal(t, "184000", snap.RoundedTarget.String())
	// The override replaces the final target but the rounded value survives
	if assert.NotNil(t, snap.OverrideAmount) {
		assert.Equal(t, "99999", snap.OverrideAmount.String())
	}
	if assert.NotNil(t, snap.FinalTarget) {
		assert.Equal(t, "99999", snap.FinalTarget.String())
	}
}

func TestRecompute_ManualWithoutTargetUsesOptionDelta(t *testing.T) {
	f := newRecomputeFixture()
	mapping := f.syncMapping()
	mapping.PriceMode = channel.PriceModeManual
	mapping.RuleSetID = nil
	mapping.ManualTarget = nil
	mapping.ManualOptionDelta = decimal.NewFromInt(7000)
	mapping.UseMarginRule = false
	mapping.UseRoundingRule = false

	f.expectBatch([]channel.Mapping{mapping}, nil, nil, map[uuid.UUID]pricing.Override{})

	result, err := f.service.Recompute(context.Background(), RecomputeRequest{ChannelID: f.channelID})

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	snap := f.snapshots.Inserted[0]
	// material 117000 + labor 20000 + delta 7000, margin disabled
	assert.Equal(t, "7000", snap.RuleTotal.String())
	if assert.NotNil(t, snap.FinalTarget) {
		assert.Equal(t, "144000", snap.FinalTarget.String())
	}
}
