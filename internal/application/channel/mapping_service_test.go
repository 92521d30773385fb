package channel

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/catalog"
	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/channel"
	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/pricing"
)

// MockRuleSetRepository is a mock implementation of channel.RuleSetRepository
type MockRuleSetRepository struct {
	mock.Mock
}

func (m *MockRuleSetRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.RuleSet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.RuleSet), args.Error(1)
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

// MockPolicyRepository is a mock implementation of pricing.PolicyRepository
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

// MockFactorRepository is a mock implementation of pricing.FactorRepository
type MockFactorRepository struct {
	mock.Mock
}

func (m *MockFactorRepository) FindBySet(ctx context.Context, factorSetID uuid.UUID) ([]pricing.MaterialFactor, error) {
	args := m.Called(ctx, factorSetID)
	return args.Get(0).([]pricing.MaterialFactor), args.Error(1)
}

// MockTickRepository is a mock implementation of pricing.TickRepository
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

// MockRuleRepository is a mock implementation of pricing.RuleRepository
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

type mappingFixture struct {
	service  *MappingService
	mappings *MockMappingRepository
	ruleSets *MockRuleSetRepository
	items    *MockMasterItemRepository
	policies *MockPolicyRepository
	factors  *MockFactorRepository
	ticks    *MockTickRepository
	rules    *MockRuleRepository

	channelID uuid.UUID
	ruleSetID uuid.UUID
	item      *catalog.MasterItem
}

func newMappingFixture() *mappingFixture {
	f := &mappingFixture{
		mappings:  new(MockMappingRepository),
		ruleSets:  new(MockRuleSetRepository),
		items:     new(MockMasterItemRepository),
		policies:  new(MockPolicyRepository),
		factors:   new(MockFactorRepository),
		ticks:     new(MockTickRepository),
		rules:     new(MockRuleRepository),
		channelID: uuid.New(),
		ruleSetID: uuid.New(),
	}
	f.service = NewMappingService(
		f.mappings, f.ruleSets, f.items,
		f.policies, f.factors, f.ticks, f.rules,
		newTestLogger(),
	)
	f.item = &catalog.MasterItem{
		ID:           uuid.New(),
		ItemCode:     "RG-1001",
		CategoryCode: "RING",
		MaterialCode: "14",
		WeightGram:   decimal.NewFromInt(2),
	}
	return f
}

func (f *mappingFixture) syncRequest() UpdateMappingRequest {
	return UpdateMappingRequest{
		ChannelID:         f.channelID,
		MasterItemID:      f.item.ID,
		ExternalProductNo: "1000001",
		OptionMaterial:    "18",
		RuleSetID:         &f.ruleSetID,
		PriceMode:         channel.PriceModeSync,
		Active:            true,
	}
}

// expectCoverageCheck wires the activation-gate lookups around one rule table.
func (f *mappingFixture) expectCoverageCheck(table *pricing.RuleTable) {
	f.ruleSets.On("FindByID", mock.Anything, f.ruleSetID).
		Return(&channel.RuleSet{ID: f.ruleSetID, ChannelID: f.channelID, Active: true}, nil)
	f.items.On("FindByID", mock.Anything, f.item.ID).Return(f.item, nil)

	factorSetID := uuid.New()
	f.policies.On("FindActiveByChannel", mock.Anything, f.channelID).Return(&pricing.Policy{
		ChannelID:             f.channelID,
		MarginMultiplier:      decimal.NewFromFloat(1.1),
		DefaultSwapMultiplier: decimal.NewFromFloat(1.2),
		MaterialFactorSetID:   factorSetID,
		Active:                true,
	}, nil)
	f.factors.On("FindBySet", mock.Anything, factorSetID).Return([]pricing.MaterialFactor{
		{MaterialCode: "14", PurityRate: decimal.NewFromFloat(0.585), AdjustFactor: decimal.NewFromInt(1), Basis: pricing.BasisGold},
		{MaterialCode: "18", PurityRate: decimal.NewFromFloat(0.75), AdjustFactor: decimal.NewFromInt(1), Basis: pricing.BasisGold},
	}, nil)
	f.ticks.On("Latest", mock.Anything).Return(&pricing.MarketTick{
		GoldPerGram:   decimal.NewFromInt(100000),
		SilverPerGram: decimal.NewFromInt(1500),
	}, nil)
	f.rules.On("FindActiveBySet", mock.Anything, f.ruleSetID).Return(table, nil)
}

func TestMappingUpdate_Validation(t *testing.T) {
	f := newMappingFixture()

	t.Run("missing product number", func(t *testing.T) {
		req := f.syncRequest()
		req.ExternalProductNo = ""
		_, err := f.service.Update(context.Background(), req)
		assert.ErrorIs(t, err, channel.ErrMappingProductNo)
	})

	t.Run("sync without rule set", func(t *testing.T) {
		req := f.syncRequest()
		req.RuleSetID = nil
		_, err := f.service.Update(context.Background(), req)
		assert.ErrorIs(t, err, channel.ErrMappingRuleSet)
	})

	t.Run("negative manual target", func(t *testing.T) {
		neg := decimal.NewFromInt(-1)
		req := f.syncRequest()
		req.PriceMode = channel.PriceModeManual
		req.RuleSetID = nil
		req.ManualTarget = &neg
		_, err := f.service.Update(context.Background(), req)
		assert.ErrorIs(t, err, channel.ErrMappingManualTarget)
	})

	f.mappings.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestMappingUpdate_SyncActivationBlocksOnMissingRules(t *testing.T) {
	f := newMappingFixture()
	// Empty table: the required material swap family cannot match
	f.expectCoverageCheck(&pricing.RuleTable{})

	_, err := f.service.Update(context.Background(), f.syncRequest())

	assert.ErrorIs(t, err, ErrMappingRulesIncomplete)
	f.mappings.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestMappingUpdate_SyncActivationSavesWhenCovered(t *testing.T) {
	f := newMappingFixture()
	f.expectCoverageCheck(&pricing.RuleTable{Swap: []pricing.MaterialSwapRule{{
		ID:             uuid.New(),
		RuleSetID:      f.ruleSetID,
		SourceMaterial: "14",
		TargetMaterial: "18",
		Multiplier:     decimal.NewFromInt(1),
		Active:         true,
	}}})
	f.mappings.On("Save", mock.Anything, mock.Anything).Return(nil)

	mapping, err := f.service.Update(context.Background(), f.syncRequest())

	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, mapping.ID)
	assert.Equal(t, channel.SourceManual, mapping.Source)
	f.mappings.AssertCalled(t, "Save", mock.Anything, mapping)
}

func TestMappingUpdate_ManualSkipsCoverageCheck(t *testing.T) {
	f := newMappingFixture()
	target := decimal.NewFromInt(5000)
	req := f.syncRequest()
	req.PriceMode = channel.PriceModeManual
	req.RuleSetID = nil
	req.ManualTarget = &target

	f.mappings.On("Save", mock.Anything, mock.Anything).Return(nil)

	mapping, err := f.service.Update(context.Background(), req)

	assert.NoError(t, err)
	assert.True(t, mapping.HasValidManualTarget())
	f.rules.AssertNotCalled(t, "FindActiveBySet", mock.Anything, mock.Anything)
	f.policies.AssertNotCalled(t, "FindActiveByChannel", mock.Anything, mock.Anything)
}

func TestMappingUpdate_PreservesIdentityOnEdit(t *testing.T) {
	f := newMappingFixture()
	existing := &channel.Mapping{
		ID:                uuid.New(),
		ChannelID:         f.channelID,
		MasterItemID:      f.item.ID,
		ExternalProductNo: "1000001",
		PriceMode:         channel.PriceModeManual,
		Source:            channel.SourceAuto,
		Active:            true,
	}
	f.mappings.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)
	f.mappings.On("Save", mock.Anything, mock.Anything).Return(nil)

	target := decimal.NewFromInt(8000)
	req := f.syncRequest()
	req.ID = &existing.ID
	req.PriceMode = channel.PriceModeManual
	req.RuleSetID = nil
	req.ManualTarget = &target

	mapping, err := f.service.Update(context.Background(), req)

	assert.NoError(t, err)
	assert.Equal(t, existing.ID, mapping.ID)
	// Edits keep the discovery provenance instead of resetting it to manual
	assert.Equal(t, channel.SourceAuto, mapping.Source)
}

func TestMappingDelete_Deactivates(t *testing.T) {
	f := newMappingFixture()
	existing := &channel.Mapping{
		ID:                uuid.New(),
		ChannelID:         f.channelID,
		MasterItemID:      f.item.ID,
		ExternalProductNo: "1000001",
		PriceMode:         channel.PriceModeManual,
		Active:            true,
	}
	f.mappings.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)
	f.mappings.On("Save", mock.Anything, existing).Return(nil)

	err := f.service.Delete(context.Background(), existing.ID)

	assert.NoError(t, err)
	assert.False(t, existing.Active)
	f.mappings.AssertCalled(t, "Save", mock.Anything, existing)
}

func TestMappingDelete_NotFound(t *testing.T) {
	f := newMappingFixture()
	id := uuid.New()
	f.mappings.On("FindByID", mock.Anything, id).Return(nil, channel.ErrMappingNotFound)

	err := f.service.Delete(context.Background(), id)

	assert.ErrorIs(t, err, channel.ErrMappingNotFound)
}
