package channel

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSyncMapping() *Mapping {
	ruleSet := uuid.New()
	return &Mapping{
		ID:                uuid.New(),
		ChannelID:         uuid.New(),
		MasterItemID:      uuid.New(),
		ExternalProductNo: "1000001",
		PriceMode:         PriceModeSync,
		RuleSetID:         &ruleSet,
		Source:            SourceManual,
		Active:            true,
	}
}

func TestMappingValidate(t *testing.T) {
	m := validSyncMapping()
	assert.NoError(t, m.Validate())

	t.Run("missing product number", func(t *testing.T) {
		m := validSyncMapping()
		m.ExternalProductNo = ""
		assert.ErrorIs(t, m.Validate(), ErrMappingProductNo)
	})

	t.Run("unknown price mode", func(t *testing.T) {
		m := validSyncMapping()
		m.PriceMode = "BOGUS"
		assert.ErrorIs(t, m.Validate(), ErrMappingInvalidMode)
	})

	t.Run("sync mode requires a rule set", func(t *testing.T) {
		m := validSyncMapping()
		m.RuleSetID = nil
		assert.ErrorIs(t, m.Validate(), ErrMappingRuleSet)
	})

	t.Run("manual mode needs no rule set", func(t *testing.T) {
		m := validSyncMapping()
		m.PriceMode = PriceModeManual
		m.RuleSetID = nil
		assert.NoError(t, m.Validate())
	})

	t.Run("negative manual target rejected", func(t *testing.T) {
		m := validSyncMapping()
		m.PriceMode = PriceModeManual
		target := decimal.NewFromInt(-1)
		m.ManualTarget = &target
		assert.ErrorIs(t, m.Validate(), ErrMappingManualTarget)
	})
}

func TestMappingBaseRow(t *testing.T) {
	m := validSyncMapping()
	assert.True(t, m.IsBaseRow())
	m.ExternalVariantCode = "OPT-1"
	assert.False(t, m.IsBaseRow())
}

func TestMappingCloneForVariant(t *testing.T) {
	m := validSyncMapping()
	m.UseWeightRule = true
	m.UseColorRule = true
	now := time.Now()

	clone := m.CloneForVariant("OPT-7", now)

	require.NotEqual(t, m.ID, clone.ID)
	assert.Equal(t, "OPT-7", clone.ExternalVariantCode)
	assert.Equal(t, SourceAuto, clone.Source)
	assert.Equal(t, m.RuleSetID, clone.RuleSetID, "rule configuration is copied")
	assert.True(t, clone.UseWeightRule)
	assert.True(t, clone.UseColorRule)
	assert.Equal(t, m.ExternalProductNo, clone.ExternalProductNo)
	assert.Equal(t, now, clone.CreatedAt)
}

func TestPriceSyncJobFinish(t *testing.T) {
	tests := []struct {
		name                      string
		success, failed, skipped int
		want                      JobStatus
	}{
		{"all success", 3, 0, 0, JobSuccess},
		{"skips do not fail a job", 2, 0, 1, JobSuccess},
		{"all failed", 0, 2, 0, JobFailed},
		{"mixed is partial", 1, 1, 1, JobPartial},
		{"empty run is success", 0, 0, 0, JobSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewPriceSyncJob(uuid.New(), RunManual)
			assert.Equal(t, JobRunning, job.Status)

			job.Finish(tt.success, tt.failed, tt.skipped)

			assert.Equal(t, tt.want, job.Status)
			assert.Equal(t, tt.success+tt.failed+tt.skipped, job.TotalCount)
			require.NotNil(t, job.FinishedAt)
		})
	}
}

func TestCredentialExpired(t *testing.T) {
	now := time.Now()
	c := &Credential{AccessToken: "tok", ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, c.Expired(now))
	c.ExpiresAt = now.Add(time.Hour)
	assert.False(t, c.Expired(now))
	c.ExpiresAt = time.Time{}
	assert.False(t, c.Expired(now), "zero expiry never expires")
}
