package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/shared"
)

// Common pricing errors
var (
	ErrPolicyNotFound    = shared.NewDomainError("POLICY_NOT_FOUND", "No active pricing policy for channel")
	ErrTickNotFound      = shared.NewDomainError("TICK_NOT_FOUND", "No market tick available")
	ErrFactorSetNotFound = shared.NewDomainError("FACTOR_SET_NOT_FOUND", "Material factor set not found")
)

// PolicyRepository loads the active channel policy.
type PolicyRepository interface {
	FindActiveByChannel(ctx context.Context, channelID uuid.UUID) (*Policy, error)
}

// FactorRepository loads material factor sets.
type FactorRepository interface {
	FindBySet(ctx context.Context, factorSetID uuid.UUID) ([]MaterialFactor, error)
}

// TickRepository reads the latest commodity tick.
type TickRepository interface {
	Latest(ctx context.Context) (*MarketTick, error)
}

// RuleRepository loads active rules grouped by family, priority-ordered.
type RuleRepository interface {
	// FindActiveBySet loads one rule set's active rules
	FindActiveBySet(ctx context.Context, ruleSetID uuid.UUID) (*RuleTable, error)

	// FindActiveBySets batch-loads active rules for many rule sets
	FindActiveBySets(ctx context.Context, ruleSetIDs []uuid.UUID) (map[uuid.UUID]*RuleTable, error)
}

// AdjustmentRepository reads time-bounded modifiers and ledger sums.
type AdjustmentRepository interface {
	// FindActive returns adjustments valid at the given instant for a channel
	// (any scope; callers filter per mapping with AppliesTo)
	FindActive(ctx context.Context, channelID uuid.UUID, at time.Time) ([]Adjustment, error)

	// FindActiveOverrides returns overrides valid at the given instant keyed
	// by master item id
	FindActiveOverrides(ctx context.Context, at time.Time) (map[uuid.UUID]Override, error)

	// SumLedger returns the cumulative ledger amount per master item for one
	// ledger kind
	SumLedger(ctx context.Context, kind LedgerKind) (map[uuid.UUID]decimal.Decimal, error)
}

// SnapshotRepository persists computation results. Insert-only.
type SnapshotRepository interface {
	Insert(ctx context.Context, snapshot *Snapshot) error

	// FindLatestByMapping returns the newest snapshot per mapping id
	FindLatestByMapping(ctx context.Context, mappingIDs []uuid.UUID) (map[uuid.UUID]*Snapshot, error)
}
