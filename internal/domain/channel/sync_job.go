package channel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/shared"
)

// RunType records what triggered a push job.
type RunType string

const (
	RunManual    RunType = "MANUAL"
	RunScheduled RunType = "SCHEDULED"
	RunRetry     RunType = "RETRY"
)

// IsValid returns true for a known run type
func (t RunType) IsValid() bool {
	switch t {
	case RunManual, RunScheduled, RunRetry:
		return true
	}
	return false
}

// JobStatus is the aggregate outcome of one push invocation.
type JobStatus string

const (
	JobRunning JobStatus = "RUNNING"
	JobSuccess JobStatus = "SUCCESS"
	JobFailed  JobStatus = "FAILED"
	JobPartial JobStatus = "PARTIAL"
)

// ItemStatus is the per-candidate outcome.
type ItemStatus string

const (
	ItemSuccess ItemStatus = "SUCCESS"
	ItemFailed  ItemStatus = "FAILED"
	ItemSkipped ItemStatus = "SKIPPED"
)

// Named error codes so operators can tell "needs remapping" from "transient".
const (
	ErrCodeInvalidTarget       = "INVALID_TARGET"
	ErrCodeNeedsVariantMapping = "NEEDS_VARIANT_MAPPING"
	ErrCodeBaseImmutable       = "BASE_PRICE_IMMUTABLE"
	ErrCodeOptionRestricted    = "OPTION_TYPE_RESTRICTED"
	ErrCodeVerifyMismatch      = "VERIFY_MISMATCH"
	ErrCodeChannelHTTP         = "CHANNEL_HTTP_ERROR"
	ErrCodeChannelAuth         = "CHANNEL_AUTH_FAILED"
)

// PriceSyncJob is the audit record of one push invocation.
type PriceSyncJob struct {
	ID           uuid.UUID
	ChannelID    uuid.UUID
	RunType      RunType
	Status       JobStatus
	TotalCount   int
	SuccessCount int
	FailedCount  int
	SkippedCount int
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// NewPriceSyncJob starts a running job.
func NewPriceSyncJob(channelID uuid.UUID, runType RunType) *PriceSyncJob {
	return &PriceSyncJob{
		ID:        uuid.New(),
		ChannelID: channelID,
		RunType:   runType,
		Status:    JobRunning,
		StartedAt: time.Now(),
	}
}

// Finish records the counts and derives the final status: SUCCESS with no
// failures, FAILED with zero successes and at least one failure, PARTIAL
// otherwise.
func (j *PriceSyncJob) Finish(success, failed, skipped int) {
	j.SuccessCount = success
	j.FailedCount = failed
	j.SkippedCount = skipped
	j.TotalCount = success + failed + skipped
	switch {
	case failed == 0:
		j.Status = JobSuccess
	case success == 0:
		j.Status = JobFailed
	default:
		j.Status = JobPartial
	}
	now := time.Now()
	j.FinishedAt = &now
}

// PriceSyncJobItem is the insert-only audit row for one push candidate.
type PriceSyncJobItem struct {
	ID           uuid.UUID
	JobID        uuid.UUID
	MappingID    uuid.UUID
	MasterItemID uuid.UUID
	ProductNo    string
	VariantCode  string
	Status       ItemStatus
	BeforePrice  *decimal.Decimal
	TargetPrice  *decimal.Decimal
	AfterPrice   *decimal.Decimal
	HTTPStatus   int
	ErrorCode    string
	ErrorMessage string
	// Raw request/response payloads for forensic audit
	RequestPayload  string
	ResponsePayload string
	CreatedAt       time.Time
}

// Common sync errors
var (
	ErrJobNotFound = shared.NewDomainError("SYNC_JOB_NOT_FOUND", "Price sync job not found")
)

// SyncJobRepository persists push audit records.
type SyncJobRepository interface {
	InsertJob(ctx context.Context, job *PriceSyncJob) error
	UpdateJob(ctx context.Context, job *PriceSyncJob) error
	InsertItem(ctx context.Context, item *PriceSyncJobItem) error
	FindJob(ctx context.Context, id uuid.UUID) (*PriceSyncJob, error)
	FindItems(ctx context.Context, jobID uuid.UUID) ([]PriceSyncJobItem, error)
}

// DashboardRow is one row of the denormalized price-dashboard view joining
// mapping + latest snapshot.
type DashboardRow struct {
	MappingID    uuid.UUID
	MasterItemID uuid.UUID
	ChannelID    uuid.UUID
	ProductNo    string
	VariantCode  string
	PriceMode    PriceMode
	Active       bool
	// TargetPrice is the latest snapshot's final target, nil when blocked or
	// never computed
	TargetPrice *decimal.Decimal
	Blocked     bool
}

// DashboardRepository reads push candidates from the dashboard view.
type DashboardRepository interface {
	// FindCandidates returns rows for a channel, optionally narrowed to
	// specific product numbers
	FindCandidates(ctx context.Context, channelID uuid.UUID, productNos []string) ([]DashboardRow, error)
}
