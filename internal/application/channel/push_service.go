package channel

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/channel"
)

// itemSampleLimit bounds the per-item sample returned to callers.
const itemSampleLimit = 50

// PushRequest triggers one push-and-verify run against the live channel.
type PushRequest struct {
	ChannelID  uuid.UUID
	ProductNos []string
	RunType    channel.RunType
	// DryRun resolves and classifies candidates without creating a job row
	// or calling the channel
	DryRun bool
	// SyncOptionLabels rewrites option-value labels with delta suffixes
	// after successful variant pushes
	SyncOptionLabels bool
}

// ItemOutcome is the caller-facing summary of one candidate.
type ItemOutcome struct {
	MappingID    uuid.UUID          `json:"mapping_id"`
	ProductNo    string             `json:"product_no"`
	VariantCode  string             `json:"variant_code"`
	Status       channel.ItemStatus `json:"status"`
	TargetPrice  *decimal.Decimal   `json:"target_price"`
	AfterPrice   *decimal.Decimal   `json:"after_price"`
	ErrorCode    string             `json:"error_code,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
}

// PushResult aggregates one push run.
type PushResult struct {
	JobID   *uuid.UUID        `json:"job_id,omitempty"`
	Status  channel.JobStatus `json:"status"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Skipped int               `json:"skipped"`
	DryRun  bool              `json:"dry_run"`
	Sample  []ItemOutcome     `json:"items"`
}

// PushService writes computed target prices to the external channel and
// confirms they took effect. Channel calls run sequentially per candidate to
// preserve verify-after-push ordering and respect channel rate limits.
type PushService struct {
	dashboards channel.DashboardRepository
	mappings   channel.MappingRepository
	jobs       channel.SyncJobRepository
	gateway    channel.Gateway
	logger     *zap.Logger
	// verifyAttempts and verifyDelay bound worst-case latency while
	// tolerating the channel's eventual consistency
	verifyAttempts int
	verifyDelay    time.Duration
	sleep          func(time.Duration)
	now            func() time.Time
}

// NewPushService wires the orchestrator. verifyAttempts is the number of
// extra polls after the immediate read-back; verifyDelay the fixed wait
// between polls.
func NewPushService(
	dashboards channel.DashboardRepository,
	mappings channel.MappingRepository,
	jobs channel.SyncJobRepository,
	gateway channel.Gateway,
	logger *zap.Logger,
	verifyAttempts int,
	verifyDelay time.Duration,
) *PushService {
	if verifyAttempts < 0 {
		verifyAttempts = 0
	}
	return &PushService{
		dashboards:     dashboards,
		mappings:       mappings,
		jobs:           jobs,
		gateway:        gateway,
		logger:         logger,
		verifyAttempts: verifyAttempts,
		verifyDelay:    verifyDelay,
		sleep:          time.Sleep,
		now:            time.Now,
	}
}

// candidate is one dashboard row being pushed, with its resolved target.
type candidate struct {
	row channel.DashboardRow
	// target after base-row fallback; nil when unusable
	target *decimal.Decimal
	// fellBack marks a variant row that borrowed the base row's target
	fellBack bool
}

// Push executes one run and records the audit trail.
func (s *PushService) Push(ctx context.Context, req PushRequest) (*PushResult, error) {
	rows, err := s.dashboards.FindCandidates(ctx, req.ChannelID, req.ProductNos)
	if err != nil {
		return nil, err
	}
	active := rows[:0]
	for _, r := range rows {
		if r.Active {
			active = append(active, r)
		}
	}
	rows = active

	variantCache := make(map[string][]channel.Variant)
	if !req.DryRun {
		rows, err = s.discoverVariants(ctx, req.ChannelID, rows, variantCache)
		if err != nil {
			return nil, err
		}
	}

	candidates := s.resolveCandidates(rows)

	if req.DryRun {
		return s.dryRun(candidates), nil
	}

	job := channel.NewPriceSyncJob(req.ChannelID, req.RunType)
	if err := s.jobs.InsertJob(ctx, job); err != nil {
		return nil, err
	}

	result := &PushResult{JobID: &job.ID, Sample: make([]ItemOutcome, 0)}
	variantRowCount := countVariantRows(rows)
	baseTargets := baseTargetsByMaster(candidates)
	// pushedAmounts tracks successful variant additional amounts per product
	// for the optional label sync
	pushedAmounts := make(map[string]map[string]decimal.Decimal)

	for _, c := range candidates {
		item := s.pushOne(ctx, c, job.ID, baseTargets, variantRowCount, variantCache, pushedAmounts)
		if err := s.jobs.InsertItem(ctx, item); err != nil {
			return nil, err
		}
		switch item.Status {
		case channel.ItemSuccess:
			result.Success++
		case channel.ItemSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
		if len(result.Sample) < itemSampleLimit {
			result.Sample = append(result.Sample, outcomeOf(item))
		}
	}

	if req.SyncOptionLabels {
		s.syncOptionLabels(ctx, variantCache, pushedAmounts)
	}

	job.Finish(result.Success, result.Failed, result.Skipped)
	if err := s.jobs.UpdateJob(ctx, job); err != nil {
		return nil, err
	}
	result.Status = job.Status

	s.logger.Info("price push finished",
		zap.String("job_id", job.ID.String()),
		zap.String("status", string(job.Status)),
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// discoverVariants clones variant mappings for base rows whose live product
// is option-bearing but has no variant-level mappings yet.
func (s *PushService) discoverVariants(ctx context.Context, channelID uuid.UUID, rows []channel.DashboardRow, cache map[string][]channel.Variant) ([]channel.DashboardRow, error) {
	hasVariantRow := make(map[string]bool)
	baseProducts := make(map[string]bool)
	for _, r := range rows {
		if r.VariantCode == "" {
			baseProducts[r.ProductNo] = true
		} else {
			hasVariantRow[r.ProductNo] = true
		}
	}

	for productNo := range baseProducts {
		variants, err := s.gateway.ListVariants(ctx, productNo)
		if err != nil {
			// Discovery failure degrades to pushing what we have; the base
			// row will surface the error itself
			s.logger.Warn("variant discovery failed",
				zap.String("product_no", productNo), zap.Error(err))
			continue
		}
		cache[productNo] = variants
		if len(variants) == 0 || hasVariantRow[productNo] {
			continue
		}

		baseMapping, err := s.findBaseMapping(ctx, channelID, productNo)
		if err != nil {
			s.logger.Warn("base mapping lookup failed during discovery",
				zap.String("product_no", productNo), zap.Error(err))
			continue
		}

		now := s.now()
		clones := make([]*channel.Mapping, 0, len(variants))
		for _, v := range variants {
			clones = append(clones, baseMapping.CloneForVariant(v.Code, now))
		}
		if err := s.mappings.SaveBatch(ctx, clones); err != nil {
			return nil, err
		}
		for _, clone := range clones {
			rows = append(rows, channel.DashboardRow{
				MappingID:    clone.ID,
				MasterItemID: clone.MasterItemID,
				ChannelID:    clone.ChannelID,
				ProductNo:    clone.ExternalProductNo,
				VariantCode:  clone.ExternalVariantCode,
				PriceMode:    clone.PriceMode,
				Active:       true,
			})
		}
	}
	return rows, nil
}

func (s *PushService) findBaseMapping(ctx context.Context, channelID uuid.UUID, productNo string) (*channel.Mapping, error) {
	mappings, err := s.mappings.FindByProduct(ctx, channelID, productNo)
	if err != nil {
		return nil, err
	}
	for i := range mappings {
		if mappings[i].IsBaseRow() && mappings[i].Active {
			return &mappings[i], nil
		}
	}
	return nil, channel.ErrMappingNotFound
}

// resolveCandidates de-duplicates and orders the rows, then resolves each
// row's target with base-row fallback.
func (s *PushService) resolveCandidates(rows []channel.DashboardRow) []candidate {
	// Base product number per master, for de-duplication preference
	baseProductNo := make(map[uuid.UUID]string)
	for _, r := range rows {
		if r.VariantCode == "" {
			baseProductNo[r.MasterItemID] = r.ProductNo
		}
	}

	// De-duplicate by (master item, variant code): prefer the product number
	// already used by the master's base row, else a canonical numeric code,
	// else first seen
	type dedupKey struct {
		master  uuid.UUID
		variant string
	}
	chosen := make(map[dedupKey]channel.DashboardRow)
	order := make([]dedupKey, 0, len(rows))
	for _, r := range rows {
		key := dedupKey{master: r.MasterItemID, variant: r.VariantCode}
		current, exists := chosen[key]
		if !exists {
			chosen[key] = r
			order = append(order, key)
			continue
		}
		if preferRow(r, current, baseProductNo[r.MasterItemID]) {
			chosen[key] = r
		}
	}

	deduped := make([]channel.DashboardRow, 0, len(order))
	for _, key := range order {
		deduped = append(deduped, chosen[key])
	}

	// Base rows before variant rows per master, so base-price fallbacks are
	// available when variant rows are processed
	sort.SliceStable(deduped, func(i, j int) bool {
		a, b := deduped[i], deduped[j]
		if a.MasterItemID != b.MasterItemID {
			return a.MasterItemID.String() < b.MasterItemID.String()
		}
		if (a.VariantCode == "") != (b.VariantCode == "") {
			return a.VariantCode == ""
		}
		return a.VariantCode < b.VariantCode
	})

	baseTargets := make(map[uuid.UUID]*decimal.Decimal)
	for _, r := range deduped {
		if r.VariantCode == "" && validTarget(r.TargetPrice) {
			baseTargets[r.MasterItemID] = r.TargetPrice
		}
	}

	candidates := make([]candidate, 0, len(deduped))
	for _, r := range deduped {
		c := candidate{row: r, target: r.TargetPrice}
		if !validTarget(c.target) {
			if fallback, ok := baseTargets[r.MasterItemID]; ok {
				c.target = fallback
				c.fellBack = true
			} else {
				c.target = nil
			}
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// preferRow decides whether next should replace current within one dedup group.
func preferRow(next, current channel.DashboardRow, basePreferred string) bool {
	if basePreferred != "" {
		if next.ProductNo == basePreferred && current.ProductNo != basePreferred {
			return true
		}
		if current.ProductNo == basePreferred {
			return false
		}
	}
	return isCanonicalProductNo(next.ProductNo) && !isCanonicalProductNo(current.ProductNo)
}

// isCanonicalProductNo recognizes the channel's native numeric product codes.
func isCanonicalProductNo(no string) bool {
	if no == "" {
		return false
	}
	for _, r := range no {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func validTarget(p *decimal.Decimal) bool {
	return p != nil && p.IsPositive()
}

func countVariantRows(rows []channel.DashboardRow) map[string]int {
	counts := make(map[string]int)
	for _, r := range rows {
		if r.VariantCode != "" {
			counts[r.ProductNo]++
		}
	}
	return counts
}

func baseTargetsByMaster(candidates []candidate) map[uuid.UUID]*decimal.Decimal {
	out := make(map[uuid.UUID]*decimal.Decimal)
	for _, c := range candidates {
		if c.row.VariantCode == "" && validTarget(c.target) {
			out[c.row.MasterItemID] = c.target
		}
	}
	return out
}

// pushOne pushes and verifies a single candidate, returning its audit row.
func (s *PushService) pushOne(
	ctx context.Context,
	c candidate,
	jobID uuid.UUID,
	baseTargets map[uuid.UUID]*decimal.Decimal,
	variantRowCount map[string]int,
	variantCache map[string][]channel.Variant,
	pushedAmounts map[string]map[string]decimal.Decimal,
) *channel.PriceSyncJobItem {
	item := &channel.PriceSyncJobItem{
		ID:           uuid.New(),
		JobID:        jobID,
		MappingID:    c.row.MappingID,
		MasterItemID: c.row.MasterItemID,
		ProductNo:    c.row.ProductNo,
		VariantCode:  c.row.VariantCode,
		TargetPrice:  c.target,
		CreatedAt:    s.now(),
	}

	if !validTarget(c.target) {
		item.Status = channel.ItemSkipped
		item.ErrorCode = channel.ErrCodeInvalidTarget
		item.ErrorMessage = "no usable target price and no base-row fallback"
		return item
	}
	target := *c.target

	if c.row.VariantCode == "" {
		s.pushBaseRow(ctx, item, c, target, variantRowCount, variantCache)
	} else {
		s.pushVariantRow(ctx, item, c, target, baseTargets, pushedAmounts)
	}
	return item
}

// pushBaseRow handles a channel product's base price.
func (s *PushService) pushBaseRow(ctx context.Context, item *channel.PriceSyncJobItem, c candidate, target decimal.Decimal, variantRowCount map[string]int, variantCache map[string][]channel.Variant) {
	optionBearing := len(variantCache[c.row.ProductNo]) > 0
	if !optionBearing && variantRowCount[c.row.ProductNo] > 0 {
		optionBearing = true
	}

	if optionBearing {
		if variantRowCount[c.row.ProductNo] > 0 {
			// The platform rejects base-price writes on option-bearing
			// products; the variant rows carry the price instead
			item.Status = channel.ItemSkipped
			item.ErrorCode = channel.ErrCodeBaseImmutable
			item.ErrorMessage = "base price is immutable on option-bearing products; variant rows cover it"
			return
		}
		item.Status = channel.ItemFailed
		item.ErrorCode = channel.ErrCodeNeedsVariantMapping
		item.ErrorMessage = "product has live variants but no variant mappings"
		return
	}

	if before, err := s.gateway.GetBasePrice(ctx, c.row.ProductNo); err == nil {
		item.BeforePrice = &before
	}

	ack, err := s.gateway.UpdateBasePrice(ctx, c.row.ProductNo, target)
	if err != nil {
		s.classifyGatewayErr(item, err)
		return
	}
	recordAck(item, ack)

	s.verify(ctx, item, ack, target, func(ctx context.Context) (decimal.Decimal, error) {
		return s.gateway.GetBasePrice(ctx, c.row.ProductNo)
	})
}

// pushVariantRow writes a variant's additional amount over the base price.
func (s *PushService) pushVariantRow(ctx context.Context, item *channel.PriceSyncJobItem, c candidate, target decimal.Decimal, baseTargets map[uuid.UUID]*decimal.Decimal, pushedAmounts map[string]map[string]decimal.Decimal) {
	var basePrice decimal.Decimal
	if base, ok := baseTargets[c.row.MasterItemID]; ok {
		basePrice = *base
	} else {
		live, err := s.gateway.GetBasePrice(ctx, c.row.ProductNo)
		if err != nil {
			s.classifyGatewayErr(item, err)
			return
		}
		basePrice = live
	}

	if before, err := s.gateway.GetVariantPrice(ctx, c.row.ProductNo, c.row.VariantCode); err == nil {
		item.BeforePrice = &before
	}

	additional := target.Sub(basePrice)
	ack, err := s.gateway.UpdateVariantAmount(ctx, c.row.ProductNo, c.row.VariantCode, additional)
	if err != nil {
		s.classifyGatewayErr(item, err)
		return
	}
	recordAck(item, ack)

	s.verify(ctx, item, ack, target, func(ctx context.Context) (decimal.Decimal, error) {
		return s.gateway.GetVariantPrice(ctx, c.row.ProductNo, c.row.VariantCode)
	})

	if item.Status == channel.ItemSuccess {
		if pushedAmounts[c.row.ProductNo] == nil {
			pushedAmounts[c.row.ProductNo] = make(map[string]decimal.Decimal)
		}
		pushedAmounts[c.row.ProductNo][c.row.VariantCode] = additional
	}
}

// verify confirms the pushed price took effect. An asynchronous-pending ack
// counts as success without polling; otherwise the price is read back up to
// verifyAttempts extra times with a fixed delay.
func (s *PushService) verify(ctx context.Context, item *channel.PriceSyncJobItem, ack *channel.PushAck, target decimal.Decimal, read func(context.Context) (decimal.Decimal, error)) {
	if ack.Pending {
		item.Status = channel.ItemSuccess
		item.AfterPrice = &target
		return
	}

	var observed decimal.Decimal
	var err error
	for attempt := 0; attempt <= s.verifyAttempts; attempt++ {
		if attempt > 0 {
			s.sleep(s.verifyDelay)
		}
		observed, err = read(ctx)
		if err == nil && observed.Equal(target) {
			item.Status = channel.ItemSuccess
			item.AfterPrice = &observed
			return
		}
	}

	item.Status = channel.ItemFailed
	if err != nil {
		s.classifyGatewayErr(item, err)
		return
	}
	item.AfterPrice = &observed
	item.ErrorCode = channel.ErrCodeVerifyMismatch
	item.ErrorMessage = "expected " + target.String() + ", observed " + observed.String()
}

// classifyGatewayErr maps gateway failures onto named error codes so
// operators can tell platform quirks from transient faults.
func (s *PushService) classifyGatewayErr(item *channel.PriceSyncJobItem, err error) {
	item.Status = channel.ItemFailed
	var gwErr *channel.GatewayError
	if !errors.As(err, &gwErr) {
		item.ErrorCode = channel.ErrCodeChannelHTTP
		item.ErrorMessage = err.Error()
		return
	}

	item.HTTPStatus = gwErr.HTTPStatus
	item.ErrorMessage = gwErr.Message
	item.ResponsePayload = gwErr.Raw
	switch {
	case gwErr.HTTPStatus == 401:
		item.ErrorCode = channel.ErrCodeChannelAuth
	case strings.Contains(gwErr.Code, "OPTION"):
		// The platform restricts additional-amount writes for some option
		// types; this needs remapping, not a retry
		item.ErrorCode = channel.ErrCodeOptionRestricted
	case strings.Contains(gwErr.Code, "IMMUTABLE") || strings.Contains(gwErr.Code, "LOCKED"):
		item.ErrorCode = channel.ErrCodeBaseImmutable
	default:
		item.ErrorCode = channel.ErrCodeChannelHTTP
	}
}

func recordAck(item *channel.PriceSyncJobItem, ack *channel.PushAck) {
	item.HTTPStatus = ack.HTTPStatus
	item.RequestPayload = ack.RequestPayload
	item.ResponsePayload = ack.ResponsePayload
}

// syncOptionLabels appends a signed delta suffix to option-value labels, only
// for option-value groups where every variant shares one consistent delta.
func (s *PushService) syncOptionLabels(ctx context.Context, variantCache map[string][]channel.Variant, pushedAmounts map[string]map[string]decimal.Decimal) {
	for productNo, amounts := range pushedAmounts {
		variants := variantCache[productNo]
		if len(variants) == 0 {
			continue
		}

		labels := consistentLabels(variants, amounts)
		if len(labels) == 0 {
			continue
		}
		if _, err := s.gateway.UpdateOptionLabels(ctx, productNo, labels); err != nil {
			// Label sync is cosmetic; a failure never degrades the job
			s.logger.Warn("option label sync failed",
				zap.String("product_no", productNo), zap.Error(err))
		}
	}
}

// consistentLabels builds delta-suffixed labels for option values whose
// variants all carry the same pushed delta. Ambiguous groups are skipped.
func consistentLabels(variants []channel.Variant, amounts map[string]decimal.Decimal) []channel.OptionLabel {
	type group struct {
		delta      decimal.Decimal
		consistent bool
		seen       bool
	}
	groups := make(map[channel.OptionPair]*group)
	for _, v := range variants {
		amount, pushed := amounts[v.Code]
		for _, opt := range v.Options {
			g, ok := groups[opt]
			if !ok {
				g = &group{consistent: true}
				groups[opt] = g
			}
			if !pushed {
				g.consistent = false
				continue
			}
			if !g.seen {
				g.delta = amount
				g.seen = true
			} else if !g.delta.Equal(amount) {
				g.consistent = false
			}
		}
	}

	labels := make([]channel.OptionLabel, 0)
	for opt, g := range groups {
		if !g.seen || !g.consistent || g.delta.IsZero() {
			continue
		}
		labels = append(labels, channel.OptionLabel{
			OptionName: opt.Name,
			Value:      opt.Value,
			Label:      opt.Value + " (" + formatSignedKRW(g.delta) + ")",
		})
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].OptionName != labels[j].OptionName {
			return labels[i].OptionName < labels[j].OptionName
		}
		return labels[i].Value < labels[j].Value
	})
	return labels
}

// formatSignedKRW renders "+3,000" / "-1,500" style suffixes.
func formatSignedKRW(v decimal.Decimal) string {
	sign := "+"
	if v.IsNegative() {
		sign = "-"
	}
	digits := v.Abs().Round(0).String()
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}

// dryRun classifies candidates without touching the channel or the job table.
func (s *PushService) dryRun(candidates []candidate) *PushResult {
	result := &PushResult{DryRun: true, Sample: make([]ItemOutcome, 0)}
	variantRowCount := make(map[string]int)
	for _, c := range candidates {
		if c.row.VariantCode != "" {
			variantRowCount[c.row.ProductNo]++
		}
	}

	for _, c := range candidates {
		outcome := ItemOutcome{
			MappingID:   c.row.MappingID,
			ProductNo:   c.row.ProductNo,
			VariantCode: c.row.VariantCode,
			TargetPrice: c.target,
		}
		switch {
		case !validTarget(c.target):
			outcome.Status = channel.ItemSkipped
			outcome.ErrorCode = channel.ErrCodeInvalidTarget
			result.Skipped++
		case c.row.VariantCode == "" && variantRowCount[c.row.ProductNo] > 0:
			outcome.Status = channel.ItemSkipped
			outcome.ErrorCode = channel.ErrCodeBaseImmutable
			result.Skipped++
		default:
			outcome.Status = channel.ItemSuccess
			result.Success++
		}
		if len(result.Sample) < itemSampleLimit {
			result.Sample = append(result.Sample, outcome)
		}
	}

	switch {
	case result.Failed == 0:
		result.Status = channel.JobSuccess
	case result.Success == 0:
		result.Status = channel.JobFailed
	default:
		result.Status = channel.JobPartial
	}
	return result
}

func outcomeOf(item *channel.PriceSyncJobItem) ItemOutcome {
	return ItemOutcome{
		MappingID:    item.MappingID,
		ProductNo:    item.ProductNo,
		VariantCode:  item.VariantCode,
		Status:       item.Status,
		TargetPrice:  item.TargetPrice,
		AfterPrice:   item.AfterPrice,
		ErrorCode:    item.ErrorCode,
		ErrorMessage: item.ErrorMessage,
	}
}
