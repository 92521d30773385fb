package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/channel"
)

// ChannelMappingModel is the persistence model for the Mapping domain entity.
type ChannelMappingModel struct {
	ID                  uuid.UUID `gorm:"type:uuid;primary_key"`
	ChannelID           uuid.UUID `gorm:"type:uuid;not null;index:idx_channel_mapping_channel"`
	MasterItemID        uuid.UUID `gorm:"type:uuid;not null;index:idx_channel_mapping_master"`
	ExternalProductNo   string    `gorm:"type:varchar(50);not null;index:idx_channel_mapping_product,priority:2"`
	ExternalVariantCode string    `gorm:"type:varchar(50);not null;default:''"`

	OptionMaterial   string           `gorm:"type:varchar(10)"`
	OptionColor      string           `gorm:"type:varchar(20)"`
	OptionDecoration string           `gorm:"type:varchar(20)"`
	OptionSize       *decimal.Decimal `gorm:"type:numeric(8,2)"`
	SizeWeightDelta  decimal.Decimal  `gorm:"type:numeric(10,3);not null;default:0"`

	RuleSetID         *uuid.UUID `gorm:"type:uuid;index"`
	UseWeightRule     bool       `gorm:"not null;default:false"`
	UseColorRule      bool       `gorm:"not null;default:false"`
	UseDecorationRule bool       `gorm:"not null;default:false"`
	UseMarginRule     bool       `gorm:"not null;default:true"`
	UseRoundingRule   bool       `gorm:"not null;default:true"`
	UsePlatingRule    bool       `gorm:"not null;default:false"`

	PriceMode         string           `gorm:"type:varchar(10);not null"`
	ManualTarget      *decimal.Decimal `gorm:"type:numeric(14,2)"`
	ManualOptionDelta decimal.Decimal  `gorm:"type:numeric(14,2);not null;default:0"`

	Source string `gorm:"type:varchar(10);not null;default:'MANUAL'"`
	Active bool   `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ChannelMappingModel) TableName() string {
	return "channel_mappings"
}

// ToDomain converts the persistence model to a domain Mapping.
func (m *ChannelMappingModel) ToDomain() *channel.Mapping {
	return &channel.Mapping{
		ID:                  m.ID,
		ChannelID:           m.ChannelID,
		MasterItemID:        m.MasterItemID,
		ExternalProductNo:   m.ExternalProductNo,
		ExternalVariantCode: m.ExternalVariantCode,
		OptionMaterial:      m.OptionMaterial,
		OptionColor:         m.OptionColor,
		OptionDecoration:    m.OptionDecoration,
		OptionSize:          m.OptionSize,
		SizeWeightDelta:     m.SizeWeightDelta,
		RuleSetID:           m.RuleSetID,
		UseWeightRule:       m.UseWeightRule,
		UseColorRule:        m.UseColorRule,
		UseDecorationRule:   m.UseDecorationRule,
		UseMarginRule:       m.UseMarginRule,
		UseRoundingRule:     m.UseRoundingRule,
		UsePlatingRule:      m.UsePlatingRule,
		PriceMode:           channel.PriceMode(m.PriceMode),
		ManualTarget:        m.ManualTarget,
		ManualOptionDelta:   m.ManualOptionDelta,
		Source:              channel.MappingSource(m.Source),
		Active:              m.Active,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Mapping.
func (m *ChannelMappingModel) FromDomain(mp *channel.Mapping) {
	m.ID = mp.ID
	m.ChannelID = mp.ChannelID
	m.MasterItemID = mp.MasterItemID
	m.ExternalProductNo = mp.ExternalProductNo
	m.ExternalVariantCode = mp.ExternalVariantCode
	m.OptionMaterial = mp.OptionMaterial
	m.OptionColor = mp.OptionColor
	m.OptionDecoration = mp.OptionDecoration
	m.OptionSize = mp.OptionSize
	m.SizeWeightDelta = mp.SizeWeightDelta
	m.RuleSetID = mp.RuleSetID
	m.UseWeightRule = mp.UseWeightRule
	m.UseColorRule = mp.UseColorRule
	m.UseDecorationRule = mp.UseDecorationRule
	m.UseMarginRule = mp.UseMarginRule
	m.UseRoundingRule = mp.UseRoundingRule
	m.UsePlatingRule = mp.UsePlatingRule
	m.PriceMode = string(mp.PriceMode)
	m.ManualTarget = mp.ManualTarget
	m.ManualOptionDelta = mp.ManualOptionDelta
	m.Source = string(mp.Source)
	m.Active = mp.Active
	m.CreatedAt = mp.CreatedAt
	m.UpdatedAt = mp.UpdatedAt
}

// ChannelMappingModelFromDomain creates a new persistence model from a domain Mapping.
func ChannelMappingModelFromDomain(mp *channel.Mapping) *ChannelMappingModel {
	m := &ChannelMappingModel{}
	m.FromDomain(mp)
	return m
}

// RuleSetModel is the persistence model for rule set headers.
type RuleSetModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	ChannelID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RuleSetModel) TableName() string {
	return "rule_sets"
}

// ToDomain converts the persistence model to a domain RuleSet.
func (m *RuleSetModel) ToDomain() *channel.RuleSet {
	return &channel.RuleSet{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Name:      m.Name,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
	}
}

// PriceSyncJobModel is the persistence model for push job headers.
type PriceSyncJobModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	ChannelID    uuid.UUID `gorm:"type:uuid;not null;index:idx_price_sync_job_channel"`
	RunType      string    `gorm:"type:varchar(10);not null"`
	Status       string    `gorm:"type:varchar(10);not null"`
	TotalCount   int       `gorm:"not null;default:0"`
	SuccessCount int       `gorm:"not null;default:0"`
	FailedCount  int       `gorm:"not null;default:0"`
	SkippedCount int       `gorm:"not null;default:0"`
	StartedAt    time.Time `gorm:"not null"`
	FinishedAt   *time.Time
}

// TableName returns the table name for GORM
func (PriceSyncJobModel) TableName() string {
	return "price_sync_jobs"
}

// ToDomain converts the persistence model to a domain PriceSyncJob.
func (m *PriceSyncJobModel) ToDomain() *channel.PriceSyncJob {
	return &channel.PriceSyncJob{
		ID:           m.ID,
		ChannelID:    m.ChannelID,
		RunType:      channel.RunType(m.RunType),
		Status:       channel.JobStatus(m.Status),
		TotalCount:   m.TotalCount,
		SuccessCount: m.SuccessCount,
		FailedCount:  m.FailedCount,
		SkippedCount: m.SkippedCount,
		StartedAt:    m.StartedAt,
		FinishedAt:   m.FinishedAt,
	}
}

// FromDomain populates the persistence model from a domain PriceSyncJob.
func (m *PriceSyncJobModel) FromDomain(j *channel.PriceSyncJob) {
	m.ID = j.ID
	m.ChannelID = j.ChannelID
	m.RunType = string(j.RunType)
	m.Status = string(j.Status)
	m.TotalCount = j.TotalCount
	m.SuccessCount = j.SuccessCount
	m.FailedCount = j.FailedCount
	m.SkippedCount = j.SkippedCount
	m.StartedAt = j.StartedAt
	m.FinishedAt = j.FinishedAt
}

// PriceSyncJobItemModel is the insert-only persistence model for per-candidate
// audit rows, raw payloads included.
type PriceSyncJobItemModel struct {
	ID              uuid.UUID        `gorm:"type:uuid;primary_key"`
	JobID           uuid.UUID        `gorm:"type:uuid;not null;index:idx_price_sync_item_job"`
	MappingID       uuid.UUID        `gorm:"type:uuid;not null"`
	MasterItemID    uuid.UUID        `gorm:"type:uuid;not null"`
	ProductNo       string           `gorm:"type:varchar(50);not null"`
	VariantCode     string           `gorm:"type:varchar(50);not null;default:''"`
	Status          string           `gorm:"type:varchar(10);not null"`
	BeforePrice     *decimal.Decimal `gorm:"type:numeric(14,2)"`
	TargetPrice     *decimal.Decimal `gorm:"type:numeric(14,2)"`
	AfterPrice      *decimal.Decimal `gorm:"type:numeric(14,2)"`
	HTTPStatus      int              `gorm:"not null;default:0"`
	ErrorCode       string           `gorm:"type:varchar(40)"`
	ErrorMessage    string           `gorm:"type:text"`
	RequestPayload  string           `gorm:"type:jsonb"`
	ResponsePayload string           `gorm:"type:jsonb"`
	CreatedAt       time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PriceSyncJobItemModel) TableName() string {
	return "price_sync_job_items"
}

// ToDomain converts the persistence model to a domain PriceSyncJobItem.
func (m *PriceSyncJobItemModel) ToDomain() channel.PriceSyncJobItem {
	return channel.PriceSyncJobItem{
		ID:              m.ID,
		JobID:           m.JobID,
		MappingID:       m.MappingID,
		MasterItemID:    m.MasterItemID,
		ProductNo:       m.ProductNo,
		VariantCode:     m.VariantCode,
		Status:          channel.ItemStatus(m.Status),
		BeforePrice:     m.BeforePrice,
		TargetPrice:     m.TargetPrice,
		AfterPrice:      m.AfterPrice,
		HTTPStatus:      m.HTTPStatus,
		ErrorCode:       m.ErrorCode,
		ErrorMessage:    m.ErrorMessage,
		RequestPayload:  m.RequestPayload,
		ResponsePayload: m.ResponsePayload,
		CreatedAt:       m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain PriceSyncJobItem.
func (m *PriceSyncJobItemModel) FromDomain(i *channel.PriceSyncJobItem) {
	m.ID = i.ID
	m.JobID = i.JobID
	m.MappingID = i.MappingID
	m.MasterItemID = i.MasterItemID
	m.ProductNo = i.ProductNo
	m.VariantCode = i.VariantCode
	m.Status = string(i.Status)
	m.BeforePrice = i.BeforePrice
	m.TargetPrice = i.TargetPrice
	m.AfterPrice = i.AfterPrice
	m.HTTPStatus = i.HTTPStatus
	m.ErrorCode = i.ErrorCode
	m.ErrorMessage = i.ErrorMessage
	m.RequestPayload = i.RequestPayload
	m.ResponsePayload = i.ResponsePayload
	m.CreatedAt = i.CreatedAt
}

// ChannelCredentialModel stores the shared per-channel bearer token.
type ChannelCredentialModel struct {
	ChannelID    uuid.UUID `gorm:"type:uuid;primary_key"`
	AccessToken  string    `gorm:"type:text;not null"`
	RefreshToken string    `gorm:"type:text"`
	ExpiresAt    time.Time
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ChannelCredentialModel) TableName() string {
	return "channel_credentials"
}

// ToDomain converts the persistence model to a domain Credential.
func (m *ChannelCredentialModel) ToDomain() *channel.Credential {
	return &channel.Credential{
		ChannelID:    m.ChannelID,
		AccessToken:  m.AccessToken,
		RefreshToken: m.RefreshToken,
		ExpiresAt:    m.ExpiresAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Credential.
func (m *ChannelCredentialModel) FromDomain(c *channel.Credential) {
	m.ChannelID = c.ChannelID
	m.AccessToken = c.AccessToken
	m.RefreshToken = c.RefreshToken
	m.ExpiresAt = c.ExpiresAt
	m.UpdatedAt = c.UpdatedAt
}
