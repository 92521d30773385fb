package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/channel"
)

// GormDashboardRepository implements channel.DashboardRepository with one
// raw query joining active mappings to their newest snapshot. Mappings that
// were never computed surface with a null target so operators can see them.
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewGormDashboardRepository creates a new GormDashboardRepository
func NewGormDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

type dashboardScanRow struct {
	MappingID    uuid.UUID        `gorm:"column:mapping_id"`
	MasterItemID uuid.UUID        `gorm:"column:master_item_id"`
	ChannelID    uuid.UUID        `gorm:"column:channel_id"`
	ProductNo    string           `gorm:"column:product_no"`
	VariantCode  string           `gorm:"column:variant_code"`
	PriceMode    string           `gorm:"column:price_mode"`
	Active       bool             `gorm:"column:active"`
	TargetPrice  *decimal.Decimal `gorm:"column:target_price"`
	Blocked      bool             `gorm:"column:blocked"`
}

// FindCandidates returns dashboard rows for a channel, optionally narrowed to
// specific product numbers
func (r *GormDashboardRepository) FindCandidates(ctx context.Context, channelID uuid.UUID, productNos []string) ([]channel.DashboardRow, error) {
	query := `
		SELECT m.id            AS mapping_id,
		       m.master_item_id,
		       m.channel_id,
		       m.external_product_no   AS product_no,
		       m.external_variant_code AS variant_code,
		       m.price_mode,
		       m.active,
		       s.final_target          AS target_price,
		       COALESCE(s.blocked, false) AS blocked
		FROM channel_mappings m
		LEFT JOIN LATERAL (
			SELECT final_target, blocked
			FROM price_snapshots
			WHERE mapping_id = m.id
			ORDER BY created_at DESC
			LIMIT 1
		) s ON true
		WHERE m.channel_id = ?`
	args := []interface{}{channelID}
	if len(productNos) > 0 {
		query += " AND m.external_product_no IN ?"
		args = append(args, productNos)
	}
	query += " ORDER BY m.external_product_no ASC, m.external_variant_code ASC"

	var scanRows []dashboardScanRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&scanRows).Error; err != nil {
		return nil, err
	}

	rows := make([]channel.DashboardRow, len(scanRows))
	for i, row := range scanRows {
		rows[i] = channel.DashboardRow{
			MappingID:    row.MappingID,
			MasterItemID: row.MasterItemID,
			ChannelID:    row.ChannelID,
			ProductNo:    row.ProductNo,
			VariantCode:  row.VariantCode,
			PriceMode:    channel.PriceMode(row.PriceMode),
			Active:       row.Active,
			TargetPrice:  row.TargetPrice,
			Blocked:      row.Blocked,
		}
	}
	return rows, nil
}
