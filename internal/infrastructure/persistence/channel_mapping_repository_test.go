package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/channel"
	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/pricing"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func mappingColumns() []string {
	return []string{
		"id", "channel_id", "master_item_id", "external_product_no", "external_variant_code",
		"option_material", "option_color", "option_decoration", "option_size", "size_weight_delta",
		"rule_set_id", "use_weight_rule", "use_color_rule", "use_decoration_rule",
		"use_margin_rule", "use_rounding_rule", "use_plating_rule",
		"price_mode", "manual_target", "manual_option_delta",
		"source", "active", "created_at", "updated_at",
	}
}

func TestGormMappingRepository_FindByID(t *testing.T) {
	t.Run("finds existing mapping", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormMappingRepository(gormDB)

		mappingID := uuid.New()
		channelID := uuid.New()
		masterItemID := uuid.New()
		ruleSetID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(mappingColumns()).
			AddRow(mappingID, channelID, masterItemID, "1000001", "",
				"14", "", "", nil, decimal.Zero,
				ruleSetID, true, false, false,
				true, true, false,
				"SYNC", nil, decimal.Zero,
				"MANUAL", true, now, now)

		mock.ExpectQuery(`SELECT \* FROM "channel_mappings" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(mappingID, 1).
			WillReturnRows(rows)

		mapping, err := repo.FindByID(context.Background(), mappingID)

		assert.NoError(t, err)
		require.NotNil(t, mapping)
		assert.Equal(t, mappingID, mapping.ID)
		assert.Equal(t, "1000001", mapping.ExternalProductNo)
		assert.Equal(t, channel.PriceModeSync, mapping.PriceMode)
		assert.True(t, mapping.IsBaseRow())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing row to domain error", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormMappingRepository(gormDB)

		mappingID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "channel_mappings" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(mappingID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		mapping, err := repo.FindByID(context.Background(), mappingID)

		assert.Nil(t, mapping)
		assert.Equal(t, channel.ErrMappingNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormMappingRepository_FindByProduct(t *testing.T) {
	t.Run("returns base and variant rows ordered by variant code", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormMappingRepository(gormDB)

		channelID := uuid.New()
		masterItemID := uuid.New()
		ruleSetID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(mappingColumns()).
			AddRow(uuid.New(), channelID, masterItemID, "1000001", "",
				"14", "", "", nil, decimal.Zero,
				ruleSetID, false, false, false, true, true, false,
				"SYNC", nil, decimal.Zero, "MANUAL", true, now, now).
			AddRow(uuid.New(), channelID, masterItemID, "1000001", "V-11",
				"14", "", "", nil, decimal.Zero,
				ruleSetID, false, false, false, true, true, false,
				"SYNC", nil, decimal.Zero, "AUTO", true, now, now)

		mock.ExpectQuery(`SELECT \* FROM "channel_mappings" WHERE channel_id = \$1 AND external_product_no = \$2 ORDER BY external_variant_code ASC`).
			WithArgs(channelID, "1000001").
			WillReturnRows(rows)

		mappings, err := repo.FindByProduct(context.Background(), channelID, "1000001")

		assert.NoError(t, err)
		require.Len(t, mappings, 2)
		assert.True(t, mappings[0].IsBaseRow())
		assert.Equal(t, "V-11", mappings[1].ExternalVariantCode)
		assert.Equal(t, channel.SourceAuto, mappings[1].Source)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRuleRepository_FindActiveBySet(t *testing.T) {
	ruleColumns := []string{
		"id", "rule_set_id", "family",
		"source_material", "target_material", "material_code", "color_code",
		"decoration_code", "category_code", "linked_swap_rule_id",
		"weight_min", "weight_max", "margin_min", "margin_max", "option_range_expr",
		"multiplier", "delta", "round_unit", "round_mode", "priority", "active",
		"created_at", "updated_at",
	}

	t.Run("partitions rows into families", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormRuleRepository(gormDB)

		ruleSetID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(ruleColumns).
			AddRow(uuid.New(), ruleSetID, "R1",
				"14", "18", "", "", "", "", nil,
				nil, nil, nil, nil, "",
				decimal.NewFromFloat(1.2), decimal.Zero, decimal.NewFromInt(100), "CEIL", 10, true,
				now, now).
			AddRow(uuid.New(), ruleSetID, "R3",
				"", "", "", "GOLD", "", "", nil,
				nil, nil, decimal.Zero, decimal.NewFromInt(200000), "",
				decimal.Zero, decimal.NewFromInt(5000), decimal.NewFromInt(1), "ROUND", 20, true,
				now, now)

		mock.ExpectQuery(`SELECT \* FROM "price_rules" WHERE rule_set_id IN \(\$1\) AND active = \$2 ORDER BY priority ASC, created_at ASC`).
			WithArgs(ruleSetID, true).
			WillReturnRows(rows)

		table, err := repo.FindActiveBySet(context.Background(), ruleSetID)

		assert.NoError(t, err)
		require.NotNil(t, table)
		require.Len(t, table.Swap, 1)
		require.Len(t, table.Color, 1)
		assert.Empty(t, table.Weight)
		assert.Empty(t, table.Decoration)
		assert.Equal(t, "18", table.Swap[0].TargetMaterial)
		assert.Equal(t, pricing.RoundCeil, table.Swap[0].RoundMode)
		assert.Equal(t, "GOLD", table.Color[0].ColorCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty table for a set with no rules", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormRuleRepository(gormDB)

		ruleSetID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "price_rules" WHERE rule_set_id IN \(\$1\) AND active = \$2 ORDER BY priority ASC, created_at ASC`).
			WithArgs(ruleSetID, true).
			WillReturnRows(sqlmock.NewRows(ruleColumns))

		table, err := repo.FindActiveBySet(context.Background(), ruleSetID)

		assert.NoError(t, err)
		require.NotNil(t, table)
		assert.Empty(t, table.Swap)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormDashboardRepository_FindCandidates(t *testing.T) {
	dashboardColumns := []string{
		"mapping_id", "master_item_id", "channel_id", "product_no", "variant_code",
		"price_mode", "active", "target_price", "blocked",
	}

	t.Run("joins latest snapshot target", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormDashboardRepository(gormDB)

		channelID := uuid.New()
		mappingID := uuid.New()
		masterItemID := uuid.New()
		target := decimal.NewFromInt(183700)

		rows := sqlmock.NewRows(dashboardColumns).
			AddRow(mappingID, masterItemID, channelID, "1000001", "", "SYNC", true, target, false).
			AddRow(uuid.New(), masterItemID, channelID, "1000002", "", "SYNC", true, nil, true)

		mock.ExpectQuery(`SELECT m\.id\s+AS mapping_id,`).
			WithArgs(channelID).
			WillReturnRows(rows)

		candidates, err := repo.FindCandidates(context.Background(), channelID, nil)

		assert.NoError(t, err)
		require.Len(t, candidates, 2)
		require.NotNil(t, candidates[0].TargetPrice)
		assert.True(t, candidates[0].TargetPrice.Equal(target))
		assert.Nil(t, candidates[1].TargetPrice)
		assert.True(t, candidates[1].Blocked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
