package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/pricing"
	"github.com/cmsdsdssd/cms-s-sub001/internal/infrastructure/persistence/models"
)

// GormSnapshotRepository implements pricing.SnapshotRepository using GORM.
// Snapshots are insert-only; there is no update path.
type GormSnapshotRepository struct {
	db *gorm.DB
}

// NewGormSnapshotRepository creates a new GormSnapshotRepository
func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	return &GormSnapshotRepository{db: db}
}

// Insert persists one computation result
func (r *GormSnapshotRepository) Insert(ctx context.Context, snapshot *pricing.Snapshot) error {
	var model models.PriceSnapshotModel
	model.FromDomain(snapshot)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindLatestByMapping returns the newest snapshot per mapping id. Uses
// DISTINCT ON so one query covers the whole batch.
func (r *GormSnapshotRepository) FindLatestByMapping(ctx context.Context, mappingIDs []uuid.UUID) (map[uuid.UUID]*pricing.Snapshot, error) {
	snapshots := make(map[uuid.UUID]*pricing.Snapshot, len(mappingIDs))
	if len(mappingIDs) == 0 {
		return snapshots, nil
	}

	var snapshotModels []models.PriceSnapshotModel
	err := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (mapping_id) *
		     FROM price_snapshots
		     WHERE mapping_id IN ?
		     ORDER BY mapping_id, created_at DESC`, mappingIDs).
		Scan(&snapshotModels).Error
	if err != nil {
		return nil, err
	}

	for i := range snapshotModels {
		snapshot := snapshotModels[i].ToDomain()
		snapshots[snapshot.MappingID] = snapshot
	}
	return snapshots, nil
}
