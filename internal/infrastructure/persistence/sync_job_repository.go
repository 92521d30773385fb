package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/channel"
	"github.com/cmsdsdssd/cms-s-sub001/internal/infrastructure/persistence/models"
)

// GormSyncJobRepository implements channel.SyncJobRepository using GORM.
// Job headers are updated as the run finishes; item rows are insert-only.
type GormSyncJobRepository struct {
	db *gorm.DB
}

// NewGormSyncJobRepository creates a new GormSyncJobRepository
func NewGormSyncJobRepository(db *gorm.DB) *GormSyncJobRepository {
	return &GormSyncJobRepository{db: db}
}

// InsertJob persists a new running job header
func (r *GormSyncJobRepository) InsertJob(ctx context.Context, job *channel.PriceSyncJob) error {
	var model models.PriceSyncJobModel
	model.FromDomain(job)
	return r.db.WithContext(ctx).Create(&model).Error
}

// UpdateJob writes the finished counts and status back to the header
func (r *GormSyncJobRepository) UpdateJob(ctx context.Context, job *channel.PriceSyncJob) error {
	var model models.PriceSyncJobModel
	model.FromDomain(job)
	return r.db.WithContext(ctx).
		Model(&models.PriceSyncJobModel{}).
		Where("id = ?", job.ID).
		Updates(map[string]interface{}{
			"status":        model.Status,
			"total_count":   model.TotalCount,
			"success_count": model.SuccessCount,
			"failed_count":  model.FailedCount,
			"skipped_count": model.SkippedCount,
			"finished_at":   model.FinishedAt,
		}).Error
}

// InsertItem persists one audit row
func (r *GormSyncJobRepository) InsertItem(ctx context.Context, item *channel.PriceSyncJobItem) error {
	var model models.PriceSyncJobItemModel
	model.FromDomain(item)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindJob finds one job header by its ID
func (r *GormSyncJobRepository) FindJob(ctx context.Context, id uuid.UUID) (*channel.PriceSyncJob, error) {
	var model models.PriceSyncJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, channel.ErrJobNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindItems lists a job's audit rows in creation order
func (r *GormSyncJobRepository) FindItems(ctx context.Context, jobID uuid.UUID) ([]channel.PriceSyncJobItem, error) {
	var itemModels []models.PriceSyncJobItemModel
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&itemModels).Error
	if err != nil {
		return nil, err
	}

	items := make([]channel.PriceSyncJobItem, len(itemModels))
	for i := range itemModels {
		items[i] = itemModels[i].ToDomain()
	}
	return items, nil
}
