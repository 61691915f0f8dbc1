package store

import (
	"context"

	"gorm.io/gorm"
)

// StatsRepository persists immutable usage-stat snapshots.
type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) SaveSnapshot(ctx context.Context, snap StatsSnapshot) error {
	return r.db.WithContext(ctx).Create(&snap).Error
}

// Latest returns the newest snapshot, or ErrNotFound when none was flushed.
func (r *StatsRepository) Latest(ctx context.Context) (StatsSnapshot, error) {
	var snap StatsSnapshot
	err := r.db.WithContext(ctx).Order("timestamp DESC").First(&snap).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return StatsSnapshot{}, ErrNotFound
		}
		return StatsSnapshot{}, err
	}
	return snap, nil
}
