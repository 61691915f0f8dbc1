package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AlertLogRepository keeps the append-only history of dispatched alerts.
type AlertLogRepository struct {
	db *gorm.DB
}

func NewAlertLogRepository(db *gorm.DB) *AlertLogRepository {
	return &AlertLogRepository{db: db}
}

func (r *AlertLogRepository) Record(ctx context.Context, entry AlertEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(&entry).Error
}

// LastHours returns alert entries from the trailing n-hour window, ascending.
func (r *AlertLogRepository) LastHours(ctx context.Context, n int) ([]AlertEntry, error) {
	var entries []AlertEntry
	cutoff := time.Now().UTC().Add(-time.Duration(n) * time.Hour)
	err := r.db.WithContext(ctx).
		Where("sent_at >= ?", cutoff).
		Order("sent_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
