package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tqwind/windalert/internal/weather"
)

// ReadingRepository persists polled weather readings and serves the
// time-ranged queries behind the dashboard and bot commands.
type ReadingRepository struct {
	db *gorm.DB
}

func NewReadingRepository(db *gorm.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

func (r *ReadingRepository) Save(ctx context.Context, reading weather.Reading) error {
	rec := newReadingRecord(reading)
	return r.db.WithContext(ctx).Create(&rec).Error
}

// Latest returns the most recent reading, or ErrNotFound.
func (r *ReadingRepository) Latest(ctx context.Context) (weather.Reading, error) {
	var rec ReadingRecord
	err := r.db.WithContext(ctx).Order("timestamp DESC").First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return weather.Reading{}, ErrNotFound
		}
		return weather.Reading{}, err
	}
	return rec.Reading(), nil
}

// Range returns readings with from <= timestamp <= to, ascending.
func (r *ReadingRepository) Range(ctx context.Context, from, to time.Time) ([]weather.Reading, error) {
	var recs []ReadingRecord
	err := r.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp <= ?", from, to).
		Order("timestamp ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}

	readings := make([]weather.Reading, 0, len(recs))
	for _, rec := range recs {
		readings = append(readings, rec.Reading())
	}
	return readings, nil
}

// LastHours returns readings from the trailing n-hour window.
func (r *ReadingRepository) LastHours(ctx context.Context, n int) ([]weather.Reading, error) {
	now := time.Now().UTC()
	return r.Range(ctx, now.Add(-time.Duration(n)*time.Hour), now)
}
