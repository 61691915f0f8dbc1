package store

import (
	"time"

	"github.com/tqwind/windalert/internal/weather"
)

// ReadingRecord is one polled observation, append-only.
type ReadingRecord struct {
	ID           uint      `gorm:"primaryKey"`
	Timestamp    time.Time `gorm:"index"`
	TemperatureC float64
	FeelsLikeC   float64
	WindSpeedMS  float64
	GustMS       *float64
	HumidityPct  float64
	PressureHpa  float64
	CloudsPct    float64
	Raining      bool
	Condition    string
	Description  string
	Sunrise      time.Time
	Sunset       time.Time
	CreatedAt    time.Time
}

func newReadingRecord(r weather.Reading) ReadingRecord {
	return ReadingRecord{
		Timestamp:    r.Timestamp,
		TemperatureC: r.Temperature,
		FeelsLikeC:   r.FeelsLike,
		WindSpeedMS:  r.WindSpeedMS,
		GustMS:       r.GustMS,
		HumidityPct:  r.Humidity,
		PressureHpa:  r.Pressure,
		CloudsPct:    r.Clouds,
		Raining:      r.Raining,
		Condition:    string(r.Condition),
		Description:  r.Description,
		Sunrise:      r.Sunrise,
		Sunset:       r.Sunset,
	}
}

// Reading converts the row back to the normalized domain form.
func (rec ReadingRecord) Reading() weather.Reading {
	return weather.Reading{
		Timestamp:   rec.Timestamp.UTC(),
		Temperature: rec.TemperatureC,
		FeelsLike:   rec.FeelsLikeC,
		WindSpeedMS: rec.WindSpeedMS,
		GustMS:      rec.GustMS,
		Humidity:    rec.HumidityPct,
		Pressure:    rec.PressureHpa,
		Clouds:      rec.CloudsPct,
		Raining:     rec.Raining,
		Condition:   weather.Condition(rec.Condition),
		Description: rec.Description,
		Sunrise:     rec.Sunrise.UTC(),
		Sunset:      rec.Sunset.UTC(),
	}
}

// AlertEntry is the append-only audit log of dispatched alerts.
type AlertEntry struct {
	ID         string    `gorm:"primaryKey"`
	SentAt     time.Time `gorm:"index"`
	WindKnots  float64
	GustKnots  *float64
	Recipients int // sends that succeeded
	Failed     int // sends that failed
	CreatedAt  time.Time
}

// StatsSnapshot is one immutable flush of the live usage counters.
// "Current" stats are always the latest row.
type StatsSnapshot struct {
	ID                uint      `gorm:"primaryKey"`
	Timestamp         time.Time `gorm:"index"`
	MessagesProcessed int64
	StartCommands     int64
	HelpCommands      int64
	WeatherCommands   int64
	ForecastCommands  int64
	WindCommands      int64
	LanguageCommands  int64
	ScheduledChecks   int64
	AlertsSent        int64
	ActiveUsers       int64
	CreatedAt         time.Time
}
