package alert

import (
	"fmt"
	"time"

	"github.com/tqwind/windalert/internal/config"
	"github.com/tqwind/windalert/internal/store"
	"github.com/tqwind/windalert/internal/units"
	"github.com/tqwind/windalert/internal/weather"
)

// Config is the alerting policy: process-wide, loaded once, never mutated.
type Config struct {
	ThresholdKnots float64
	WindowStart    config.TimeOfDay
	WindowEnd      config.TimeOfDay
	Cooldown       time.Duration
	Location       *time.Location
}

// Decision is the outcome of evaluating one reading.
type Decision struct {
	Fire   bool
	Reason string
	// NextState is the record to persist when Fire is true.
	NextState store.AlertState
}

// Evaluate decides whether a reading warrants an alert. Pure: identical
// inputs always produce the identical decision; now is injected so tests
// are independent of wall-clock time.
//
// Conditions are checked in order and the first failing one wins:
// active-hours window ([start, end), configured timezone), threshold,
// cooldown since the last alert.
func Evaluate(reading weather.Reading, lastAlert *store.AlertState, cfg Config, now time.Time) Decision {
	local := now.In(cfg.Location)
	minutes := local.Hour()*60 + local.Minute()
	if minutes < cfg.WindowStart.Minutes() || minutes >= cfg.WindowEnd.Minutes() {
		return Decision{Reason: fmt.Sprintf("outside active hours %s-%s", cfg.WindowStart, cfg.WindowEnd)}
	}

	knots := units.ToKnots(reading.WindSpeedMS)
	if knots < cfg.ThresholdKnots {
		return Decision{Reason: fmt.Sprintf("wind %.1fkt below threshold %.1fkt", knots, cfg.ThresholdKnots)}
	}

	if lastAlert != nil && now.Sub(lastAlert.SentAt) < cfg.Cooldown {
		return Decision{Reason: fmt.Sprintf("cooldown active since %s", lastAlert.SentAt.Format(time.RFC3339))}
	}

	return Decision{
		Fire:   true,
		Reason: fmt.Sprintf("wind %.1fkt at or above threshold %.1fkt", knots, cfg.ThresholdKnots),
		NextState: store.AlertState{
			SentAt:    reading.Timestamp,
			WindKnots: knots,
		},
	}
}
