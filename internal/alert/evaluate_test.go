package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tqwind/windalert/internal/config"
	"github.com/tqwind/windalert/internal/store"
	"github.com/tqwind/windalert/internal/units"
	"github.com/tqwind/windalert/internal/weather"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		ThresholdKnots: 20,
		WindowStart:    config.TimeOfDay{Hour: 8},
		WindowEnd:      config.TimeOfDay{Hour: 17},
		Cooldown:       2 * time.Hour,
		Location:       time.UTC,
	}
}

func readingAt(ts time.Time, knots float64) weather.Reading {
	return weather.Reading{
		Timestamp:   ts,
		WindSpeedMS: units.ToMS(knots),
	}
}

func TestFiresWithoutPriorAlert(t *testing.T) {
	cfg := testConfig(t)
	now := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	d := Evaluate(readingAt(now, 22), nil, cfg, now)
	require.True(t, d.Fire)
	assert.Equal(t, now, d.NextState.SentAt)
	assert.InDelta(t, 22, d.NextState.WindKnots, 1e-9)
}

func TestBelowThresholdDoesNotFire(t *testing.T) {
	cfg := testConfig(t)
	now := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	d := Evaluate(readingAt(now, 19), nil, cfg, now)
	assert.False(t, d.Fire)
	assert.Contains(t, d.Reason, "below threshold")
}

func TestExactlyAtThresholdFires(t *testing.T) {
	cfg := testConfig(t)
	now := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	// Threshold expressed from the same m/s value the reading carries, so
	// the comparison sees bit-identical knot values.
	reading := weather.Reading{Timestamp: now, WindSpeedMS: 10.3}
	cfg.ThresholdKnots = units.ToKnots(10.3)

	assert.True(t, Evaluate(reading, nil, cfg, now).Fire)

	reading.WindSpeedMS = 10.2
	assert.False(t, Evaluate(reading, nil, cfg, now).Fire)
}

func TestActiveHoursBoundaries(t *testing.T) {
	cfg := testConfig(t)

	// Inclusive start.
	atStart := time.Date(2026, 8, 23, 8, 0, 0, 0, time.UTC)
	assert.True(t, Evaluate(readingAt(atStart, 25), nil, cfg, atStart).Fire)

	// Exclusive end.
	atEnd := time.Date(2026, 8, 23, 17, 0, 0, 0, time.UTC)
	d := Evaluate(readingAt(atEnd, 25), nil, cfg, atEnd)
	assert.False(t, d.Fire)
	assert.Contains(t, d.Reason, "outside active hours")

	// One minute before end still fires.
	beforeEnd := time.Date(2026, 8, 23, 16, 59, 0, 0, time.UTC)
	assert.True(t, Evaluate(readingAt(beforeEnd, 25), nil, cfg, beforeEnd).Fire)

	// Night: high wind never fires.
	night := time.Date(2026, 8, 23, 3, 0, 0, 0, time.UTC)
	assert.False(t, Evaluate(readingAt(night, 40), nil, cfg, night).Fire)
}

func TestActiveHoursUseConfiguredTimezone(t *testing.T) {
	cfg := testConfig(t)
	loc, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)
	cfg.Location = loc

	// 02:30 UTC is 09:30 in Bangkok: inside the window.
	now := time.Date(2026, 8, 23, 2, 30, 0, 0, time.UTC)
	assert.True(t, Evaluate(readingAt(now, 25), nil, cfg, now).Fire)

	// 12:00 UTC is 19:00 in Bangkok: outside.
	evening := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	assert.False(t, Evaluate(readingAt(evening, 25), nil, cfg, evening).Fire)
}

func TestCooldownScenario(t *testing.T) {
	cfg := testConfig(t)

	// 10:00, 22kt: fires, state records 10:00.
	t1 := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	d1 := Evaluate(readingAt(t1, 22), nil, cfg, t1)
	require.True(t, d1.Fire)
	assert.Equal(t, t1, d1.NextState.SentAt)

	// 11:00, 25kt: suppressed, cooldown still running.
	t2 := time.Date(2026, 8, 23, 11, 0, 0, 0, time.UTC)
	d2 := Evaluate(readingAt(t2, 25), &d1.NextState, cfg, t2)
	assert.False(t, d2.Fire)
	assert.Contains(t, d2.Reason, "cooldown")

	// 12:30, 25kt: cooldown elapsed, fires again.
	t3 := time.Date(2026, 8, 23, 12, 30, 0, 0, time.UTC)
	d3 := Evaluate(readingAt(t3, 25), &d1.NextState, cfg, t3)
	assert.True(t, d3.Fire)
	assert.Equal(t, t3, d3.NextState.SentAt)
}

func TestDeterministic(t *testing.T) {
	cfg := testConfig(t)
	now := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	reading := readingAt(now, 23)
	last := &store.AlertState{SentAt: now.Add(-3 * time.Hour), WindKnots: 21}

	first := Evaluate(reading, last, cfg, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Evaluate(reading, last, cfg, now))
	}
}
