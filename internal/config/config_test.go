package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("08:00")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 8}, tod)
	assert.Equal(t, 480, tod.Minutes())
	assert.Equal(t, "08:00", tod.String())

	tod, err = ParseTimeOfDay("23:59")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 23, Minute: 59}, tod)

	for _, bad := range []string{"", "8", "24:00", "12:60", "ab:cd", "-1:30"} {
		_, err := ParseTimeOfDay(bad)
		assert.Error(t, err, bad)
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("OPENWEATHER_API_KEY", "owm-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15.0, cfg.ThresholdKnots)
	assert.Equal(t, 10*time.Minute, cfg.CheckInterval)
	assert.Equal(t, 2*time.Hour, cfg.Cooldown)
	assert.Equal(t, TimeOfDay{Hour: 8}, cfg.AlertWindowStart)
	assert.Equal(t, TimeOfDay{Hour: 17}, cfg.AlertWindowEnd)
	assert.Equal(t, TimeOfDay{Hour: 8}, cfg.ForecastTime)
	assert.Equal(t, "Asia/Bangkok", cfg.Timezone.String())
	assert.Equal(t, "windalert.db", cfg.SQLitePath)
	assert.Equal(t, "8080", cfg.Port)

	// Default spot.
	assert.InDelta(t, 12.360176, cfg.Spot.Latitude, 1e-9)
	assert.InDelta(t, 99.996044, cfg.Spot.Longitude, 1e-9)
}

func TestLoadMissingTokenFails(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("OPENWEATHER_API_KEY", "owm-key")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadParsesChatIDs(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALLOWED_CHAT_IDS", "-100123, 456 ,789")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []int64{-100123, 456, 789}, cfg.ChatIDs)

	t.Setenv("ALLOWED_CHAT_IDS", "12,notanumber")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvertedAlertWindow(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALERT_START_TIME", "18:00")
	t.Setenv("ALERT_END_TIME", "08:00")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadExplicitSpotCoordinates(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SPOT_NAME", "Hua Hin")
	t.Setenv("SPOT_LAT", "12.5684")
	t.Setenv("SPOT_LON", "99.9577")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Hua Hin", cfg.Spot.Name)
	assert.InDelta(t, 12.5684, cfg.Spot.Latitude, 1e-9)
	assert.InDelta(t, 99.9577, cfg.Spot.Longitude, 1e-9)
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WIND_THRESHOLD_KNOTS", "-3")

	_, err := Load()
	assert.Error(t, err)
}
