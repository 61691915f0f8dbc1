package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tqwind/windalert/internal/weather"
)

const validPayload = `{
	"dt": 1787824800,
	"main": {"temp": 31.2, "feels_like": 35.0, "humidity": 68, "pressure": 1008},
	"wind": {"speed": 9.0, "gust": 12.5},
	"clouds": {"all": 20},
	"weather": [{"main": "Clear", "description": "clear sky"}],
	"sys": {"sunrise": 1787806800, "sunset": 1787851200}
}`

func testSource(t *testing.T, handler http.HandlerFunc) *OpenWeatherSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := NewOpenWeatherSource(srv.Client(), "test-key", weather.Spot{
		Name:      "Pranburi",
		Latitude:  12.360176,
		Longitude: 99.996044,
	})
	s.baseURL = srv.URL
	// Retries should not slow the tests down.
	s.rc.backoff = Backoff{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
	return s
}

func TestCurrentParsesPayload(t *testing.T) {
	var query atomic.Value
	s := testSource(t, func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.Query())
		w.Write([]byte(validPayload))
	})

	got, err := s.Current(context.Background())
	require.NoError(t, err)

	assert.Equal(t, time.Unix(1787824800, 0).UTC(), got.Timestamp)
	assert.Equal(t, 31.2, got.Temperature)
	assert.Equal(t, 9.0, got.WindSpeedMS)
	require.NotNil(t, got.GustMS)
	assert.Equal(t, 12.5, *got.GustMS)
	assert.Equal(t, weather.ConditionClear, got.Condition)
	assert.Equal(t, "clear sky", got.Description)
	assert.False(t, got.Raining)

	q := query.Load().(url.Values)
	assert.Equal(t, "test-key", q["appid"][0])
	assert.Equal(t, "metric", q["units"][0])
	assert.Equal(t, "12.360176", q["lat"][0])
	assert.Equal(t, "99.996044", q["lon"][0])
}

func TestCurrentMarksRainFromAccumulation(t *testing.T) {
	payload := `{
		"main": {"temp": 28, "feels_like": 30, "humidity": 90, "pressure": 1005},
		"wind": {"speed": 7.0},
		"rain": {"1h": 0.4},
		"weather": [{"main": "Clouds", "description": "overcast clouds"}]
	}`
	s := testSource(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(payload))
	})

	got, err := s.Current(context.Background())
	require.NoError(t, err)
	assert.True(t, got.Raining)
	assert.Equal(t, weather.ConditionCloudy, got.Condition)
	assert.Nil(t, got.GustMS)
	assert.False(t, got.Timestamp.IsZero(), "missing dt falls back to now")
}

func TestCurrentMissingFieldsIsUnavailable(t *testing.T) {
	s := testSource(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"clouds": {"all": 10}}`))
	})

	_, err := s.Current(context.Background())
	assert.ErrorIs(t, err, weather.ErrUnavailable)
}

func TestCurrentMalformedBodyIsUnavailable(t *testing.T) {
	s := testSource(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html>not json`))
	})

	_, err := s.Current(context.Background())
	assert.ErrorIs(t, err, weather.ErrUnavailable)
}

func TestCurrentRetriesServerErrors(t *testing.T) {
	var calls int32
	s := testSource(t, func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(validPayload))
	})

	got, err := s.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9.0, got.WindSpeedMS)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCurrentGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	s := testSource(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := s.Current(context.Background())
	assert.ErrorIs(t, err, weather.ErrUnavailable)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "initial attempt plus retries")
}

func TestCurrentClientErrorDoesNotRetry(t *testing.T) {
	var calls int32
	s := testSource(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := s.Current(context.Background())
	assert.ErrorIs(t, err, weather.ErrUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCurrentWithoutAPIKey(t *testing.T) {
	s := NewOpenWeatherSource(http.DefaultClient, "", weather.Spot{})
	_, err := s.Current(context.Background())
	assert.ErrorIs(t, err, weather.ErrUnavailable)
}

func TestMapCondition(t *testing.T) {
	assert.Equal(t, weather.ConditionStorm, mapCondition("Thunderstorm"))
	assert.Equal(t, weather.ConditionRain, mapCondition("Drizzle"))
	assert.Equal(t, weather.ConditionMist, mapCondition("Haze"))
	assert.Equal(t, weather.ConditionUnknown, mapCondition("Meteor"))
}
