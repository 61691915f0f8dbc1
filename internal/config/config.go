package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelvins/geocoder"

	"github.com/tqwind/windalert/internal/weather"
)

var validate = validator.New()

// TimeOfDay is a wall-clock time (HH:MM) interpreted in the configured
// timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns the offset from midnight, for window comparisons.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// ParseTimeOfDay parses an "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("time must be in HH:MM format, got %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// AppConfig is built once at startup and passed explicitly to components;
// it is never mutated afterwards.
type AppConfig struct {
	TelegramToken     string `validate:"required"`
	OpenWeatherAPIKey string `validate:"required"`

	// Chats subscribed to automated alerts and forecasts. Commands still
	// work in other chats; only the automated fan-out is restricted.
	ChatIDs  []int64
	AdminIDs []int64

	Spot weather.Spot

	// Alerting.
	ThresholdKnots   float64 `validate:"gt=0"`
	AlertWindowStart TimeOfDay
	AlertWindowEnd   TimeOfDay
	Cooldown         time.Duration `validate:"gt=0"`
	Timezone         *time.Location

	// Scheduling.
	CheckInterval time.Duration `validate:"gt=0"`
	ForecastTime  TimeOfDay

	// Persistence.
	SQLitePath string `validate:"required"`
	RedisURL   string // empty selects the in-memory alert state

	// HTTP.
	Port        string
	MetricsPort string // empty disables the prometheus listener

	LogLevel string
	Dev      bool
}

// Load reads configuration from the environment with defaults matching the
// reference deployment. Missing required settings are a startup error; the
// process must not start partially configured.
func Load() (*AppConfig, error) {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &AppConfig{
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		SQLitePath:        getenvDefault("SQLITE_PATH", "windalert.db"),
		RedisURL:          os.Getenv("REDIS_URL"),
		Port:              getenvDefault("PORT", "8080"),
		MetricsPort:       os.Getenv("METRICS_PORT"),
		LogLevel:          getenvDefault("LOG_LEVEL", "info"),
		Dev:               getenvBool("DEV_MODE", false),
	}

	var err error
	if cfg.ChatIDs, err = getenvInt64List("ALLOWED_CHAT_IDS"); err != nil {
		return nil, fmt.Errorf("invalid ALLOWED_CHAT_IDS: %w", err)
	}
	if cfg.AdminIDs, err = getenvInt64List("ADMIN_USER_IDS"); err != nil {
		return nil, fmt.Errorf("invalid ADMIN_USER_IDS: %w", err)
	}

	if cfg.ThresholdKnots, err = getenvFloat("WIND_THRESHOLD_KNOTS", 15.0); err != nil {
		return nil, fmt.Errorf("invalid WIND_THRESHOLD_KNOTS: %w", err)
	}
	if cfg.CheckInterval, err = getenvDuration("CHECK_INTERVAL", 10*time.Minute); err != nil {
		return nil, fmt.Errorf("invalid CHECK_INTERVAL: %w", err)
	}
	if cfg.Cooldown, err = getenvDuration("ALERT_COOLDOWN", 2*time.Hour); err != nil {
		return nil, fmt.Errorf("invalid ALERT_COOLDOWN: %w", err)
	}

	if cfg.ForecastTime, err = ParseTimeOfDay(getenvDefault("FORECAST_TIME", "08:00")); err != nil {
		return nil, fmt.Errorf("invalid FORECAST_TIME: %w", err)
	}
	if cfg.AlertWindowStart, err = ParseTimeOfDay(getenvDefault("ALERT_START_TIME", "08:00")); err != nil {
		return nil, fmt.Errorf("invalid ALERT_START_TIME: %w", err)
	}
	if cfg.AlertWindowEnd, err = ParseTimeOfDay(getenvDefault("ALERT_END_TIME", "17:00")); err != nil {
		return nil, fmt.Errorf("invalid ALERT_END_TIME: %w", err)
	}
	if cfg.AlertWindowStart.Minutes() >= cfg.AlertWindowEnd.Minutes() {
		return nil, fmt.Errorf("alert window start %s must be before end %s", cfg.AlertWindowStart, cfg.AlertWindowEnd)
	}

	tz := getenvDefault("TIMEZONE", "Asia/Bangkok")
	if cfg.Timezone, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	if cfg.Spot, err = loadSpot(); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("missing or invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadSpot resolves the watched coordinate. Explicit SPOT_LAT/SPOT_LON win;
// otherwise a named spot is geocoded when a Google API key is available.
func loadSpot() (weather.Spot, error) {
	spot := weather.Spot{
		Name:    os.Getenv("SPOT_NAME"),
		Country: os.Getenv("SPOT_COUNTRY"),
	}

	latStr, lonStr := os.Getenv("SPOT_LAT"), os.Getenv("SPOT_LON")
	if latStr != "" || lonStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return spot, fmt.Errorf("invalid SPOT_LAT: %w", err)
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return spot, fmt.Errorf("invalid SPOT_LON: %w", err)
		}
		spot.Latitude, spot.Longitude = lat, lon
		return spot, nil
	}

	if spot.Name != "" && os.Getenv("GOOGLE_API_KEY") != "" {
		geocoder.ApiKey = os.Getenv("GOOGLE_API_KEY")
		loc, err := geocoder.Geocoding(geocoder.Address{
			City:    spot.Name,
			Country: spot.Country,
		})
		if err != nil {
			return spot, fmt.Errorf("geocoding spot %q: %w", spot.Name, err)
		}
		spot.Latitude, spot.Longitude = loc.Latitude, loc.Longitude
		return spot, nil
	}

	// Default spot of the reference deployment (Pranburi, Gulf of Thailand).
	spot.Latitude, spot.Longitude = 12.360176, 99.996044
	return spot, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	return time.ParseDuration(v)
}

func getenvInt64List(key string) ([]int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	var out []int64
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", part, err)
		}
		out = append(out, n)
	}
	return out, nil
}
