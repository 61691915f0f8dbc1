package weather

import (
	"time"

	"github.com/tqwind/windalert/internal/units"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Spot is the fixed coordinate the bot watches.
type Spot struct {
	Name      string  `json:"name,omitempty"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Reading is a normalized snapshot of current conditions at the spot.
// Wind speeds are stored in m/s, the authoritative unit; knot values are
// always derived, never stored.
type Reading struct {
	Timestamp   time.Time `json:"timestamp"` // always UTC
	Temperature float64   `json:"temperatureC"`
	FeelsLike   float64   `json:"feelsLikeC"`
	WindSpeedMS float64   `json:"windSpeedMs"`
	GustMS      *float64  `json:"gustMs,omitempty"`
	Humidity    float64   `json:"humidityPercent"`
	Pressure    float64   `json:"pressureHpa"`
	Clouds      float64   `json:"cloudsPercent"`
	Raining     bool      `json:"raining"`
	Condition   Condition `json:"condition"`
	Description string    `json:"description,omitempty"`
	Sunrise     time.Time `json:"sunrise,omitempty"`
	Sunset      time.Time `json:"sunset,omitempty"`
}

// WindKnots returns the wind speed converted to knots.
func (r Reading) WindKnots() float64 {
	return units.ToKnots(r.WindSpeedMS)
}

// GustKnots returns the gust speed in knots, or nil when no gust was reported.
func (r Reading) GustKnots() *float64 {
	if r.GustMS == nil {
		return nil
	}
	g := units.ToKnots(*r.GustMS)
	return &g
}
