package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tqwind/windalert/internal/weather"
)

const openWeatherBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherSource implements weather.Source for the OpenWeatherMap
// current-conditions endpoint, queried by fixed coordinate.
type OpenWeatherSource struct {
	name    string
	apiKey  string
	baseURL string
	spot    weather.Spot
	rc      *resilientClient
}

func NewOpenWeatherSource(client *http.Client, apiKey string, spot weather.Spot) *OpenWeatherSource {
	return &OpenWeatherSource{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: openWeatherBaseURL,
		spot:    spot,
		rc:      newResilientClient(client, "openweather"),
	}
}

func (s *OpenWeatherSource) Name() string {
	return s.name
}

// openWeatherPayload mirrors the subset of the API response we consume.
type openWeatherPayload struct {
	Dt   *int64 `json:"dt"`
	Main *struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
		Pressure  float64 `json:"pressure"`
	} `json:"main"`
	Wind *struct {
		Speed float64  `json:"speed"`
		Gust  *float64 `json:"gust"`
	} `json:"wind"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Rain struct {
		OneH   float64 `json:"1h"`
		ThreeH float64 `json:"3h"`
	} `json:"rain"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Sys struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"sys"`
}

func (s *OpenWeatherSource) Current(ctx context.Context) (weather.Reading, error) {
	if s.apiKey == "" {
		return weather.Reading{}, fmt.Errorf("%w: openweather api key is not configured", weather.ErrUnavailable)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", s.apiKey)
		values.Set("units", "metric")
		values.Set("lat", fmt.Sprintf("%f", s.spot.Latitude))
		values.Set("lon", fmt.Sprintf("%f", s.spot.Longitude))

		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", s.baseURL, values.Encode()), nil)
	}

	resp, err := s.rc.do(ctx, buildRequest)
	if err != nil {
		return weather.Reading{}, fmt.Errorf("%w: %v", weather.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var payload openWeatherPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Reading{}, fmt.Errorf("%w: decoding payload: %v", weather.ErrUnavailable, err)
	}
	if payload.Main == nil || payload.Wind == nil {
		return weather.Reading{}, fmt.Errorf("%w: payload missing required fields", weather.ErrUnavailable)
	}

	ts := time.Now().UTC()
	if payload.Dt != nil && *payload.Dt > 0 {
		ts = time.Unix(*payload.Dt, 0).UTC()
	}

	raining := payload.Rain.OneH > 0 || payload.Rain.ThreeH > 0
	cond := weather.ConditionUnknown
	desc := ""
	if len(payload.Weather) > 0 {
		cond = mapCondition(payload.Weather[0].Main)
		raining = raining || cond == weather.ConditionRain

		parts := make([]string, 0, len(payload.Weather))
		for _, w := range payload.Weather {
			parts = append(parts, w.Description)
		}
		desc = strings.Join(parts, ", ")
	}

	return weather.Reading{
		Timestamp:   ts,
		Temperature: payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		WindSpeedMS: payload.Wind.Speed,
		GustMS:      payload.Wind.Gust,
		Humidity:    payload.Main.Humidity,
		Pressure:    payload.Main.Pressure,
		Clouds:      payload.Clouds.All,
		Raining:     raining,
		Condition:   cond,
		Description: desc,
		Sunrise:     time.Unix(payload.Sys.Sunrise, 0).UTC(),
		Sunset:      time.Unix(payload.Sys.Sunset, 0).UTC(),
	}, nil
}

func mapCondition(main string) weather.Condition {
	switch main {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionCloudy
	case "Rain", "Drizzle":
		return weather.ConditionRain
	case "Snow":
		return weather.ConditionSnow
	case "Thunderstorm", "Squall", "Tornado":
		return weather.ConditionStorm
	case "Mist", "Fog", "Haze", "Smoke", "Dust", "Sand", "Ash":
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}
