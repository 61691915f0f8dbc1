package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/tqwind/windalert/internal/units"
	"github.com/tqwind/windalert/internal/weather"
)

// Language selects the message wording.
type Language string

const (
	LangEN Language = "en"
	LangRU Language = "ru"
)

// IsSupported reports whether the language code is one the bot speaks.
func (l Language) IsSupported() bool {
	return l == LangEN || l == LangRU
}

// weatherEmoji picks an emoji for the overall conditions.
func weatherEmoji(r weather.Reading) string {
	if r.Raining {
		return "🌧️"
	}
	switch r.Condition {
	case weather.ConditionClear:
		return "☀️"
	case weather.ConditionCloudy:
		return "☁️"
	case weather.ConditionSnow:
		return "❄️"
	case weather.ConditionStorm:
		return "⛈️"
	case weather.ConditionMist:
		return "🌫️"
	default:
		return "🌤️"
	}
}

// windEmoji picks an emoji for the wind speed in knots.
func windEmoji(knots float64) string {
	switch {
	case knots < 5:
		return "🪶"
	case knots < 10:
		return "🍃"
	case knots < 15:
		return "💨"
	case knots < 20:
		return "🌬️"
	case knots < 30:
		return "🚩"
	default:
		return "🌪️"
	}
}

// windLine formats the wind speed in both units, with gusts when reported.
// This is the single presentation boundary where knot values are rounded.
func windLine(r weather.Reading, lang Language) string {
	kn, ms := "kn", "m/s"
	if lang == LangRU {
		kn, ms = "уз", "м/с"
	}

	line := fmt.Sprintf("*%.1f %s / %.1f %s*", r.WindKnots(), kn, r.WindSpeedMS, ms)
	if r.GustMS != nil {
		gusts := "gusts"
		if lang == LangRU {
			gusts = "порывы"
		}
		line += fmt.Sprintf(" (%s: %.1f %s / %.1f %s)", gusts, units.ToKnots(*r.GustMS), kn, *r.GustMS, ms)
	}
	return line
}

func spotSuffix(spot weather.Spot, lang Language) string {
	if spot.Name == "" {
		return ""
	}
	prefix := " for "
	if lang == LangRU {
		prefix = " для "
	}
	if spot.Country != "" {
		return prefix + spot.Name + ", " + spot.Country
	}
	return prefix + spot.Name
}

// FormatCurrent renders the /weather reply.
func FormatCurrent(r weather.Reading, spot weather.Spot, lang Language) string {
	ts := r.Timestamp
	var b strings.Builder

	if lang == LangRU {
		fmt.Fprintf(&b, "*Текущая погода*%s %s (%s, %s)\n\n", spotSuffix(spot, lang), weatherEmoji(r), ts.Format("02.01.2006"), ts.Format("15:04"))
		fmt.Fprintf(&b, "🌡️ Температура: *%.1f°C* (ощущается как %.1f°C)\n", r.Temperature, r.FeelsLike)
		fmt.Fprintf(&b, "%s Ветер: %s\n", windEmoji(r.WindKnots()), windLine(r, lang))
		fmt.Fprintf(&b, "💧 Влажность: %.0f%%\n", r.Humidity)
		fmt.Fprintf(&b, "☁️ Облачность: %.0f%%\n", r.Clouds)
		fmt.Fprintf(&b, "🌅 Восход: %s\n", r.Sunrise.Format("15:04"))
		fmt.Fprintf(&b, "🌇 Закат: %s\n", r.Sunset.Format("15:04"))
		if r.Description != "" {
			fmt.Fprintf(&b, "\nУсловия: %s", r.Description)
		}
		return b.String()
	}

	fmt.Fprintf(&b, "*Current Weather*%s %s (%s, %s)\n\n", spotSuffix(spot, lang), weatherEmoji(r), ts.Format("02.01.2006"), ts.Format("15:04"))
	fmt.Fprintf(&b, "🌡️ Temperature: *%.1f°C* (feels like %.1f°C)\n", r.Temperature, r.FeelsLike)
	fmt.Fprintf(&b, "%s Wind: %s\n", windEmoji(r.WindKnots()), windLine(r, lang))
	fmt.Fprintf(&b, "💧 Humidity: %.0f%%\n", r.Humidity)
	fmt.Fprintf(&b, "☁️ Clouds: %.0f%%\n", r.Clouds)
	fmt.Fprintf(&b, "🌅 Sunrise: %s\n", r.Sunrise.Format("15:04"))
	fmt.Fprintf(&b, "🌇 Sunset: %s\n", r.Sunset.Format("15:04"))
	if r.Description != "" {
		fmt.Fprintf(&b, "\nConditions: %s", r.Description)
	}
	return b.String()
}

// FormatForecast renders the daily forecast message.
func FormatForecast(r weather.Reading, spot weather.Spot, lang Language) string {
	var b strings.Builder

	if lang == LangRU {
		fmt.Fprintf(&b, "*Прогноз на день*%s %s (%s)\n\n", spotSuffix(spot, lang), weatherEmoji(r), r.Timestamp.Format("02.01.2006"))
		fmt.Fprintf(&b, "🌡️ Температура: *%.1f°C* (ощущается как %.1f°C)\n", r.Temperature, r.FeelsLike)
		fmt.Fprintf(&b, "%s Ветер: %s\n", windEmoji(r.WindKnots()), windLine(r, lang))
		fmt.Fprintf(&b, "💧 Влажность: %.0f%%\n", r.Humidity)
		fmt.Fprintf(&b, "☁️ Облачность: %.0f%%\n\n", r.Clouds)
		b.WriteString("Хорошего дня! 🏄‍♂️🪁")
		return b.String()
	}

	fmt.Fprintf(&b, "*Daily Forecast*%s %s (%s)\n\n", spotSuffix(spot, lang), weatherEmoji(r), r.Timestamp.Format("02.01.2006"))
	fmt.Fprintf(&b, "🌡️ Temperature: *%.1f°C* (feels like %.1f°C)\n", r.Temperature, r.FeelsLike)
	fmt.Fprintf(&b, "%s Wind: %s\n", windEmoji(r.WindKnots()), windLine(r, lang))
	fmt.Fprintf(&b, "💧 Humidity: %.0f%%\n", r.Humidity)
	fmt.Fprintf(&b, "☁️ Clouds: %.0f%%\n\n", r.Clouds)
	b.WriteString("Have a great day! 🏄‍♂️🪁")
	return b.String()
}

// FormatAlert renders the wind alert pushed to subscribed chats.
func FormatAlert(r weather.Reading, spot weather.Spot, lang Language) string {
	if lang == LangRU {
		return fmt.Sprintf("*Ветровая тревога!*%s %s\n\nТекущая скорость ветра %s\nВремя кататься! 🏄‍♂️🪁",
			spotSuffix(spot, lang), windEmoji(r.WindKnots()), windLine(r, lang))
	}
	return fmt.Sprintf("*Wind Alert!*%s %s\n\nCurrent wind speed is %s\nTime to hit the water! 🏄‍♂️🪁",
		spotSuffix(spot, lang), windEmoji(r.WindKnots()), windLine(r, lang))
}

// FormatWind renders the /wind reply: wind only, no full report.
func FormatWind(r weather.Reading, lang Language) string {
	age := time.Since(r.Timestamp).Round(time.Minute)
	if lang == LangRU {
		return fmt.Sprintf("%s Ветер: %s\n_данные %s назад_", windEmoji(r.WindKnots()), windLine(r, lang), age)
	}
	return fmt.Sprintf("%s Wind: %s\n_as of %s ago_", windEmoji(r.WindKnots()), windLine(r, lang), age)
}
