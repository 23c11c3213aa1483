package view

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/stuartleeks/home-dash/weather-dash/data"
)

type TemperatureClass string

const (
	TEMP_HOT  TemperatureClass = "temp-hot"
	TEMP_WARM TemperatureClass = "temp-warm"
	TEMP_MILD TemperatureClass = "temp-mild"
	TEMP_COOL TemperatureClass = "temp-cool"
	TEMP_COLD TemperatureClass = "temp-cold"
)

func ClassifyTemperature(celsius float64) TemperatureClass {
	switch {
	case celsius >= 30:
		return TEMP_HOT
	case celsius >= 25:
		return TEMP_WARM
	case celsius >= 15:
		return TEMP_MILD
	case celsius >= 5:
		return TEMP_COOL
	default:
		return TEMP_COLD
	}
}

// FeelsLike is a flat offset; humidity and wind are deliberately ignored.
func FeelsLike(celsius float64) float64 {
	return celsius + 2
}

type Background string

const (
	BACKGROUND_SUNSET Background = "sunset"
	BACKGROUND_STORM  Background = "storm"
	BACKGROUND_SKY    Background = "sky"
)

func BackgroundFor(condition string) Background {
	c := strings.ToLower(condition)
	switch {
	case strings.Contains(c, "sunny") || strings.Contains(c, "clear"):
		return BACKGROUND_SUNSET
	case strings.Contains(c, "rain") || strings.Contains(c, "storm"):
		return BACKGROUND_STORM
	default:
		return BACKGROUND_SKY
	}
}

type Icon string

const (
	ICON_SUN   Icon = "sun"
	ICON_RAIN  Icon = "rain"
	ICON_SNOW  Icon = "snow"
	ICON_CLOUD Icon = "cloud"
)

// IconFor picks the first matching keyword group, in order sun/clear, rain/drizzle, snow.
func IconFor(condition string) Icon {
	c := strings.ToLower(condition)
	switch {
	case strings.Contains(c, "sun") || strings.Contains(c, "clear"):
		return ICON_SUN
	case strings.Contains(c, "rain") || strings.Contains(c, "drizzle"):
		return ICON_RAIN
	case strings.Contains(c, "snow"):
		return ICON_SNOW
	default:
		return ICON_CLOUD
	}
}

// Round rounds half up, so -2.5 becomes -2.
func Round(v float64) int {
	return int(math.Floor(v + 0.5))
}

// FormatNumber prints the shortest representation that round-trips: 12, 12.5, 1013.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseDate reads a forecast date as a calendar day in loc.
func ParseDate(date string, loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation(data.DateFormat, date, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DayLabel resolves "Today", "Tomorrow" or the weekday name against now.
// Unparseable dates are returned as given.
func DayLabel(date string, now time.Time) string {
	d, ok := ParseDate(date, now.Location())
	if !ok {
		return date
	}
	if sameDay(d, now) {
		return "Today"
	}
	if sameDay(d, now.AddDate(0, 0, 1)) {
		return "Tomorrow"
	}
	return d.Weekday().String()
}
