package config

import (
	"os"
	"strconv"
	"time"
)

const (
	LOCATOR_STATIC  = "static"
	LOCATOR_BROWSER = "browser"
)

func GetPort() string {
	p := os.Getenv("PORT")
	if p == "" {
		p = "8080"
	}
	return p
}

func GetDashboardInfoPath() string {
	return os.Getenv("DASHBOARD_INPUT_DIR")
}

func GetApplicationInsightsInstrumentationKey() string {
	return os.Getenv("APPLICATIONINSIGHTS_INSTRUMENTATION_KEY")
}

// GetPlaceholderFilePath returns the placeholder fixture, relative to DASHBOARD_INPUT_DIR
// unless absolute.
func GetPlaceholderFilePath() string {
	p := os.Getenv("PLACEHOLDER_FILE")
	if p == "" {
		p = "placeholder.json"
	}
	return p
}

// GetStaticLocation returns the configured coordinates and whether both were set and valid.
func GetStaticLocation() (lat float64, lon float64, ok bool) {
	latString := os.Getenv("WEATHER_LAT")
	lonString := os.Getenv("WEATHER_LON")
	if latString == "" || lonString == "" {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(latString, 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(lonString, 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// GetLocator returns LOCATOR, defaulting to static when coordinates are configured
// and to browser otherwise.
func GetLocator() string {
	switch l := os.Getenv("LOCATOR"); l {
	case LOCATOR_STATIC, LOCATOR_BROWSER:
		return l
	}
	if _, _, ok := GetStaticLocation(); ok {
		return LOCATOR_STATIC
	}
	return LOCATOR_BROWSER
}

func GetLocateTimeout() time.Duration {
	return getDuration("LOCATE_TIMEOUT", 30*time.Second)
}

func GetFetchDelay() time.Duration {
	return getDuration("FETCH_DELAY", 1*time.Second)
}

func GetFetchRatePerSecond() float64 {
	if v, err := strconv.ParseFloat(os.Getenv("FETCH_RATE_PER_SECOND"), 64); err == nil && v > 0 {
		return v
	}
	return 1
}

func GetFetchBurst() int {
	if v, err := strconv.Atoi(os.Getenv("FETCH_BURST")); err == nil && v > 0 {
		return v
	}
	return 3
}

func GetMQTTBroker() string {
	return os.Getenv("MQTT_BROKER")
}

func GetMQTTTopic() string {
	t := os.Getenv("MQTT_TOPIC")
	if t == "" {
		t = "weather-dash/notices"
	}
	return t
}

// GetFontFile returns the TTF used for the dashboard image. Empty means the embedded Go font.
func GetFontFile() string {
	return os.Getenv("FONT_FILE")
}

// GetIconsDir returns a directory of <icon>.png files. Empty means icons are drawn.
func GetIconsDir() string {
	return os.Getenv("ICONS_DIR")
}

func GetLogLevel() string {
	l := os.Getenv("LOG_LEVEL")
	if l == "" {
		l = "info"
	}
	return l
}

func getDuration(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d
	}
	if s, err := strconv.Atoi(v); err == nil && s >= 0 {
		return time.Duration(s) * time.Second
	}
	return fallback
}
