package view

import (
	"time"

	"github.com/stuartleeks/home-dash/weather-dash/data"
)

type Current struct {
	Location         string           `json:"location"`
	Temperature      int              `json:"temperature"`
	TemperatureClass TemperatureClass `json:"temperatureClass"`
	Condition        string           `json:"condition"`
	Description      string           `json:"description"`
	FeelsLike        int              `json:"feelsLike"`
	FeelsLikeClass   TemperatureClass `json:"feelsLikeClass"`
	UVIndex          string           `json:"uvIndex"`
	LastUpdated      string           `json:"lastUpdated"`
}

// NewCurrent builds the headline panel. LastUpdated is the render time, not the data's.
func NewCurrent(w data.WeatherData, now time.Time) Current {
	feelsLike := FeelsLike(w.Temperature)
	return Current{
		Location:         w.Location,
		Temperature:      Round(w.Temperature),
		TemperatureClass: ClassifyTemperature(w.Temperature),
		Condition:        w.Condition,
		Description:      w.Description,
		FeelsLike:        Round(feelsLike),
		FeelsLikeClass:   ClassifyTemperature(feelsLike),
		UVIndex:          FormatNumber(w.UVIndex),
		LastUpdated:      now.Format("15:04"),
	}
}
