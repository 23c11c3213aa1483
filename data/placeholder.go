package data

import (
	"errors"
	"io/fs"
)

type placeholderFile struct {
	Current  *WeatherData   `json:"current"`
	Forecast []ForecastData `json:"forecast"`
}

// PlaceholderWeather returns the fixed current conditions used when no live data is available.
func PlaceholderWeather() WeatherData {
	return WeatherData{
		Location:    "San Francisco, CA",
		Temperature: 22,
		Condition:   "Partly Cloudy",
		Description: "Partly cloudy with gentle breeze",
		Humidity:    65,
		WindSpeed:   12,
		Pressure:    1013,
		Visibility:  10,
		UVIndex:     6,
		Icon:        "02d",
	}
}

// PlaceholderForecast returns a fresh copy of the fixed five-day forecast.
func PlaceholderForecast() []ForecastData {
	return []ForecastData{
		{Date: "2024-01-27", High: 24, Low: 18, Condition: "Sunny", Icon: "01d", Humidity: 60, WindSpeed: 10},
		{Date: "2024-01-28", High: 26, Low: 20, Condition: "Partly Cloudy", Icon: "02d", Humidity: 55, WindSpeed: 15},
		{Date: "2024-01-29", High: 23, Low: 17, Condition: "Cloudy", Icon: "03d", Humidity: 70, WindSpeed: 8},
		{Date: "2024-01-30", High: 21, Low: 15, Condition: "Rainy", Icon: "09d", Humidity: 85, WindSpeed: 18},
		{Date: "2024-01-31", High: 25, Low: 19, Condition: "Sunny", Icon: "01d", Humidity: 50, WindSpeed: 12},
	}
}

// LoadPlaceholder reads the placeholder fixture, filling anything it omits from the
// built-in values. A missing file is not an error.
func LoadPlaceholder(filename string) (WeatherData, []ForecastData, error) {
	current := PlaceholderWeather()
	forecast := PlaceholderForecast()
	if filename == "" {
		return current, forecast, nil
	}

	fixture, err := readFixture[placeholderFile](filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return current, forecast, nil
		}
		return current, forecast, err
	}
	if fixture.Current != nil {
		current = *fixture.Current
	}
	if fixture.Forecast != nil {
		forecast = fixture.Forecast
	}
	return current, forecast, nil
}
