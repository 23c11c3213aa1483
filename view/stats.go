package view

import "github.com/stuartleeks/home-dash/weather-dash/data"

type StatTile struct {
	Icon  string `json:"icon"`
	Label string `json:"label"`
	Value string `json:"value"`
	Color string `json:"color"`
}

func NewStats(w data.WeatherData) []StatTile {
	return []StatTile{
		{Icon: "wind", Label: "Wind Speed", Value: FormatNumber(w.WindSpeed) + " km/h", Color: "primary"},
		{Icon: "droplets", Label: "Humidity", Value: FormatNumber(w.Humidity) + "%", Color: "rainy"},
		{Icon: "gauge", Label: "Pressure", Value: FormatNumber(w.Pressure) + " hPa", Color: "stormy"},
		{Icon: "eye", Label: "Visibility", Value: FormatNumber(w.Visibility) + " km", Color: "cloudy"},
	}
}
