package view

import (
	"time"

	"github.com/stuartleeks/home-dash/weather-dash/data"
)

type DayCell struct {
	Date      string           `json:"date"`
	Label     string           `json:"label"`
	Icon      Icon             `json:"icon"`
	Condition string           `json:"condition"`
	High      int              `json:"high"`
	HighClass TemperatureClass `json:"highClass"`
	Low       int              `json:"low"`
	LowClass  TemperatureClass `json:"lowClass"`
	Humidity  string           `json:"humidity"`
	WindSpeed string           `json:"windSpeed"`
}

// NewWeekly returns one cell per forecast entry, in input order.
func NewWeekly(forecast []data.ForecastData, now time.Time) []DayCell {
	cells := make([]DayCell, 0, len(forecast))
	for _, day := range forecast {
		cells = append(cells, DayCell{
			Date:      day.Date,
			Label:     DayLabel(day.Date, now),
			Icon:      IconFor(day.Condition),
			Condition: day.Condition,
			High:      Round(day.High),
			HighClass: ClassifyTemperature(day.High),
			Low:       Round(day.Low),
			LowClass:  ClassifyTemperature(day.Low),
			Humidity:  FormatNumber(day.Humidity) + "%",
			WindSpeed: FormatNumber(day.WindSpeed) + " km/h",
		})
	}
	return cells
}
