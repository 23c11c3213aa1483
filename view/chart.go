package view

import (
	"time"

	"github.com/stuartleeks/home-dash/weather-dash/data"
)

const (
	HIGH_SERIES_COLOR = "hsl(15, 100%, 60%)"
	LOW_SERIES_COLOR  = "hsl(200, 100%, 60%)"
	CHART_UNIT        = "°C"
)

// Chart mirrors the Chart.js line chart configuration so it can be marshalled
// straight into the page. The image renderer reads the same values.
type Chart struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
	Options  ChartOptions   `json:"options"`
	// Tooltips holds the rendered tooltip text per dataset and point.
	Tooltips [][]string `json:"tooltips"`
}

type ChartDataset struct {
	Label                string    `json:"label"`
	Data                 []float64 `json:"data"`
	BorderColor          string    `json:"borderColor"`
	BackgroundColor      string    `json:"backgroundColor"`
	BorderWidth          float64   `json:"borderWidth"`
	PointRadius          float64   `json:"pointRadius"`
	PointHoverRadius     float64   `json:"pointHoverRadius"`
	PointBackgroundColor string    `json:"pointBackgroundColor"`
	PointBorderColor     string    `json:"pointBorderColor"`
	PointBorderWidth     float64   `json:"pointBorderWidth"`
	Tension              float64   `json:"tension"`
	Fill                 string    `json:"fill"`
}

type ChartOptions struct {
	LegendPosition       string  `json:"legendPosition"`
	UsePointStyle        bool    `json:"usePointStyle"`
	TooltipSuffix        string  `json:"tooltipSuffix"`
	TickSuffix           string  `json:"tickSuffix"`
	InteractionMode      string  `json:"interactionMode"`
	InteractionIntersect bool    `json:"interactionIntersect"`
	ShowXGrid            bool    `json:"showXGrid"`
	PointHoverBorder     float64 `json:"pointHoverBorderWidth"`
}

// ChartLabel formats a forecast date as "Sat, Jan 27". Unparseable dates pass through.
func ChartLabel(date string, loc *time.Location) string {
	d, ok := ParseDate(date, loc)
	if !ok {
		return date
	}
	return d.Format("Mon, Jan 2")
}

// TooltipLabel renders the tooltip text for one point.
func (c Chart) TooltipLabel(dataset int, index int) string {
	ds := c.Datasets[dataset]
	return ds.Label + ": " + FormatNumber(ds.Data[index]) + c.Options.TooltipSuffix
}

// Tick renders a y axis tick value.
func (c Chart) Tick(v float64) string {
	return FormatNumber(v) + c.Options.TickSuffix
}

func NewChart(forecast []data.ForecastData, loc *time.Location) Chart {
	labels := make([]string, 0, len(forecast))
	highs := make([]float64, 0, len(forecast))
	lows := make([]float64, 0, len(forecast))
	for _, day := range forecast {
		labels = append(labels, ChartLabel(day.Date, loc))
		highs = append(highs, day.High)
		lows = append(lows, day.Low)
	}

	chart := Chart{
		Labels: labels,
		Datasets: []ChartDataset{
			newSeries("High Temperature", highs, HIGH_SERIES_COLOR, "hsla(15, 100%, 60%, 0.1)", "+1"),
			newSeries("Low Temperature", lows, LOW_SERIES_COLOR, "hsla(200, 100%, 60%, 0.1)", "origin"),
		},
		Options: ChartOptions{
			LegendPosition:       "top",
			UsePointStyle:        true,
			TooltipSuffix:        CHART_UNIT,
			TickSuffix:           CHART_UNIT,
			InteractionMode:      "index",
			InteractionIntersect: false,
			ShowXGrid:            false,
			PointHoverBorder:     3,
		},
	}
	chart.Tooltips = make([][]string, len(chart.Datasets))
	for i, ds := range chart.Datasets {
		chart.Tooltips[i] = make([]string, len(ds.Data))
		for j := range ds.Data {
			chart.Tooltips[i][j] = chart.TooltipLabel(i, j)
		}
	}
	return chart
}

func newSeries(label string, values []float64, color string, fillColor string, fill string) ChartDataset {
	return ChartDataset{
		Label:                label,
		Data:                 values,
		BorderColor:          color,
		BackgroundColor:      fillColor,
		BorderWidth:          3,
		PointRadius:          6,
		PointHoverRadius:     8,
		PointBackgroundColor: color,
		PointBorderColor:     "#ffffff",
		PointBorderWidth:     2,
		Tension:              0.4,
		Fill:                 fill,
	}
}
