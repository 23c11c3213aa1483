package view

import (
	"time"

	"github.com/stuartleeks/home-dash/weather-dash/dashboard"
)

const (
	ACTION_REFRESH = "refresh"
)

type Action struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Page is everything a renderer needs. When Loading is set only the loading view is
// shown and the components are empty.
type Page struct {
	Title      string             `json:"title"`
	Subtitle   string             `json:"subtitle"`
	DateString string             `json:"dateString"`
	Phase      dashboard.Phase    `json:"phase"`
	Loading    bool               `json:"loading"`
	Background Background         `json:"background"`
	Current    *Current           `json:"current,omitempty"`
	Stats      []StatTile         `json:"stats"`
	Chart      *Chart             `json:"chart,omitempty"`
	Weekly     []DayCell          `json:"weekly"`
	Notices    []dashboard.Notice `json:"notices"`
	Actions    []Action           `json:"actions"`
	// Condition and Temperature feed the image ETag significance check.
	Condition   string    `json:"condition,omitempty"`
	Temperature float64   `json:"temperature"`
	GeneratedAt time.Time `json:"generatedAt"`
}

func NewPage(state dashboard.State, now time.Time) *Page {
	p := &Page{
		Title:       "Weather Dashboard",
		Subtitle:    "Real-time weather information",
		DateString:  now.Format("Monday, 02 January 2006"),
		Phase:       state.Phase,
		Loading:     state.Loading(),
		Background:  BACKGROUND_SKY,
		Stats:       []StatTile{},
		Weekly:      []DayCell{},
		Notices:     state.Notices,
		Actions:     []Action{{ID: ACTION_REFRESH, DisplayName: "Refresh"}},
		GeneratedAt: now,
	}
	if p.Notices == nil {
		p.Notices = []dashboard.Notice{}
	}
	if p.Loading || state.Weather == nil {
		return p
	}

	current := NewCurrent(*state.Weather, now)
	chart := NewChart(state.Forecast, now.Location())
	p.Background = BackgroundFor(state.Weather.Condition)
	p.Current = &current
	p.Stats = NewStats(*state.Weather)
	p.Chart = &chart
	p.Weekly = NewWeekly(state.Forecast, now)
	p.Condition = state.Weather.Condition
	p.Temperature = state.Weather.Temperature
	return p
}
