package dashboard

import (
	"time"

	"github.com/stuartleeks/home-dash/weather-dash/data"
)

type Phase string

const (
	PHASE_IDLE     Phase = "idle"
	PHASE_LOCATING Phase = "locating"
	PHASE_FETCHING Phase = "fetching"
	PHASE_LOADED   Phase = "loaded"
	PHASE_FALLBACK Phase = "fallback"
	// PHASE_FAILED is a fetch failure with no earlier data to keep showing.
	PHASE_FAILED Phase = "failed"
)

var allPhases = []string{
	string(PHASE_IDLE), string(PHASE_LOCATING), string(PHASE_FETCHING),
	string(PHASE_LOADED), string(PHASE_FALLBACK), string(PHASE_FAILED),
}

// State is a snapshot of the dashboard. Loaded and Fallback always carry Weather;
// Failed never does. While loading, Weather holds whatever was shown last.
type State struct {
	Phase     Phase               `json:"phase"`
	Weather   *data.WeatherData   `json:"weather,omitempty"`
	Forecast  []data.ForecastData `json:"forecast"`
	Location  *data.Coordinates   `json:"location,omitempty"`
	Notices   []Notice            `json:"notices"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

func (s State) Loading() bool {
	switch s.Phase {
	case PHASE_IDLE, PHASE_LOCATING, PHASE_FETCHING:
		return true
	}
	return false
}

func (s State) settled() bool {
	return !s.Loading()
}

func (s State) clone() State {
	c := s
	if s.Weather != nil {
		w := *s.Weather
		c.Weather = &w
	}
	if s.Location != nil {
		l := *s.Location
		c.Location = &l
	}
	c.Forecast = append([]data.ForecastData(nil), s.Forecast...)
	c.Notices = append([]Notice(nil), s.Notices...)
	return c
}
