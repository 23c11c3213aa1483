package dashboard

import (
	"context"
	"fmt"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/stuartleeks/home-dash/weather-dash/data"
	"golang.org/x/time/rate"
)

// Source is where live conditions come from. The orchestrator depends only on this.
type Source interface {
	CurrentConditions(ctx context.Context, coords data.Coordinates) (data.WeatherData, error)
	Forecast(ctx context.Context, coords data.Coordinates) ([]data.ForecastData, error)
}

// PlaceholderFunc yields fresh placeholder records.
type PlaceholderFunc func() (data.WeatherData, []data.ForecastData, error)

// PlaceholderSource stands in for a weather API: it waits a fixed delay and answers
// with placeholder records regardless of coordinates.
type PlaceholderSource struct {
	clock       clock.Clock
	delay       time.Duration
	placeholder PlaceholderFunc
}

func NewPlaceholderSource(clk clock.Clock, delay time.Duration, placeholder PlaceholderFunc) *PlaceholderSource {
	if clk == nil {
		clk = clock.NewClock()
	}
	if placeholder == nil {
		placeholder = func() (data.WeatherData, []data.ForecastData, error) {
			return data.PlaceholderWeather(), data.PlaceholderForecast(), nil
		}
	}
	return &PlaceholderSource{clock: clk, delay: delay, placeholder: placeholder}
}

func (s *PlaceholderSource) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-s.clock.After(s.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *PlaceholderSource) CurrentConditions(ctx context.Context, _ data.Coordinates) (data.WeatherData, error) {
	if err := s.wait(ctx); err != nil {
		return data.WeatherData{}, err
	}
	current, _, err := s.placeholder()
	if err != nil {
		return data.WeatherData{}, fmt.Errorf("loading placeholder conditions: %w", err)
	}
	return current, nil
}

func (s *PlaceholderSource) Forecast(ctx context.Context, _ data.Coordinates) ([]data.ForecastData, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	_, forecast, err := s.placeholder()
	if err != nil {
		return nil, fmt.Errorf("loading placeholder forecast: %w", err)
	}
	return forecast, nil
}

// RateLimitedSource wraps a Source so bursts of refreshes queue behind a token bucket.
type RateLimitedSource struct {
	source  Source
	limiter *rate.Limiter
}

// NewRateLimitedSource allows rps fetches per second with the given burst. Each fetch
// sequence spends one token.
func NewRateLimitedSource(source Source, rps float64, burst int) *RateLimitedSource {
	return &RateLimitedSource{
		source:  source,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimitedSource) CurrentConditions(ctx context.Context, coords data.Coordinates) (data.WeatherData, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return data.WeatherData{}, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.source.CurrentConditions(ctx, coords)
}

// Forecast is fetched alongside CurrentConditions and so does not take another token.
func (r *RateLimitedSource) Forecast(ctx context.Context, coords data.Coordinates) ([]data.ForecastData, error) {
	return r.source.Forecast(ctx, coords)
}
