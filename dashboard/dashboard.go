package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/stuartleeks/home-dash/weather-dash/data"
	"github.com/stuartleeks/home-dash/weather-dash/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	TRIGGER_START    = "start"
	TRIGGER_MANUAL   = "manual"
	TRIGGER_LOCATION = "location"

	SEQUENCE_LOCATE = "locate"
	SEQUENCE_FETCH  = "fetch"
)

type Options struct {
	Locator  Locator
	Source   Source
	Notifier Notifier
	// Placeholder supplies fallback records. It must always succeed.
	Placeholder   func() (data.WeatherData, []data.ForecastData)
	Clock         clock.Clock
	Logger        *zap.SugaredLogger
	LocateTimeout time.Duration
	// MaxNotices bounds the recent notices kept in State.
	MaxNotices int
}

// Dashboard owns the weather state and runs the locate and fetch sequences.
// Sequences run on their own goroutines; overlapping runs are not fenced, so the last
// one to finish wins.
type Dashboard struct {
	locator       Locator
	source        Source
	notifier      Notifier
	placeholder   func() (data.WeatherData, []data.ForecastData)
	clock         clock.Clock
	logger        *zap.SugaredLogger
	locateTimeout time.Duration
	maxNotices    int

	mu          sync.Mutex
	ctx         context.Context
	state       State
	settled     Phase
	subscribers map[chan State]struct{}
}

func New(opts Options) *Dashboard {
	if opts.Clock == nil {
		opts.Clock = clock.NewClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Placeholder == nil {
		opts.Placeholder = func() (data.WeatherData, []data.ForecastData) {
			return data.PlaceholderWeather(), data.PlaceholderForecast()
		}
	}
	if opts.Source == nil {
		opts.Source = NewPlaceholderSource(opts.Clock, 0, nil)
	}
	if opts.MaxNotices <= 0 {
		opts.MaxNotices = 5
	}
	d := &Dashboard{
		locator:       opts.Locator,
		source:        opts.Source,
		notifier:      opts.Notifier,
		placeholder:   opts.Placeholder,
		clock:         opts.Clock,
		logger:        opts.Logger,
		locateTimeout: opts.LocateTimeout,
		maxNotices:    opts.MaxNotices,
		ctx:           context.Background(),
		state:         State{Phase: PHASE_IDLE, Forecast: []data.ForecastData{}, Notices: []Notice{}},
		settled:       PHASE_IDLE,
		subscribers:   map[chan State]struct{}{},
	}
	d.state.UpdatedAt = d.clock.Now()
	metrics.Phase(string(PHASE_IDLE), allPhases)
	return d
}

// Start runs the locate sequence once. ctx bounds this and every later sequence.
// The returned channel is closed when the sequence has settled.
func (d *Dashboard) Start(ctx context.Context) <-chan struct{} {
	d.mu.Lock()
	d.ctx = ctx
	d.mu.Unlock()
	return d.run(TRIGGER_START, SEQUENCE_LOCATE, d.locate)
}

// Refresh re-fetches when coordinates are known and re-locates otherwise.
func (d *Dashboard) Refresh() <-chan struct{} {
	return d.refresh(TRIGGER_MANUAL)
}

// LocationReported is called when a late location report arrives. It re-locates only
// when no coordinates are known yet and no locate is already running, since that
// locate picks up the pending report.
func (d *Dashboard) LocationReported() <-chan struct{} {
	if s := d.State(); s.Location != nil || s.Phase == PHASE_LOCATING {
		done := make(chan struct{})
		close(done)
		return done
	}
	return d.refresh(TRIGGER_LOCATION)
}

func (d *Dashboard) refresh(trigger string) <-chan struct{} {
	if coords := d.State().Location; coords != nil {
		c := *coords
		return d.run(trigger, SEQUENCE_FETCH, func(ctx context.Context) { d.fetch(ctx, c) })
	}
	return d.run(trigger, SEQUENCE_LOCATE, d.locate)
}

func (d *Dashboard) run(trigger string, name string, sequence func(ctx context.Context)) <-chan struct{} {
	metrics.Refresh(trigger, name)
	d.logger.Debugw("sequence started", "trigger", trigger, "sequence", name)

	d.mu.Lock()
	ctx := d.ctx
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		sequence(ctx)
	}()
	return done
}

// State returns a copy of the current state.
func (d *Dashboard) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.clone()
}

// Notices returns the most recent notices, oldest first.
func (d *Dashboard) Notices() []Notice {
	return d.State().Notices
}

// Subscribe returns a channel that always holds the latest state. Older undelivered
// states are replaced. Call the returned func to unsubscribe.
func (d *Dashboard) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	d.mu.Lock()
	d.subscribers[ch] = struct{}{}
	ch <- d.state.clone()
	d.mu.Unlock()

	return ch, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if _, ok := d.subscribers[ch]; ok {
			delete(d.subscribers, ch)
			close(ch)
		}
	}
}

func (d *Dashboard) locate(ctx context.Context) {
	d.update(func(s *State) { s.Phase = PHASE_LOCATING })

	if d.locator == nil || !d.locator.Available() {
		d.logger.Infow("geolocation unavailable, using placeholder data")
		d.fallback(ctx, NOTICE_UNSUPPORTED)
		return
	}

	locateCtx := ctx
	if d.locateTimeout > 0 {
		var cancel context.CancelFunc
		locateCtx, cancel = context.WithTimeout(ctx, d.locateTimeout)
		defer cancel()
	}

	coords, err := d.locator.Locate(locateCtx)
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			d.logger.Infow("geolocation unsupported, using placeholder data", "error", err)
			d.fallback(ctx, NOTICE_UNSUPPORTED)
			return
		}
		d.logger.Warnw("error getting location, using placeholder data", "error", err)
		d.fallback(ctx, NOTICE_LOCATION_DENIED)
		return
	}

	d.logger.Infow("location detected", "lat", coords.Lat, "lon", coords.Lon)
	d.update(func(s *State) { s.Location = &coords })
	d.notify(ctx, NOTICE_LOCATION_DETECTED)
	d.fetch(ctx, coords)
}

func (d *Dashboard) fallback(ctx context.Context, kind NoticeKind) {
	weather, forecast := d.placeholder()
	d.update(func(s *State) {
		s.Phase = PHASE_FALLBACK
		s.Weather = &weather
		s.Forecast = forecast
	})
	d.notify(ctx, kind)
}

func (d *Dashboard) fetch(ctx context.Context, coords data.Coordinates) {
	d.update(func(s *State) { s.Phase = PHASE_FETCHING })
	start := d.clock.Now()

	var (
		weather  data.WeatherData
		forecast []data.ForecastData
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w, err := d.source.CurrentConditions(gctx, coords)
		if err != nil {
			return fmt.Errorf("fetching current conditions: %w", err)
		}
		weather = w
		return nil
	})
	g.Go(func() error {
		f, err := d.source.Forecast(gctx, coords)
		if err != nil {
			return fmt.Errorf("fetching forecast: %w", err)
		}
		forecast = f
		return nil
	})
	err := g.Wait()
	metrics.Fetch(d.clock.Since(start), err)

	if err != nil {
		d.logger.Errorw("error fetching weather data", "error", err, "lat", coords.Lat, "lon", coords.Lon)
		d.update(func(s *State) {
			if s.Weather == nil {
				s.Phase = PHASE_FAILED
			} else {
				s.Phase = d.settled
			}
		})
		d.notify(ctx, NOTICE_FETCH_FAILED)
		return
	}

	if forecast == nil {
		forecast = []data.ForecastData{}
	}
	d.update(func(s *State) {
		s.Phase = PHASE_LOADED
		s.Weather = &weather
		s.Forecast = forecast
	})
	d.notify(ctx, NOTICE_FETCH_SUCCEEDED)
}

func (d *Dashboard) notify(ctx context.Context, kind NoticeKind) {
	n := newNotice(kind, d.clock.Now())
	metrics.Notice(string(kind))
	d.update(func(s *State) {
		s.Notices = append(s.Notices, n)
		if len(s.Notices) > d.maxNotices {
			s.Notices = s.Notices[len(s.Notices)-d.maxNotices:]
		}
	})
	if d.notifier != nil {
		d.notifier.Notify(ctx, n)
	}
}

func (d *Dashboard) update(mutate func(s *State)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	mutate(&d.state)
	d.state.UpdatedAt = d.clock.Now()
	if d.state.settled() {
		d.settled = d.state.Phase
	}
	metrics.Phase(string(d.state.Phase), allPhases)

	snapshot := d.state.clone()
	for ch := range d.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}
