package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/stuartleeks/home-dash/weather-dash/data"
)

var (
	// ErrPermissionDenied is reported when the user refuses to share a position.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrUnsupported is reported when no positioning capability exists.
	ErrUnsupported = errors.New("geolocation not supported")
)

// Locator is the positioning capability. Available is queried before Locate.
type Locator interface {
	Available() bool
	Locate(ctx context.Context) (data.Coordinates, error)
}

// StaticLocator always answers with configured coordinates.
type StaticLocator struct {
	coords *data.Coordinates
}

// NewStaticLocator returns a locator for coords; a nil coords is an unavailable locator.
func NewStaticLocator(coords *data.Coordinates) *StaticLocator {
	return &StaticLocator{coords: coords}
}

func (l *StaticLocator) Available() bool {
	return l.coords != nil
}

func (l *StaticLocator) Locate(ctx context.Context) (data.Coordinates, error) {
	if l.coords == nil {
		return data.Coordinates{}, ErrUnsupported
	}
	if err := ctx.Err(); err != nil {
		return data.Coordinates{}, err
	}
	return *l.coords, nil
}

type locationReport struct {
	coords data.Coordinates
	err    error
}

// BrowserLocator waits for the dashboard page to report the result of
// navigator.geolocation. A report that arrives while nobody is waiting is kept for the
// next Locate.
type BrowserLocator struct {
	mu      sync.Mutex
	waiters map[chan locationReport]struct{}
	pending *locationReport
}

func NewBrowserLocator() *BrowserLocator {
	return &BrowserLocator{waiters: map[chan locationReport]struct{}{}}
}

func (l *BrowserLocator) Available() bool {
	return true
}

func (l *BrowserLocator) Locate(ctx context.Context) (data.Coordinates, error) {
	l.mu.Lock()
	if l.pending != nil {
		r := *l.pending
		l.pending = nil
		l.mu.Unlock()
		return r.coords, r.err
	}
	ch := make(chan locationReport, 1)
	l.waiters[ch] = struct{}{}
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.waiters, ch)
		l.mu.Unlock()
	}()

	select {
	case r := <-ch:
		return r.coords, r.err
	case <-ctx.Done():
		return data.Coordinates{}, fmt.Errorf("waiting for browser location: %w", ctx.Err())
	}
}

// Report delivers a browser result to every waiting Locate and reports whether anyone
// was waiting.
func (l *BrowserLocator) Report(coords data.Coordinates, err error) bool {
	r := locationReport{coords: coords, err: err}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.waiters) == 0 {
		l.pending = &r
		return false
	}
	for ch := range l.waiters {
		ch <- r
		delete(l.waiters, ch)
	}
	return true
}

// Waiting reports whether a Locate is currently blocked on the page.
func (l *BrowserLocator) Waiting() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.waiters) > 0
}
