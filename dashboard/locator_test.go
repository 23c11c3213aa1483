package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stuartleeks/home-dash/weather-dash/data"
)

func TestStaticLocator(t *testing.T) {
	l := NewStaticLocator(&data.Coordinates{Lat: 37, Lon: -122})
	if !l.Available() {
		t.Fatalf("expected configured locator to be available")
	}
	coords, err := l.Locate(context.Background())
	if err != nil || coords.Lat != 37 || coords.Lon != -122 {
		t.Fatalf("unexpected result %+v, %v", coords, err)
	}

	empty := NewStaticLocator(nil)
	if empty.Available() {
		t.Fatalf("expected locator without coordinates to be unavailable")
	}
	if _, err := empty.Locate(context.Background()); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestBrowserLocatorDeliversToWaiter(t *testing.T) {
	l := NewBrowserLocator()
	result := make(chan data.Coordinates, 1)
	go func() {
		coords, err := l.Locate(context.Background())
		if err != nil {
			t.Errorf("Locate: %v", err)
		}
		result <- coords
	}()

	deadline := time.Now().Add(5 * time.Second)
	for !l.Waiting() {
		if time.Now().After(deadline) {
			t.Fatalf("Locate never started waiting")
		}
		time.Sleep(time.Millisecond)
	}
	if delivered := l.Report(data.Coordinates{Lat: 51.5, Lon: -0.12}, nil); !delivered {
		t.Fatalf("expected report to reach the waiter")
	}
	if coords := <-result; coords.Lat != 51.5 {
		t.Fatalf("unexpected coordinates %+v", coords)
	}
}

func TestBrowserLocatorKeepsEarlyReport(t *testing.T) {
	l := NewBrowserLocator()
	if delivered := l.Report(data.Coordinates{}, ErrPermissionDenied); delivered {
		t.Fatalf("nobody was waiting")
	}
	if _, err := l.Locate(context.Background()); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected pending denial, got %v", err)
	}
}

func TestBrowserLocatorHonoursContext(t *testing.T) {
	l := NewBrowserLocator()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := l.Locate(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if l.Waiting() {
		t.Fatalf("waiter not removed after timeout")
	}
}
