package config

import (
	"testing"
	"time"
)

func TestGetLocatorDefaultsFromCoordinates(t *testing.T) {
	t.Setenv("LOCATOR", "")
	t.Setenv("WEATHER_LAT", "")
	t.Setenv("WEATHER_LON", "")
	if got := GetLocator(); got != LOCATOR_BROWSER {
		t.Fatalf("expected browser locator, got %q", got)
	}

	t.Setenv("WEATHER_LAT", "37.0")
	t.Setenv("WEATHER_LON", "-122.0")
	if got := GetLocator(); got != LOCATOR_STATIC {
		t.Fatalf("expected static locator, got %q", got)
	}

	t.Setenv("LOCATOR", LOCATOR_BROWSER)
	if got := GetLocator(); got != LOCATOR_BROWSER {
		t.Fatalf("explicit LOCATOR ignored, got %q", got)
	}
}

func TestGetStaticLocationRejectsGarbage(t *testing.T) {
	t.Setenv("WEATHER_LAT", "north")
	t.Setenv("WEATHER_LON", "-122")
	if _, _, ok := GetStaticLocation(); ok {
		t.Fatalf("expected invalid latitude to be rejected")
	}
}

func TestDurations(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", time.Second},
		{"250ms", 250 * time.Millisecond},
		{"2", 2 * time.Second},
		{"soon", time.Second},
	}
	for _, tt := range tests {
		t.Setenv("FETCH_DELAY", tt.value)
		if got := GetFetchDelay(); got != tt.want {
			t.Errorf("FETCH_DELAY=%q: got %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestPlaceholderPath(t *testing.T) {
	t.Setenv("PLACEHOLDER_FILE", "")
	if got := GetPlaceholderFilePath(); got != "placeholder.json" {
		t.Fatalf("unexpected default %q", got)
	}
	t.Setenv("PLACEHOLDER_FILE", "/srv/dash/fixture.json")
	if got := GetPlaceholderFilePath(); got != "/srv/dash/fixture.json" {
		t.Fatalf("override ignored, got %q", got)
	}
}
