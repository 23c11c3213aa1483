package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type NoticeKind string

const (
	NOTICE_LOCATION_DETECTED NoticeKind = "location-detected"
	NOTICE_LOCATION_DENIED   NoticeKind = "location-denied"
	NOTICE_UNSUPPORTED       NoticeKind = "geolocation-unsupported"
	NOTICE_FETCH_SUCCEEDED   NoticeKind = "weather-updated"
	NOTICE_FETCH_FAILED      NoticeKind = "fetch-failed"
)

// Notice is a non-blocking toast shown to the user.
type Notice struct {
	ID          string     `json:"id"`
	Kind        NoticeKind `json:"kind"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Destructive bool       `json:"destructive"`
	At          time.Time  `json:"at"`
}

// Notifier receives every notice the dashboard emits. Implementations must not block
// for long; the dashboard calls them inline.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

type NotifierFunc func(ctx context.Context, n Notice)

func (f NotifierFunc) Notify(ctx context.Context, n Notice) {
	f(ctx, n)
}

var noticeText = map[NoticeKind]struct {
	title       string
	description string
	destructive bool
}{
	NOTICE_LOCATION_DETECTED: {"Location detected", "Using your current location for weather data", false},
	NOTICE_LOCATION_DENIED:   {"Location access denied", "Using default location. Please enable location access for accurate weather data.", true},
	NOTICE_UNSUPPORTED:       {"Geolocation not supported", "Your browser doesn't support geolocation. Using default location.", true},
	NOTICE_FETCH_SUCCEEDED:   {"Weather updated", "Successfully fetched latest weather data", false},
	NOTICE_FETCH_FAILED:      {"Error fetching weather", "Unable to fetch weather data. Please try again.", true},
}

func newNotice(kind NoticeKind, at time.Time) Notice {
	text := noticeText[kind]
	return Notice{
		ID:          uuid.NewString(),
		Kind:        kind,
		Title:       text.title,
		Description: text.description,
		Destructive: text.destructive,
		At:          at,
	}
}
