package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/microsoft/ApplicationInsights-Go/appinsights"
	"github.com/stuartleeks/home-dash/weather-dash/dashboard"
	"github.com/stuartleeks/home-dash/weather-dash/data"
	"github.com/stuartleeks/home-dash/weather-dash/view"
)

type fakeTelemetryClient struct {
	appinsights.TelemetryClient
	mu      sync.Mutex
	tracked []appinsights.Telemetry
}

func (c *fakeTelemetryClient) Track(t appinsights.Telemetry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracked = append(c.tracked, t)
}

func (c *fakeTelemetryClient) cacheHits() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	hits := []string{}
	for _, t := range c.tracked {
		if e, ok := t.(*appinsights.EventTelemetry); ok && e.Name == "cache-hit" {
			hits = append(hits, e.Properties["cache-hit"])
		}
	}
	return hits
}

type deniedLocator struct{}

func (deniedLocator) Available() bool { return true }
func (deniedLocator) Locate(context.Context) (data.Coordinates, error) {
	return data.Coordinates{}, dashboard.ErrPermissionDenied
}

func newTestServer(t *testing.T, locator dashboard.Locator, locateTimeout time.Duration) (*httptest.Server, *dashboard.Dashboard, *fakeTelemetryClient) {
	t.Helper()
	dash := dashboard.New(dashboard.Options{
		Locator:       locator,
		Source:        dashboard.NewPlaceholderSource(nil, 0, nil),
		LocateTimeout: locateTimeout,
	})
	drawer, err := newDrawer("", "")
	if err != nil {
		t.Fatalf("newDrawer: %v", err)
	}
	client := &fakeTelemetryClient{}
	api := NewApiRouter(ApiRouterOptions{
		AppInsightsClient: client,
		Dashboard:         dash,
		Locator:           locator,
		Drawer:            drawer,
		Clock:             fakeclock.NewFakeClock(time.Date(2024, 1, 27, 9, 0, 0, 0, time.UTC)),
	})
	server := httptest.NewServer(newRouter(api, client))
	t.Cleanup(server.Close)
	return server, dash, client
}

func waitForPhase(t *testing.T, dash *dashboard.Dashboard, phase dashboard.Phase) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if dash.State().Phase == phase {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("phase never became %s, is %s", phase, dash.State().Phase)
}

func do(t *testing.T, method string, url string, body string, headers map[string]string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body == "" {
		req, err = http.NewRequest(method, url, nil)
	} else {
		req, err = http.NewRequest(method, url, strings.NewReader(body))
	}
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestIndexShowsLoadingViewBeforeStart(t *testing.T) {
	server, _, _ := newTestServer(t, deniedLocator{}, 0)

	resp := do(t, http.MethodGet, server.URL+"/", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	buf := new(strings.Builder)
	_, _ = io.Copy(buf, resp.Body)
	if !strings.Contains(buf.String(), "Loading weather data...") {
		t.Fatalf("expected loading view")
	}
}

func TestIndexShowsDashboardAndToasts(t *testing.T) {
	server, dash, _ := newTestServer(t, deniedLocator{}, 0)
	<-dash.Start(context.Background())

	resp := do(t, http.MethodGet, server.URL+"/", "", nil)
	buf := new(strings.Builder)
	_, _ = io.Copy(buf, resp.Body)
	page := buf.String()

	// the router clock sits on the first placeholder forecast day
	for _, want := range []string{"San Francisco, CA", "Weekly Forecast", "Location access denied", "Today", "Tomorrow"} {
		if !strings.Contains(page, want) {
			t.Errorf("page is missing %q", want)
		}
	}
	if strings.Contains(page, "Loading weather data...") {
		t.Errorf("loading view shown after settling")
	}
}

func TestDashboardDataGet(t *testing.T) {
	server, dash, _ := newTestServer(t, deniedLocator{}, 0)
	<-dash.Start(context.Background())

	resp := do(t, http.MethodGet, server.URL+"/dashboard-data", "", nil)
	var page view.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Phase != dashboard.PHASE_FALLBACK || page.Loading {
		t.Fatalf("unexpected phase %s", page.Phase)
	}
	if page.Current == nil || page.Current.Temperature != 22 || len(page.Weekly) != 5 {
		t.Fatalf("unexpected page %+v", page)
	}
	if len(page.Stats) != 4 || page.Stats[0].Label != "Wind Speed" {
		t.Fatalf("unexpected stats %+v", page.Stats)
	}
}

func TestDashboardImageEtagReuse(t *testing.T) {
	server, dash, client := newTestServer(t, deniedLocator{}, 0)
	<-dash.Start(context.Background())

	resp := do(t, http.MethodGet, server.URL+"/dashboard-image", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Fatalf("content type = %q", ct)
	}
	if got := resp.Header.Get("mins-to-sleep"); got != "5" {
		t.Fatalf("mins-to-sleep = %q", got)
	}
	if got := resp.Header.Get("actions"); got != `["refresh"]` {
		t.Fatalf("actions = %q", got)
	}
	etag := resp.Header.Get("Etag")
	if etag == "" {
		t.Fatalf("expected an etag")
	}

	resp = do(t, http.MethodGet, server.URL+"/dashboard-image", "", map[string]string{"If-None-Match": etag})
	if resp.StatusCode != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, server.URL+"/dashboard-image", "", map[string]string{"If-None-Match": "unknown"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected a fresh image for an unknown etag, got %d", resp.StatusCode)
	}

	if hits := client.cacheHits(); strings.Join(hits, ",") != "false,true,false" {
		t.Fatalf("cache events = %v", hits)
	}
}

func TestDashboardImageRefreshAction(t *testing.T) {
	locator := &countingLocator{}
	server, dash, _ := newTestServer(t, locator, 0)
	<-dash.Start(context.Background())

	resp := do(t, http.MethodGet, server.URL+"/dashboard-image", "", map[string]string{"action-id": "refresh"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if locator.Calls() != 2 {
		t.Fatalf("expected the refresh to re-locate, got %d locates", locator.Calls())
	}

	resp = do(t, http.MethodGet, server.URL+"/dashboard-image", "", map[string]string{"action-id": "explode"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown action, got %d", resp.StatusCode)
	}
}

type countingLocator struct {
	mu    sync.Mutex
	calls int
}

func (l *countingLocator) Available() bool { return true }
func (l *countingLocator) Locate(context.Context) (data.Coordinates, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return data.Coordinates{}, dashboard.ErrPermissionDenied
}
func (l *countingLocator) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func TestRefreshPost(t *testing.T) {
	locator := &countingLocator{}
	server, dash, _ := newTestServer(t, locator, 0)
	<-dash.Start(context.Background())

	resp := do(t, http.MethodPost, server.URL+"/refresh", "", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	deadline := time.Now().Add(5 * time.Second)
	for locator.Calls() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if locator.Calls() != 2 {
		t.Fatalf("expected a second locate, got %d", locator.Calls())
	}
}

func TestLocationPutRequiresBrowserLocator(t *testing.T) {
	server, _, _ := newTestServer(t, dashboard.NewStaticLocator(&data.Coordinates{Lat: 1, Lon: 2}), 0)

	resp := do(t, http.MethodPut, server.URL+"/location", `{"lat":1,"lon":2}`, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestLocationPutRejectsBadBodies(t *testing.T) {
	server, _, _ := newTestServer(t, dashboard.NewBrowserLocator(), 0)

	for _, body := range []string{`not json`, `{"lat":1}`, `{"error":"sideways"}`} {
		resp := do(t, http.MethodPut, server.URL+"/location", body, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestLocationPutDeliversToWaitingLocate(t *testing.T) {
	locator := dashboard.NewBrowserLocator()
	server, dash, _ := newTestServer(t, locator, 0)
	done := dash.Start(context.Background())

	deadline := time.Now().Add(5 * time.Second)
	for !locator.Waiting() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	resp := do(t, http.MethodPut, server.URL+"/location", `{"lat":37.0,"lon":-122.0}`, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	<-done

	s := dash.State()
	if s.Phase != dashboard.PHASE_LOADED || s.Location == nil || s.Location.Lat != 37.0 {
		t.Fatalf("unexpected state %s %+v", s.Phase, s.Location)
	}
}

func TestLocationPutDenied(t *testing.T) {
	locator := dashboard.NewBrowserLocator()
	server, dash, _ := newTestServer(t, locator, 0)
	done := dash.Start(context.Background())

	deadline := time.Now().Add(5 * time.Second)
	for !locator.Waiting() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	do(t, http.MethodPut, server.URL+"/location", `{"error":"denied"}`, nil)
	<-done

	s := dash.State()
	if s.Phase != dashboard.PHASE_FALLBACK {
		t.Fatalf("expected fallback, got %s", s.Phase)
	}
	if last := s.Notices[len(s.Notices)-1]; last.Kind != dashboard.NOTICE_LOCATION_DENIED {
		t.Fatalf("unexpected notice %+v", last)
	}
}

func waitForLocateWaiting(t *testing.T, locator *dashboard.BrowserLocator) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !locator.Waiting() {
		if time.Now().After(deadline) {
			t.Fatalf("locate never started waiting for a report")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRefreshAfterDenialAsksForLocationAgain(t *testing.T) {
	locator := dashboard.NewBrowserLocator()
	server, dash, _ := newTestServer(t, locator, 30*time.Second)
	done := dash.Start(context.Background())

	waitForLocateWaiting(t, locator)
	do(t, http.MethodPut, server.URL+"/location", `{"error":"denied"}`, nil)
	wait := func(done <-chan struct{}) {
		t.Helper()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("sequence did not settle before the locate timeout")
		}
	}
	wait(done)
	if s := dash.State(); s.Phase != dashboard.PHASE_FALLBACK {
		t.Fatalf("expected fallback after denial, got %s", s.Phase)
	}

	resp := do(t, http.MethodPost, server.URL+"/refresh", "", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	waitForLocateWaiting(t, locator)

	// the page rendered while locating asks the browser for a position again
	resp = do(t, http.MethodGet, server.URL+"/", "", nil)
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `data-phase="locating"`) || !strings.Contains(string(body), "getCurrentPosition") {
		t.Fatalf("locating page does not request geolocation")
	}
	if strings.Contains(string(body), "sessionStorage") {
		t.Fatalf("geolocation request must not be limited to once per session")
	}

	resp = do(t, http.MethodPut, server.URL+"/location", `{"lat":48.8,"lon":2.3}`, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	waitForPhase(t, dash, dashboard.PHASE_LOADED)

	s := dash.State()
	if s.Location == nil || s.Location.Lat != 48.8 {
		t.Fatalf("fresh coordinates not used: %+v", s.Location)
	}
	if last := s.Notices[len(s.Notices)-1]; last.Kind != dashboard.NOTICE_FETCH_SUCCEEDED {
		t.Fatalf("unexpected last notice %+v", last)
	}
	denials := 0
	for _, n := range s.Notices {
		if n.Kind == dashboard.NOTICE_LOCATION_DENIED {
			denials++
		}
	}
	if denials != 1 {
		t.Fatalf("expected a single denial notice, got %d", denials)
	}
}

func TestLateLocationReportRelocates(t *testing.T) {
	locator := dashboard.NewBrowserLocator()
	server, dash, _ := newTestServer(t, locator, 10*time.Millisecond)
	<-dash.Start(context.Background())
	if dash.State().Phase != dashboard.PHASE_FALLBACK {
		t.Fatalf("expected the locate to time out into fallback")
	}

	resp := do(t, http.MethodPut, server.URL+"/location", `{"lat":51.5,"lon":-0.1}`, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	waitForPhase(t, dash, dashboard.PHASE_LOADED)
	if s := dash.State(); s.Location == nil || s.Location.Lat != 51.5 {
		t.Fatalf("late coordinates not used: %+v", s.Location)
	}
}

func TestHealth(t *testing.T) {
	server, _, _ := newTestServer(t, deniedLocator{}, 0)
	resp := do(t, http.MethodGet, server.URL+"/health", "", nil)
	var body struct {
		Status string `json:"status"`
		Phase  string `json:"phase"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Phase != string(dashboard.PHASE_IDLE) {
		t.Fatalf("unexpected health %+v", body)
	}
}

func TestMinutesToSleep(t *testing.T) {
	tests := []struct {
		hour int
		want int
	}{
		{9, 5},
		{21, 5},
		{22, 8 * 60},
		{23, 7 * 60},
		{0, 6 * 60},
		{5, 60},
		{6, 5},
	}
	for _, tt := range tests {
		now := time.Date(2024, 1, 27, tt.hour, 0, 0, 0, time.UTC)
		if got := minutesToSleep(now); got != tt.want {
			t.Errorf("hour %d: got %d, want %d", tt.hour, got, tt.want)
		}
	}
}

func TestCheckForSignificantChange(t *testing.T) {
	now := time.Date(2024, 1, 27, 9, 0, 0, 0, time.UTC)
	state := dashboard.State{
		Phase:    dashboard.PHASE_LOADED,
		Forecast: data.PlaceholderForecast(),
	}
	weather := data.PlaceholderWeather()
	state.Weather = &weather
	base := view.NewPage(state, now)

	if reason := checkForSignificantChange(base, view.NewPage(state, now.Add(10*time.Minute))); reason != "" {
		t.Fatalf("unexpected change %q", reason)
	}
	if reason := checkForSignificantChange(nil, base); reason == "" {
		t.Fatalf("expected nil cache entry to be significant")
	}
	if reason := checkForSignificantChange(base, view.NewPage(state, now.Add(31*time.Minute))); reason == "" {
		t.Fatalf("expected stale image to be significant")
	}

	warmer := weather
	warmer.Temperature = 22.4
	state.Weather = &warmer
	if reason := checkForSignificantChange(base, view.NewPage(state, now)); reason != "" {
		t.Fatalf("small temperature change should not redraw, got %q", reason)
	}
	warmer.Temperature = 23
	if reason := checkForSignificantChange(base, view.NewPage(state, now)); reason != "temperature has changed" {
		t.Fatalf("got %q", reason)
	}

	state.Weather = &weather
	state.Phase = dashboard.PHASE_FETCHING
	if reason := checkForSignificantChange(base, view.NewPage(state, now)); reason != "phase has changed" {
		t.Fatalf("got %q", reason)
	}
}
