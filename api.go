package main

import (
	"bytes"
	"crypto/sha1"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"image/jpeg"
	"math"
	"net/http"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/go-chi/chi/v5"
	"github.com/microsoft/ApplicationInsights-Go/appinsights"
	"github.com/stuartleeks/home-dash/weather-dash/appinsightsutils"
	"github.com/stuartleeks/home-dash/weather-dash/dashboard"
	"github.com/stuartleeks/home-dash/weather-dash/data"
	"github.com/stuartleeks/home-dash/weather-dash/metrics"
	"github.com/stuartleeks/home-dash/weather-dash/view"
	"go.uber.org/zap"
)

//go:embed templates/index.html
var indexTemplateText string

var indexTemplate = template.Must(template.New("index").Parse(indexTemplateText))

type ApiRouter struct {
	appInsightsClient appinsights.TelemetryClient
	dashboard         *dashboard.Dashboard
	locator           dashboard.Locator
	drawer            *drawer
	hub               http.Handler
	clock             clock.Clock
	logger            *zap.SugaredLogger
	pageCache         *data.Cache[string, view.Page]
}

type ApiRouterOptions struct {
	AppInsightsClient appinsights.TelemetryClient
	Dashboard         *dashboard.Dashboard
	// Locator receives PUT /location reports when it is a *dashboard.BrowserLocator.
	Locator dashboard.Locator
	Drawer  *drawer
	Hub     http.Handler
	Clock   clock.Clock
	Logger  *zap.SugaredLogger
}

func NewApiRouter(opts ApiRouterOptions) *ApiRouter {
	if opts.AppInsightsClient == nil {
		panic("appInsightsClient is required")
	}
	if opts.Dashboard == nil {
		panic("dashboard is required")
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &ApiRouter{
		appInsightsClient: opts.AppInsightsClient,
		dashboard:         opts.Dashboard,
		locator:           opts.Locator,
		drawer:            opts.Drawer,
		hub:               opts.Hub,
		clock:             opts.Clock,
		logger:            opts.Logger,
		pageCache:         data.NewCache[string, view.Page](10*time.Minute, opts.Clock),
	}
}

func (api *ApiRouter) RegisterRoutes(r chi.Router) {
	r.Get("/", api.Index)
	r.Get("/health", api.Health)
	r.Get("/dashboard-data", api.DashboardDataGet)
	r.Get("/dashboard-image", api.DashboardImageGet)
	r.Post("/refresh", api.RefreshPost)
	r.Put("/location", api.LocationPut)
	if api.hub != nil {
		r.Handle("/ws", api.hub)
	}
}

func (api *ApiRouter) page() *view.Page {
	return view.NewPage(api.dashboard.State(), api.clock.Now())
}

type indexModel struct {
	*view.Page
	BrowserLocation bool
}

func (api *ApiRouter) Index(w http.ResponseWriter, r *http.Request) {
	page := api.page()
	_, browser := api.locator.(*dashboard.BrowserLocator)

	buf := new(bytes.Buffer)
	if err := indexTemplate.Execute(buf, indexModel{Page: page, BrowserLocation: browser}); err != nil {
		api.logger.Errorw("failed to render page", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.Render("html", "none")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (api *ApiRouter) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Status string          `json:"status"`
		Phase  dashboard.Phase `json:"phase"`
	}{
		Status: "ok",
		Phase:  api.dashboard.State().Phase,
	})
}

func (api *ApiRouter) DashboardDataGet(w http.ResponseWriter, r *http.Request) {
	page := api.page()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(page); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.Render("json", "none")
}

func (api *ApiRouter) RefreshPost(w http.ResponseWriter, r *http.Request) {
	api.dashboard.Refresh()
	w.WriteHeader(http.StatusAccepted)
}

type locationReport struct {
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Error string   `json:"error"`
}

func (api *ApiRouter) LocationPut(w http.ResponseWriter, r *http.Request) {
	browser, ok := api.locator.(*dashboard.BrowserLocator)
	if !ok {
		http.Error(w, "location is not reported by the browser", http.StatusConflict)
		return
	}

	var report locationReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var (
		coords data.Coordinates
		err    error
	)
	switch {
	case report.Error == "denied":
		err = dashboard.ErrPermissionDenied
	case report.Error == "unsupported":
		err = dashboard.ErrUnsupported
	case report.Error != "":
		http.Error(w, fmt.Sprintf("unknown location error %q", report.Error), http.StatusBadRequest)
		return
	case report.Lat == nil || report.Lon == nil:
		http.Error(w, "lat and lon are required", http.StatusBadRequest)
		return
	default:
		coords = data.Coordinates{Lat: *report.Lat, Lon: *report.Lon}
	}

	telemetry := appinsightsutils.RequestTelemetry(r.Context())
	if err != nil {
		telemetry.Properties["location-error"] = report.Error
	}

	if !browser.Report(coords, err) {
		// nobody was waiting; the report is kept for the next locate
		api.logger.Infow("late location report", "error", err)
		api.dashboard.LocationReported()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *ApiRouter) trackCacheEvent(cacheHit bool, reason string) {
	e := appinsights.NewEventTelemetry("cache-hit")
	e.Properties["cache-hit"] = fmt.Sprintf("%t", cacheHit)
	e.Properties["reason"] = reason
	api.appInsightsClient.Track(e)
}

func (api *ApiRouter) DashboardImageGet(w http.ResponseWriter, r *http.Request) {
	telemetry := appinsightsutils.RequestTelemetry(r.Context())
	logger := api.logger.With("handler", "DashboardImageGet")

	actionId := r.Header.Get("action-id")
	if actionId != "" {
		logger.Infow("action requested", "action-id", actionId)
		telemetry.Properties["action-id"] = actionId
		if actionId != view.ACTION_REFRESH {
			http.Error(w, fmt.Sprintf("unknown action %q", actionId), http.StatusBadRequest)
			return
		}
		// render what the refresh produced, unless the client gives up first
		select {
		case <-api.dashboard.Refresh():
		case <-r.Context().Done():
			return
		}
	}

	ifNoneMatch := r.Header.Get("If-None-Match")
	if ifNoneMatch != "" {
		telemetry.Properties["If-None-Match"] = ifNoneMatch
	}

	page := api.page()

	minsToSleep := minutesToSleep(page.GeneratedAt)
	telemetry.Properties["mins-to-sleep"] = fmt.Sprintf("%d", minsToSleep)
	w.Header().Set("mins-to-sleep", fmt.Sprintf("%d", minsToSleep))

	if ifNoneMatch != "" && actionId == "" {
		// Only reuse the client's image when it isn't asking for an action
		if cachedPage := api.pageCache.Get(ifNoneMatch); cachedPage != nil {
			reason := checkForSignificantChange(cachedPage, page)
			if reason == "" {
				api.trackCacheEvent(true, "no-significant-change")
				metrics.Render("jpeg", "hit")
				w.Header().Set("Etag", ifNoneMatch)
				w.WriteHeader(http.StatusNotModified)
				return
			}
			logger.Infow("significant change in data", "reason", reason)
			api.trackCacheEvent(false, reason)
			telemetry.Properties["cache-invalid"] = reason
		} else {
			api.trackCacheEvent(false, "no cached data")
		}
	} else if actionId != "" {
		api.trackCacheEvent(false, fmt.Sprintf("Got action-id: %s", actionId))
	} else {
		api.trackCacheEvent(false, "If-None-Match header not set")
	}

	if api.drawer == nil {
		http.Error(w, "image rendering is not configured", http.StatusInternalServerError)
		return
	}
	dc, err := api.drawer.drawDashboardImage(page)
	if err != nil {
		logger.Errorw("failed to draw dashboard", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// The hash sets the etag header so the image is buffered before writing
	buf := new(bytes.Buffer)
	if err = dc.EncodeJPG(buf, &jpeg.Options{Quality: 100}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	bufBytes := buf.Bytes()

	hash := sha1.New()
	hash.Write(bufBytes)
	hashValue := fmt.Sprintf("%x", hash.Sum(nil))

	api.pageCache.Set(hashValue, page)
	telemetry.Properties["Etag"] = hashValue
	metrics.Render("jpeg", "miss")

	actionIDs := []string{}
	for _, action := range page.Actions {
		actionIDs = append(actionIDs, action.ID)
	}
	actionIDsEncoded, err := json.Marshal(actionIDs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Etag", hashValue)
	w.Header().Set("actions", string(actionIDsEncoded))
	_, _ = w.Write(bufBytes)
}

// minutesToSleep tells e-ink panels how long to wait before polling again. Overnight
// they sleep until 6am.
func minutesToSleep(now time.Time) int {
	minsToSleep := 5
	currentHour := now.Hour()
	if currentHour >= 22 || currentHour < 6 {
		minsToSleep = 60 * (6 - currentHour)
		if minsToSleep < 0 {
			minsToSleep += 24 * 60
		}
	}
	return minsToSleep
}

// checkForSignificantChange returns why newPage should be redrawn, or "" when the image
// rendered from oldPage is still good.
func checkForSignificantChange(oldPage *view.Page, newPage *view.Page) string {
	if oldPage == nil {
		return "oldPage is nil"
	}

	if newPage.GeneratedAt.Sub(oldPage.GeneratedAt) > 30*time.Minute {
		return "generatedAt is more than 30 minutes apart"
	}
	if oldPage.DateString != newPage.DateString {
		return "date has changed"
	}

	if oldPage.Phase != newPage.Phase {
		return "phase has changed"
	}
	if oldPage.Loading != newPage.Loading {
		return "loading has changed"
	}

	if (oldPage.Current == nil) != (newPage.Current == nil) {
		return "weather availability has changed"
	}
	if oldPage.Current != nil && oldPage.Current.Location != newPage.Current.Location {
		return "location has changed"
	}
	if oldPage.Condition != newPage.Condition {
		return "condition has changed"
	}
	if math.Abs(oldPage.Temperature-newPage.Temperature) > 0.5 {
		return "temperature has changed"
	}
	if !sameForecast(oldPage.Weekly, newPage.Weekly) {
		return "forecast has changed"
	}

	return ""
}

func sameForecast(a []view.DayCell, b []view.DayCell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Date != b[i].Date || a[i].Label != b[i].Label ||
			a[i].High != b[i].High || a[i].Low != b[i].Low ||
			a[i].Condition != b[i].Condition {
			return false
		}
	}
	return true
}
