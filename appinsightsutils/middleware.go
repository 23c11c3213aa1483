package appinsightsutils

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/microsoft/ApplicationInsights-Go/appinsights"
)

type telemetryKey struct{}

// Middleware tracks every request as Application Insights request telemetry named
// after the matched chi route pattern.
func Middleware(appInsightsClient appinsights.TelemetryClient) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme := "https"
			if r.TLS == nil {
				scheme = "http"
			}
			telemetry := appinsights.NewRequestTelemetry(r.Method, fmt.Sprintf("%s://%s%s", scheme, r.Host, r.URL.Path), 0*time.Second, "200")
			startTime := time.Now().UTC()

			wrappedResponseWriter := NewResponseWriterWithStatusCode(w)
			next.ServeHTTP(wrappedResponseWriter, r.WithContext(context.WithValue(r.Context(), telemetryKey{}, telemetry)))

			telemetry.Duration = time.Since(startTime)
			telemetry.ResponseCode = fmt.Sprintf("%d", wrappedResponseWriter.StatusCode())
			telemetry.Name = r.Method + " " + r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				telemetry.Name = r.Method + " " + rctx.RoutePattern()
			}

			appInsightsClient.Track(telemetry)
		})
	}
}

// RequestTelemetry returns the telemetry for the current request so handlers can add
// properties. Outside the middleware it returns a throwaway value.
func RequestTelemetry(ctx context.Context) *appinsights.RequestTelemetry {
	if t, ok := ctx.Value(telemetryKey{}).(*appinsights.RequestTelemetry); ok {
		return t
	}
	return appinsights.NewRequestTelemetry("", "", 0, "")
}
