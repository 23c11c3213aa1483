package notify

import (
	"context"

	"github.com/microsoft/ApplicationInsights-Go/appinsights"
	"github.com/stuartleeks/home-dash/weather-dash/dashboard"
	"go.uber.org/zap"
)

// Multi fans a notice out to every non-nil notifier in order.
type Multi []dashboard.Notifier

func (m Multi) Notify(ctx context.Context, n dashboard.Notice) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}

type Log struct {
	logger *zap.SugaredLogger
}

func NewLog(logger *zap.SugaredLogger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(_ context.Context, n dashboard.Notice) {
	if n.Destructive {
		l.logger.Warnw(n.Title, "kind", n.Kind, "description", n.Description, "id", n.ID)
		return
	}
	l.logger.Infow(n.Title, "kind", n.Kind, "description", n.Description, "id", n.ID)
}

// Telemetry records each notice as an Application Insights custom event.
type Telemetry struct {
	client appinsights.TelemetryClient
}

func NewTelemetry(client appinsights.TelemetryClient) *Telemetry {
	return &Telemetry{client: client}
}

func (t *Telemetry) Notify(_ context.Context, n dashboard.Notice) {
	e := appinsights.NewEventTelemetry("notice")
	e.Properties["kind"] = string(n.Kind)
	e.Properties["title"] = n.Title
	e.Properties["destructive"] = boolString(n.Destructive)
	e.Properties["notice-id"] = n.ID
	t.client.Track(e)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
