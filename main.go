package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/microsoft/ApplicationInsights-Go/appinsights"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stuartleeks/home-dash/weather-dash/appinsightsutils"
	"github.com/stuartleeks/home-dash/weather-dash/config"
	"github.com/stuartleeks/home-dash/weather-dash/dashboard"
	"github.com/stuartleeks/home-dash/weather-dash/data"
	"github.com/stuartleeks/home-dash/weather-dash/live"
	"github.com/stuartleeks/home-dash/weather-dash/notify"
	"github.com/stuartleeks/home-dash/weather-dash/view"
	"go.uber.org/zap"
)

func main() {
	fmt.Printf("Server starting...[%d]\n", os.Getpid())

	_, err := os.Stat(".env")
	if err == nil {
		err := godotenv.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error loading .env file")
			os.Exit(1)
		}
	}

	logger, err := newLogger(config.GetLogLevel())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Infow("configuration",
		"dashboardInputDir", config.GetDashboardInfoPath(),
		"placeholderFile", config.GetPlaceholderFilePath(),
		"locator", config.GetLocator())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := serveAPI(ctx, ":"+config.GetPort(), logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorw("server failed", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server stopped!")
}

func newLogger(level string) (*zap.SugaredLogger, error) {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = atomicLevel
	baseLogger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return baseLogger.Sugar().With("service", "weather-dash"), nil
}

func newAppInsightsClient(logger *zap.SugaredLogger) appinsights.TelemetryClient {
	appInsightsInstrumentationKey := config.GetApplicationInsightsInstrumentationKey()
	if appInsightsInstrumentationKey == "" {
		logger.Infow("application insights instrumentation key not set, telemetry disabled")
		client := appinsights.NewTelemetryClient("")
		client.SetIsEnabled(false)
		return client
	}

	telemetryConfig := appinsights.NewTelemetryConfiguration(appInsightsInstrumentationKey)
	// Configure how many items can be sent in one call to the data collector:
	telemetryConfig.MaxBatchSize = 8192
	// Configure the maximum delay before sending queued telemetry:
	telemetryConfig.MaxBatchInterval = 2 * time.Second

	appInsightsClient := appinsights.NewTelemetryClientFromConfig(telemetryConfig)
	appInsightsClient.Context().Tags.Cloud().SetRole("weather-dash")
	return appInsightsClient
}

func newLocator() dashboard.Locator {
	if config.GetLocator() == config.LOCATOR_STATIC {
		lat, lon, ok := config.GetStaticLocation()
		if !ok {
			// configured as static without coordinates: geolocation is unavailable
			return dashboard.NewStaticLocator(nil)
		}
		return dashboard.NewStaticLocator(&data.Coordinates{Lat: lat, Lon: lon})
	}
	return dashboard.NewBrowserLocator()
}

func newNotifier(appInsightsClient appinsights.TelemetryClient, logger *zap.SugaredLogger) dashboard.Notifier {
	notifiers := notify.Multi{
		notify.NewLog(logger),
		notify.NewTelemetry(appInsightsClient),
	}
	if broker := config.GetMQTTBroker(); broker != "" {
		publisher, err := notify.ConnectMQTT(broker, logger)
		if err != nil {
			logger.Warnw("mqtt unavailable, notices will not be published", "error", err)
		} else {
			notifiers = append(notifiers, notify.NewMQTT(publisher, config.GetMQTTTopic(), logger))
		}
	}
	return notifiers
}

func serveAPI(ctx context.Context, address string, logger *zap.SugaredLogger) error {
	logger.Infow("listening", "address", address)
	l, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	clk := clock.NewClock()
	appInsightsClient := newAppInsightsClient(logger)

	placeholderFile := config.GetPlaceholderFilePath()
	loadPlaceholder := func() (data.WeatherData, []data.ForecastData, error) {
		return data.LoadPlaceholder(placeholderFile)
	}
	source := dashboard.NewRateLimitedSource(
		dashboard.NewPlaceholderSource(clk, config.GetFetchDelay(), loadPlaceholder),
		config.GetFetchRatePerSecond(),
		config.GetFetchBurst(),
	)

	locator := newLocator()
	dash := dashboard.New(dashboard.Options{
		Locator:  locator,
		Source:   source,
		Notifier: newNotifier(appInsightsClient, logger),
		Placeholder: func() (data.WeatherData, []data.ForecastData) {
			weather, forecast, err := loadPlaceholder()
			if err != nil {
				logger.Warnw("failed to load placeholder file, using built-in data", "file", placeholderFile, "error", err)
				return data.PlaceholderWeather(), data.PlaceholderForecast()
			}
			return weather, forecast
		},
		Clock:         clk,
		Logger:        logger.Named("dashboard"),
		LocateTimeout: config.GetLocateTimeout(),
	})

	hub := live.NewHub(func() any {
		return view.NewPage(dash.State(), clk.Now())
	}, logger.Named("live"))
	go hub.Run(ctx, pageUpdates(ctx, dash, clk))

	drawer, err := newDrawer(config.GetFontFile(), config.GetIconsDir())
	if err != nil {
		return err
	}

	api := NewApiRouter(ApiRouterOptions{
		AppInsightsClient: appInsightsClient,
		Dashboard:         dash,
		Locator:           locator,
		Drawer:            drawer,
		Hub:               hub,
		Clock:             clk,
		Logger:            logger.Named("api"),
	})

	server := &http.Server{
		Addr:    address,
		Handler: newRouter(api, appInsightsClient),
	}

	dash.Start(ctx)

	go func() {
		<-ctx.Done()
		logger.Infow("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		select {
		case <-appInsightsClient.Channel().Close(5 * time.Second):
		case <-time.After(10 * time.Second):
		}
	}()
	return server.Serve(l)
}

func newRouter(api *ApiRouter, appInsightsClient appinsights.TelemetryClient) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "If-None-Match", "action-id"},
		ExposedHeaders: []string{"Etag", "actions", "mins-to-sleep"},
		MaxAge:         300,
	}))
	r.Use(appinsightsutils.Middleware(appInsightsClient))

	r.Handle("/metrics", promhttp.Handler())
	api.RegisterRoutes(r)
	return r
}

// pageUpdates turns dashboard state changes into page models for the live hub.
func pageUpdates(ctx context.Context, dash *dashboard.Dashboard, clk clock.Clock) <-chan any {
	states, unsubscribe := dash.Subscribe()
	pages := make(chan any)
	go func() {
		defer close(pages)
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case s, ok := <-states:
				if !ok {
					return
				}
				select {
				case pages <- view.NewPage(s, clk.Now()):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return pages
}
