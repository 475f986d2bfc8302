package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/larderhq/larder-go/config"
	"github.com/larderhq/larder-go/internal/adapters/realtime"
	"github.com/larderhq/larder-go/internal/data"
	"github.com/larderhq/larder-go/internal/observability/metrics"
	"github.com/larderhq/larder-go/internal/ports"
	"github.com/larderhq/larder-go/internal/service"
)

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config        *config.AppConfig
	DB            *sql.DB
	NATSConn      *nats.Conn // optional; enables realtime invalidation
	Provider      ports.IdentityProvider
	ProviderClose func()
	Logger        *slog.Logger
}

// ServiceContainer holds the wired application services and owns their
// lifecycle. Start brings the engine (and optional realtime refresher) up;
// Shutdown tears everything down in dependency order.
type ServiceContainer struct {
	Engine   *service.SessionEngine
	Profiles *service.ProfileService
	Shopping *service.ShoppingService

	// MetricsHandler serves the Prometheus registry; nil when metrics are
	// disabled.
	MetricsHandler http.Handler

	provider      ports.IdentityProvider
	providerClose func()
	bus           ports.MetadataBus
	logger        *slog.Logger

	refresherCancel context.CancelFunc
	refresherDone   chan struct{}

	shutdownOnce sync.Once
}

// repositories groups the data adapters backing the service ports.
type repositories struct {
	Profiles   *data.ProfileRepo
	Households *data.HouseholdRepo
	Shopping   *data.ShoppingRepo
}

func buildRepositories(db *sql.DB) repositories {
	return repositories{
		Profiles:   data.NewProfileRepo(db),
		Households: data.NewHouseholdRepo(db),
		Shopping:   data.NewShoppingRepo(db),
	}
}

// buildMetrics creates the engine metrics collector and its HTTP handler.
// Returns nils when metrics are disabled.
func buildMetrics(cfg config.ObservabilityMetricsConfig) (*metrics.Collector, http.Handler) {
	if !cfg.Enabled {
		return nil, nil
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return collector, handler
}

// BuildServices wires repositories, the session engine, and the domain
// services. The engine is constructed but not started; call Start.
func BuildServices(deps ServiceDeps) (*ServiceContainer, error) {
	if deps.Config == nil {
		return nil, errors.New("config is required")
	}
	if deps.DB == nil {
		return nil, errors.New("database connection is required")
	}
	if deps.Provider == nil {
		return nil, errors.New("identity provider is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	repos := buildRepositories(deps.DB)
	collector, metricsHandler := buildMetrics(deps.Config.Observability.Metrics)

	var sink metrics.Sink
	if collector != nil {
		sink = collector
	}

	engine, err := service.NewSessionEngine(service.SessionEngineOptions{
		Provider:         deps.Provider,
		Profiles:         repos.Profiles,
		Households:       repos.Households,
		HydrationTimeout: deps.Config.Engine.HydrationTimeout,
		Metrics:          sink,
		Logger:           logger,
	})
	if err != nil {
		return nil, err
	}

	container := &ServiceContainer{
		Engine: engine,
		Profiles: service.NewProfileService(service.ProfileServiceOptions{
			Store:  repos.Profiles,
			Engine: engine,
		}),
		Shopping: service.NewShoppingService(service.ShoppingServiceOptions{
			Store:  repos.Shopping,
			Engine: engine,
		}),
		MetricsHandler: metricsHandler,
		provider:       deps.Provider,
		providerClose:  deps.ProviderClose,
		logger:         logger,
	}

	if deps.NATSConn != nil && deps.Config.Realtime.Enabled() {
		container.bus = realtime.NewBus(deps.NATSConn, deps.Config.Realtime.SubjectPrefix, logger)
	}

	return container, nil
}

// Start performs the engine's initial session read and, when realtime is
// configured, launches the metadata refresher.
func (c *ServiceContainer) Start(ctx context.Context) error {
	if err := c.Engine.Start(ctx); err != nil {
		return err
	}

	if c.bus != nil {
		refresher := realtime.NewRefresher(c.bus, c.Engine, c.logger)
		runCtx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		c.refresherCancel = cancel
		c.refresherDone = done

		go func() {
			defer close(done)
			if err := refresher.Run(runCtx); err != nil {
				c.logger.Error("realtime refresher stopped", "error", err)
			}
		}()
		c.logger.Info("realtime invalidation enabled")
	}

	return nil
}

// Shutdown stops the refresher, closes the engine, and releases the provider,
// in that order. Safe to call more than once.
func (c *ServiceContainer) Shutdown() {
	c.shutdownOnce.Do(func() {
		if c.refresherCancel != nil {
			c.refresherCancel()
			<-c.refresherDone
		}
		c.Engine.Close()
		if c.providerClose != nil {
			c.providerClose()
		}
	})
}
