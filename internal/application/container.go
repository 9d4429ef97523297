// Package application provides application-level services and dependency injection.
package application

import (
	"context"
	"fmt"

	"github.com/jbctechsolutions/tilekit/internal/application/manager"
	"github.com/jbctechsolutions/tilekit/internal/application/observability"
	"github.com/jbctechsolutions/tilekit/internal/application/ports"
	"github.com/jbctechsolutions/tilekit/internal/application/registry"
	"github.com/jbctechsolutions/tilekit/internal/application/shortcut"
	"github.com/jbctechsolutions/tilekit/internal/application/tiling"
	"github.com/jbctechsolutions/tilekit/internal/domain/event"
	"github.com/jbctechsolutions/tilekit/internal/infrastructure/config"
	"github.com/jbctechsolutions/tilekit/internal/infrastructure/logging"
	"github.com/jbctechsolutions/tilekit/internal/infrastructure/metrics"
	"github.com/jbctechsolutions/tilekit/internal/infrastructure/persistence"
	"github.com/jbctechsolutions/tilekit/internal/infrastructure/platform"
	"github.com/jbctechsolutions/tilekit/internal/infrastructure/tracing"
)

// Container holds all application dependencies and provides a central
// point for dependency injection. It manages the lifecycle of services
// and ensures proper initialization order.
type Container struct {
	// Configuration
	config  *config.Config
	verbose bool

	// Persistence
	entityStore *persistence.YAMLStore
	watcher     *persistence.Watcher

	// Metrics
	metricsConn  *metrics.Connection
	metricsStore *metrics.Store
	recorder     *observability.Recorder

	// Observability
	logger *logging.Logger
	tracer *tracing.Tracer

	// Platform adapters
	driver   *platform.SimulatedDriver
	topology *platform.StaticTopology

	// Core services
	registry *registry.Registry
	table    *shortcut.Table
	engine   *tiling.Engine
	manager  *manager.Manager
}

// NewContainer creates a new dependency injection container with all services
// initialized based on the provided configuration.
func NewContainer(ctx context.Context, cfg *config.Config, verbose bool) (*Container, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	c := &Container{
		config:  cfg,
		verbose: verbose,
	}

	if err := c.initObservability(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	if err := c.initServices(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return c, nil
}

// initObservability initializes logging, tracing, and the metrics store.
func (c *Container) initObservability(ctx context.Context) error {
	logLevel := logging.LevelInfo
	if c.verbose {
		logLevel = logging.LevelDebug
	} else {
		switch c.config.Logging.Level {
		case "debug":
			logLevel = logging.LevelDebug
		case "info":
			logLevel = logging.LevelInfo
		case "warn":
			logLevel = logging.LevelWarn
		case "error":
			logLevel = logging.LevelError
		}
	}

	logFormat := logging.FormatText
	if c.config.Logging.Format == "json" {
		logFormat = logging.FormatJSON
	}

	c.logger = logging.New(logging.Config{
		Level:  logLevel,
		Format: logFormat,
	})

	if c.config.Observability.Tracing.Enabled {
		tracer, err := tracing.New(ctx, tracing.Config{
			Enabled:      true,
			ExporterType: tracing.ExporterType(c.config.Observability.Tracing.ExporterType),
			OTLPEndpoint: c.config.Observability.Tracing.OTLPEndpoint,
			ServiceName:  c.config.Observability.Tracing.ServiceName,
			Environment:  "production",
			SampleRate:   c.config.Observability.Tracing.SampleRate,
		})
		if err != nil {
			return fmt.Errorf("failed to create tracer: %w", err)
		}
		c.tracer = tracer
	} else {
		c.tracer = tracing.Default()
	}

	if c.config.Observability.Metrics.Enabled {
		conn, err := metrics.NewConnection(c.config.Observability.Metrics.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to create metrics connection: %w", err)
		}
		if err := conn.Open(); err != nil {
			return fmt.Errorf("failed to open metrics database: %w", err)
		}
		c.metricsConn = conn
		c.metricsStore = metrics.NewStore(conn)

		if removed, err := c.metricsStore.Prune(ctx, c.config.Observability.Metrics.RetentionPeriod); err != nil {
			c.logger.Warn("failed to prune metrics history", "error", err)
		} else if removed > 0 {
			c.logger.Debug("pruned expired metrics records", "removed", removed)
		}
	}
	c.recorder = observability.NewRecorder(c.metricsStoreOrNil(), c.logger)

	return nil
}

// initServices initializes the registry, shortcut table, tiling engine, and
// workspace manager.
func (c *Container) initServices(ctx context.Context) error {
	c.entityStore = persistence.NewYAMLStore(c.config.Persistence.EntitiesDir)
	c.registry = registry.New(c.entityStore, c.logger)
	if err := c.registry.Load(ctx); err != nil {
		return fmt.Errorf("failed to load entity store: %w", err)
	}

	sink := c.eventSink()

	c.table = shortcut.NewTable(c.registry, sink, c.logger)
	if err := c.table.Rebuild(ctx); err != nil {
		return fmt.Errorf("failed to build shortcut table: %w", err)
	}
	if c.config.Shortcuts.InstallDefaults {
		if err := c.table.InstallDefaults(ctx); err != nil {
			return fmt.Errorf("failed to install default shortcuts: %w", err)
		}
	}

	c.driver = platform.NewSimulatedDriver(c.logger)
	c.topology = platform.NewStaticTopology()

	c.engine = tiling.NewEngine(c.registry, c.tracer, c.recorder, sink, c.logger)
	c.manager = manager.New(c.registry, c.engine, c.driver, c.topology,
		c.recorder, sink, c.tracer, c.logger, manager.Config{
			AckBudget:    c.config.Manager.AckBudget,
			RetryBackoff: c.config.Manager.RetryBackoff,
		})

	if c.config.Persistence.WatchExternalEdits {
		if err := c.initStoreWatcher(ctx); err != nil {
			// external-edit reload is best effort
			c.logger.Warn("failed to initialize store watcher", "error", err)
		}
	}

	return nil
}

// initStoreWatcher starts the external-edit reload loop for the entity store.
func (c *Container) initStoreWatcher(ctx context.Context) error {
	watcher, err := persistence.NewWatcher(c.entityStore.Dir(), persistence.WatcherConfig{
		DebounceDuration: c.config.Persistence.WatchDebounce,
	})
	if err != nil {
		return err
	}
	if err := watcher.Watch(ctx); err != nil {
		watcher.Close()
		return err
	}
	c.watcher = watcher

	go func() {
		for range watcher.Events() {
			c.logger.Info("entity store changed on disk, reloading")
			if err := c.registry.Load(ctx); err != nil {
				c.logger.Error("reloading entity store", "error", err)
				continue
			}
			if err := c.table.Rebuild(ctx); err != nil {
				c.logger.Error("rebuilding shortcut table", "error", err)
			}
		}
	}()
	go func() {
		for err := range watcher.Errors() {
			c.logger.Warn("store watcher error", "error", err)
		}
	}()
	return nil
}

// eventSink returns the sink core services publish to. Events surface in the
// structured log; a richer fan-out can replace this without touching the core.
func (c *Container) eventSink() ports.EventSink {
	logger := c.logger
	return ports.EventSinkFunc(func(e event.Event) {
		switch ev := e.(type) {
		case event.WorkspaceActivated:
			logger.Debug("event: workspace activated",
				"workspace_id", ev.WorkspaceID, "previous_id", ev.PreviousID, "latency_ms", ev.LatencyMS)
		case event.ShortcutMigrated:
			logger.Info("event: shortcut migrated", "mapping_id", ev.MappingID, "old", ev.Old, "new", ev.New)
		case event.ShortcutConflict:
			logger.Warn("event: shortcut conflict", "attempted", ev.Attempted, "existing_id", ev.ExistingID)
		case event.LayoutApplied:
			logger.Debug("event: layout applied", "workspace_id", ev.WorkspaceID, "windows", ev.WindowCount)
		case event.TilingFailed:
			logger.Warn("event: tiling failed", "workspace_id", ev.WorkspaceID, "reason", ev.Reason)
		default:
			logger.Debug("event", "kind", string(e.Kind()))
		}
	})
}

func (c *Container) metricsStoreOrNil() ports.MetricsStore {
	if c.metricsStore == nil {
		return nil
	}
	return c.metricsStore
}

// Run starts the manager's event loop and blocks until ctx is canceled.
func (c *Container) Run(ctx context.Context) error {
	return c.manager.Run(ctx)
}

// Close releases all resources held by the container.
func (c *Container) Close() error {
	ctx := context.Background()

	if c.watcher != nil {
		_ = c.watcher.Close()
	}
	if c.driver != nil {
		c.driver.Close()
	}
	if c.topology != nil {
		c.topology.Close()
	}
	if c.recorder != nil {
		c.recorder.Close()
	}
	if c.tracer != nil {
		_ = c.tracer.Shutdown(ctx)
	}
	if c.metricsConn != nil {
		return c.metricsConn.Close()
	}
	return nil
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the structured logger.
func (c *Container) Logger() *logging.Logger {
	return c.logger
}

// Tracer returns the OpenTelemetry tracer.
func (c *Container) Tracer() *tracing.Tracer {
	return c.tracer
}

// Registry returns the entity registry.
func (c *Container) Registry() *registry.Registry {
	return c.registry
}

// ShortcutTable returns the keyboard shortcut table.
func (c *Container) ShortcutTable() *shortcut.Table {
	return c.table
}

// Engine returns the tiling engine.
func (c *Container) Engine() *tiling.Engine {
	return c.engine
}

// Manager returns the workspace manager.
func (c *Container) Manager() *manager.Manager {
	return c.manager
}

// Driver returns the simulated platform driver.
func (c *Container) Driver() *platform.SimulatedDriver {
	return c.driver
}

// Topology returns the monitor topology.
func (c *Container) Topology() *platform.StaticTopology {
	return c.topology
}

// MetricsStore returns the metrics store.
// Returns nil if metrics are not enabled.
func (c *Container) MetricsStore() *metrics.Store {
	return c.metricsStore
}
