package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	_ "github.com/nerrad567/gray-logic-controls/migrations"

	"github.com/nerrad567/gray-logic-controls/internal/api"
	"github.com/nerrad567/gray-logic-controls/internal/connection"
	"github.com/nerrad567/gray-logic-controls/internal/controls"
	"github.com/nerrad567/gray-logic-controls/internal/definition"
	"github.com/nerrad567/gray-logic-controls/internal/events"
	"github.com/nerrad567/gray-logic-controls/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-controls/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-controls/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-controls/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-controls/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-controls/internal/location"
	"github.com/nerrad567/gray-logic-controls/internal/metrics"
)

// run is the service logic, separated from main for testability.
// It blocks until ctx is cancelled and returns nil on clean shutdown.
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic Controls",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Connect to MQTT
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	mqttClient.SetLogger(log.Component("mqtt"))
	defer func() {
		log.Info("closing MQTT connection")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT connected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
	)

	// Telemetry sinks
	var sinks controls.MultiTelemetry
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		sinks = append(sinks, influxClient)
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	var m *metrics.Metrics
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metricsHandler = m.Handler()
		sinks = append(sinks, m)
	}

	// Definitions, event bus and surface hub
	defs := definition.NewRegistry()
	defs.SetLogger(log.Component("definitions"))

	bus := events.NewBus()
	bus.SetLogger(log.Component("events"))
	go bus.Run(ctx)
	go bus.RunTicker(ctx, time.Second)

	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	go hub.Run(ctx)

	// Connections
	manager := connection.NewManager()
	manager.SetLogger(log.Component("connections"))

	dispatcher := connection.NewDispatcher(manager, cfg.Controls.OutboundQueueSize)
	dispatcher.SetLogger(log.Component("dispatcher"))
	dispatcher.SetLearnTimeout(cfg.Controls.LearnTimeoutDuration())
	if m != nil {
		dispatcher.SetMetrics(m)
	}
	defer func() {
		log.Info("draining connection queues")
		dispatcher.Close()
	}()

	// Control grid and engine
	grid := location.NewGrid(cfg.Controls.Pages, cfg.Controls.Rows, cfg.Controls.Columns)
	ctrl := controls.NewController(controls.Deps{
		Grid:        grid,
		Definitions: defs,
		Connections: dispatcher,
		Store:       controls.NewSQLiteStore(db.DB),
		Graphics:    api.NewGraphics(hub),
		Broadcaster: hub,
		Bus:         bus,
		Telemetry:   sinks,
		Logger:      log.Component("controls"),
		HoldTick:    cfg.Controls.HoldTick(),
	})
	defer func() {
		log.Info("stopping controller")
		ctrl.Close()
	}()
	if loadErr := ctrl.Load(ctx); loadErr != nil {
		return fmt.Errorf("loading controls: %w", loadErr)
	}
	log.Info("controls loaded", "count", len(ctrl.ControlIDs()))

	// Known connections
	directory := connection.NewDirectory(connection.NewSQLiteRepository(db.DB), manager)
	directory.SetLogger(log.Component("connections"))
	if loadErr := directory.Load(ctx); loadErr != nil {
		return fmt.Errorf("loading connections: %w", loadErr)
	}
	directory.OnRemove(func(connectionID string) {
		defs.RemoveConnection(connectionID)
		dispatcher.Release(connectionID)
		ctrl.VerifyConnectionIDs(directory.Known)
	})
	// An empty directory means nothing has announced yet, so there is
	// nothing to verify against.
	if directory.Len() > 0 {
		removed := ctrl.VerifyConnectionIDs(directory.Known)
		log.Info("connections loaded", "count", directory.Len(), "controls_cleaned", removed)
	}

	listener := &connectionListener{defs: defs, directory: directory, bus: bus, ctrl: ctrl, log: log.Component("connections")}
	if attachErr := manager.AttachBroker(mqttClient, byte(cfg.MQTT.QoS), listener); attachErr != nil {
		return fmt.Errorf("subscribing to connection topics: %w", attachErr)
	}

	// Start API server
	server, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Security:    cfg.Security,
		Logger:      log.Component("api"),
		Controller:  ctrl,
		Grid:        grid,
		Pages:       location.NewSQLitePageRepository(db.DB),
		Hub:         hub,
		Connections: directory,
		Metrics:     metricsHandler,
		MetricsPath: cfg.Metrics.Path,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Startup triggers fire once connections have had a moment to announce.
	startup := time.NewTimer(cfg.Controls.StartupDelay())
	defer startup.Stop()

	log.Info("initialisation complete, waiting for shutdown signal")
	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received, cleaning up")
			return nil
		case now := <-startup.C:
			bus.Publish(events.Startup{Time: now})
		}
	}
}

// healthCheck verifies the infrastructure connections. influxClient may be nil.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

// connectionListener feeds broker traffic from connections into the
// definition registry, the directory, the event bus and the controller.
// Start and stop reach the controller through the bus only.
type connectionListener struct {
	defs      *definition.Registry
	directory *connection.Directory
	bus       *events.Bus
	ctrl      *controls.Controller
	log       *logging.Logger
}

func (l *connectionListener) ConnectionAnnounced(connectionID string, a connection.Announcement) {
	l.defs.SetConnectionDefinitions(connectionID, a.Actions, a.Feedbacks)
	if _, err := l.directory.Record(context.Background(), connectionID, a.Label); err != nil {
		l.log.Error("recording connection failed", "connection", connectionID, "error", err)
	}
	l.log.Info("connection announced", "connection", connectionID,
		"actions", len(a.Actions), "feedbacks", len(a.Feedbacks))
}

func (l *connectionListener) ConnectionStatus(connectionID string, running bool) {
	l.bus.Publish(events.ConnectionStatus{ConnectionID: connectionID, Running: running})
	l.log.Info("connection status", "connection", connectionID, "running", running)
}

func (l *connectionListener) FeedbackValues(connectionID string, values map[string]any) {
	l.ctrl.UpdateFeedbackValues(connectionID, values)
}
