package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bosves/bosves-api/internal/api"
	"github.com/bosves/bosves-api/internal/audit"
	"github.com/bosves/bosves-api/internal/infrastructure/config"
	"github.com/bosves/bosves-api/internal/infrastructure/database"
	"github.com/bosves/bosves-api/internal/infrastructure/influxdb"
	"github.com/bosves/bosves-api/internal/infrastructure/logging"
	"github.com/bosves/bosves-api/internal/infrastructure/mqtt"
	"github.com/bosves/bosves-api/internal/wagon"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server until interrupted.

Pending database migrations are applied on start. MQTT and InfluxDB are
optional; when enabled but unreachable the server starts without them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *options) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting BosVes API",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	return run(ctx, cfg, log)
}

// run wires the infrastructure into the API server and blocks until ctx
// is cancelled. Deferred closes run in reverse order of opening.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - cfg: Validated configuration
//   - log: Configured logger
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	deps := api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Security:   cfg.Security,
		Logger:     log,
		Wagons:     wagon.NewSQLiteRepository(db.DB),
		Audit:      audit.NewSQLiteRepository(db.DB),
		DB:         db,
		InstanceID: cfg.Service.InstanceID,
		Version:    version,
	}

	if mqttClient := connectMQTT(cfg, log); mqttClient != nil {
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		deps.Events = mqttClient
	}

	if influxClient := connectInfluxDB(cfg, log); influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		deps.Telemetry = influxClient
	}

	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal",
		"address", cfg.Address(),
		"instance_id", cfg.Service.InstanceID,
	)

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

func openDatabase(ctx context.Context, cfg *config.Config, log *logging.Logger) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	log.Info("database connected", "path", cfg.Database.Path)

	applied, err := db.Migrate(ctx)
	if err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete", "applied", applied)
	return db, nil
}

// connectMQTT returns nil when MQTT is disabled or the broker is unreachable.
// Without a bus, wagon events reach this replica's WebSocket clients only.
func connectMQTT(cfg *config.Config, log *logging.Logger) *mqtt.Client {
	if !cfg.MQTT.Enabled {
		log.Info("MQTT disabled, wagon events stay local")
		return nil
	}

	mqttCfg := cfg.MQTT
	mqttCfg.Broker.ClientID = mqttClientID(cfg)

	client, err := mqtt.Connect(mqttCfg)
	if err != nil {
		log.Warn("MQTT unavailable, wagon events stay local",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"error", err,
		)
		return nil
	}

	client.SetLogger(log)
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", mqttCfg.Broker.ClientID,
	)
	return client
}

// mqttClientID suffixes the configured client ID with the instance ID.
// The broker drops an existing session when a second client reuses its ID.
func mqttClientID(cfg *config.Config) string {
	if cfg.Service.InstanceID == "" {
		return cfg.MQTT.Broker.ClientID
	}
	return cfg.MQTT.Broker.ClientID + "-" + cfg.Service.InstanceID
}

// connectInfluxDB returns nil when telemetry is disabled or unreachable.
func connectInfluxDB(cfg *config.Config, log *logging.Logger) *influxdb.Client {
	if !cfg.InfluxDB.Enabled {
		log.Info("InfluxDB disabled")
		return nil
	}

	client, err := influxdb.Connect(cfg.InfluxDB)
	if err != nil {
		log.Warn("InfluxDB unavailable, weighing telemetry disabled", "url", cfg.InfluxDB.URL, "error", err)
		return nil
	}

	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})

	log.Info("InfluxDB connected",
		"url", cfg.InfluxDB.URL,
		"org", cfg.InfluxDB.Org,
		"bucket", cfg.InfluxDB.Bucket,
	)
	return client
}
