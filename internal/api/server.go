package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bosves/bosves-api/internal/audit"
	"github.com/bosves/bosves-api/internal/auth"
	"github.com/bosves/bosves-api/internal/infrastructure/config"
	"github.com/bosves/bosves-api/internal/infrastructure/database"
	"github.com/bosves/bosves-api/internal/infrastructure/influxdb"
	"github.com/bosves/bosves-api/internal/infrastructure/logging"
	"github.com/bosves/bosves-api/internal/infrastructure/mqtt"
	"github.com/bosves/bosves-api/internal/wagon"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// limiterSweepInterval is how often idle per-subject rate limiters are dropped.
const limiterSweepInterval = 5 * time.Minute

// EventBus carries wagon events between replicas. *mqtt.Client satisfies it.
type EventBus interface {
	PublishJSON(topic string, v any) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
}

// WeighingWriter records weighing telemetry. *influxdb.Client satisfies it.
type WeighingWriter interface {
	WriteWeighing(w influxdb.Weighing)
}

// healthChecker is implemented by collaborators that can report liveness.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger

	Wagons wagon.Repository
	Audit  audit.Repository // optional: changes are not recorded without it
	DB     *database.DB     // optional: health and pool statistics

	Events    EventBus       // optional: events go straight to the hub without it
	Telemetry WeighingWriter // optional

	InstanceID string
	Version    string
}

// Server is the HTTP API server.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	secCfg     config.SecurityConfig
	logger     *logging.Logger
	wagons     wagon.Repository
	auditRepo  audit.Repository
	auditCh    chan *audit.AuditLog
	db         *database.DB
	events     EventBus
	telemetry  WeighingWriter
	signer     *auth.Signer
	clients    *auth.Clients
	limiter    *rateLimiter
	metrics    *metrics
	tickets    *ticketStore
	hub        *Hub
	instanceID string
	version    string
	startTime  time.Time
	server     *http.Server
	cancel     context.CancelFunc // cancels background goroutines on Close()
	auditWG    sync.WaitGroup     // held by the audit drainer until it has emptied auditCh
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (logger, wagon repository, JWT secret)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Wagons == nil {
		return nil, fmt.Errorf("wagon repository is required")
	}
	if deps.Security.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		secCfg:    deps.Security,
		logger:    deps.Logger,
		wagons:    deps.Wagons,
		auditRepo: deps.Audit,
		db:        deps.DB,
		events:    deps.Events,
		telemetry: deps.Telemetry,
		signer: auth.NewSigner(
			deps.Security.JWT.Secret,
			deps.Security.JWT.Issuer,
			time.Duration(deps.Security.JWT.AccessTokenTTL)*time.Minute,
		),
		clients:    auth.NewClients(deps.Security.Clients),
		tickets:    newTicketStore(),
		instanceID: deps.InstanceID,
		version:    deps.Version,
		startTime:  time.Now(),
	}
	if deps.Audit != nil {
		s.auditCh = make(chan *audit.AuditLog, auditChanSize)
	}
	if deps.Security.RateLimit.Enabled {
		s.limiter = newRateLimiter(deps.Security.RateLimit.RequestsPerMinute, deps.Security.RateLimit.Burst)
	}
	s.hub = NewHub(deps.WS, deps.Logger)
	s.metrics = newMetrics(s.hub)

	s.logger.Info("API clients loaded",
		"clients", s.clients.Len(),
		"dev_tokens", deps.Security.DevTokens,
	)
	return s, nil
}

// Start begins listening for HTTP connections.
//
// It starts the background workers (WebSocket hub, ticket cleanup, audit
// writer, event relay) and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Parent context for the background workers
//
// Returns:
//   - error: If the server fails to start
func (s *Server) Start(ctx context.Context) error {
	s.startBackground(ctx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// startBackground launches the goroutines that live as long as the server.
func (s *Server) startBackground(ctx context.Context) {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)
	go s.cleanTicketsLoop(srvCtx)
	if s.auditCh != nil {
		s.auditWG.Add(1)
		go func() {
			defer s.auditWG.Done()
			s.drainAuditLog(srvCtx)
		}()
	}
	if s.limiter != nil {
		go s.limiter.sweepLoop(srvCtx, limiterSweepInterval)
	}

	if err := s.subscribeWagonEvents(); err != nil {
		s.logger.Warn("failed to subscribe to wagon events for WebSocket relay", "error", err)
	}
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete, then
// forcefully closes remaining connections. Background goroutines are
// stopped only afterwards, and Close returns once every queued audit
// entry has been written.
func (s *Server) Close() error {
	var err error
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		s.logger.Info("API server shutting down")
		if shutdownErr := s.server.Shutdown(ctx); shutdownErr != nil {
			err = fmt.Errorf("shutting down API server: %w", shutdownErr)
		}
	}

	if s.cancel != nil {
		s.cancel()
	}
	s.auditWG.Wait()
	return err
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
