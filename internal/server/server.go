// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"

	"github.com/bartech/facilityhub/api"
	"github.com/bartech/facilityhub/api/middleware"
	"github.com/bartech/facilityhub/api/resources"
	"github.com/bartech/facilityhub/internal/config"
	"github.com/bartech/facilityhub/internal/database"
	"github.com/bartech/facilityhub/internal/hubservice"
	"github.com/bartech/facilityhub/internal/monitoring"
	"github.com/bartech/facilityhub/internal/mqtt"
	"github.com/bartech/facilityhub/internal/repository/postgres"
	"github.com/bartech/facilityhub/internal/repository/timescale"
	"github.com/bartech/facilityhub/internal/retention"
)

// reapInterval is how often stalled stream subscriptions are swept out.
const (
	reapInterval   = time.Minute
	reapMaxStalled = 16
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	hubservice *hubservice.HubService
	monitoring *monitoring.Service
	retention  *retention.Service
	ingest     *mqtt.Ingest
	stopReap   chan struct{}
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{
		config: cfg,
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		stopReap: make(chan struct{}),
	}
}

// Start assembles the service and begins listening for requests. Blocks
// until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	s.hubservice = initializeHubService(s.config)
	s.monitoring = monitoring.NewService(monitoring.Config{
		PrometheusEndpoint: s.config.Monitoring.PrometheusEndpoint,
		LokiEndpoint:       s.config.Monitoring.LokiEndpoint,
	})

	s.startRetention()
	s.startIngest()
	go s.reapLoop()

	s.srv.Handler = s.buildHandler()

	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// buildHandler wires resources, router, CORS and access logging.
func (s *Server) buildHandler() http.Handler {
	res := resources.NewResources(s.hubservice)
	res.SetHealthCheck(s.handleHealth())
	res.SetMetrics(s.handleMetrics())

	router := api.NewRouter(res, middleware.KeycloakConfig{
		URL:          s.config.Keycloak.URL,
		Realm:        s.config.Keycloak.Realm,
		ClientID:     s.config.Keycloak.ClientID,
		ClientSecret: s.config.Keycloak.ClientSecret,
	}, s.buildRateLimiter())

	cors := handlers.CORS(
		handlers.AllowedOrigins(s.config.Server.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	return handlers.CombinedLoggingHandler(os.Stdout, cors(router))
}

func (s *Server) buildRateLimiter() *middleware.RateLimiter {
	if !s.config.RateLimit.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", s.config.Redis.Host, s.config.Redis.Port),
		Password: s.config.Redis.Password,
		DB:       s.config.Redis.DB,
	})
	return middleware.NewRateLimiter(client, s.config.RateLimit.Requests, s.config.RateLimit.Window)
}

func (s *Server) startRetention() {
	if !s.config.Retention.Enabled {
		return
	}

	s.retention = retention.New(s.hubservice.Readings, s.config.Retention.Horizon, s.config.Retention.Interval)
	s.retention.OnPurge(func(deleted int64) {
		s.monitoring.RecordEvent("readings_purged", map[string]string{
			"deleted": fmt.Sprintf("%d", deleted),
		})
	})
	go s.retention.Run()
}

func (s *Server) startIngest() {
	if !s.config.MQTT.Enabled {
		return
	}

	ingest, err := mqtt.NewIngest(s.config.MQTT, s.hubservice)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect MQTT ingest: %v", err)
	}
	if err := ingest.Start(); err != nil {
		nuts.L.Fatalf("[Server] Failed to start MQTT ingest: %v", err)
	}
	s.ingest = ingest
}

// reapLoop periodically drops stream subscriptions whose transport stopped
// draining events.
func (s *Server) reapLoop() {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if reaped := s.hubservice.Hub.Reap(reapMaxStalled); reaped > 0 {
				s.monitoring.RecordEvent("subscriptions_reaped", map[string]string{
					"count": fmt.Sprintf("%d", reaped),
				})
			}
		case <-s.stopReap:
			return
		}
	}
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")
	close(s.stopReap)
	if s.ingest != nil {
		s.ingest.Close()
	}
	if s.retention != nil {
		s.retention.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// handleHealth returns a simple health check handler
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","version":"` + nuts.GetVersion() + `"}`))
	}
}

// handleMetrics exposes a few service counters until a real scrape target
// exists.
func (s *Server) handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"stream_subscribers":%d,"dropped_deliveries":%d}`,
			s.hubservice.Hub.SubscriberCount(), s.hubservice.Hub.DroppedDeliveries())
	}
}

// initializeHubService creates and configures the hub service
func initializeHubService(cfg *config.Config) *hubservice.HubService {
	tsdb := initTimescaleDB(cfg.Database.TimescaleDB)
	appDB := initAppDB(cfg.Database.AppDB)

	facilities := postgres.NewFacilityRepository(appDB)
	readings, err := timescale.NewReadingRepository(tsdb)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize reading repository: %v", err)
	}

	svc := hubservice.New(facilities, readings, cfg.Status)
	if err := svc.Validate(); err != nil {
		nuts.L.Fatalf("[Server] Invalid service wiring: %v", err)
	}
	return svc
}

func initTimescaleDB(cfg config.PostgresConfig) database.DB {
	wrappedDB, err := database.NewTimescaleDB(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to TimescaleDB: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wrappedDB.GetDB().PingContext(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping TimescaleDB: %v", err)
	}
	return wrappedDB
}

func initAppDB(cfg config.PostgresConfig) database.DB {
	wrappedDB, err := database.NewPostgresDB(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to AppDB: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wrappedDB.GetDB().PingContext(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping AppDB: %v", err)
	}
	return wrappedDB
}
