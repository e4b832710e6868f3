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

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"botrelay/internal/common"
	"botrelay/internal/config"
	"botrelay/internal/dbmysql"
	"botrelay/internal/logging"
	"botrelay/internal/wire"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := config.LoadConfig()

	log, closer, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("relay service stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log.Info().Str("env", cfg.Server.Environment).Msg("initializing application")
	app, cleanup, err := wire.InitializeApplication(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer cleanup()

	if err := dbmysql.AutoMigrate(app.DB); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info().Msg("database migration completed")

	server := &http.Server{
		Addr:           net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:        setupRouter(app),
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	grpcServer, healthServer := newGRPCServer()

	lis, err := net.Listen("tcp", net.JoinHostPort(cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port %s: %w", cfg.Server.GRPCPort, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info().Str("addr", lis.Addr().String()).Msg("gRPC health server starting")
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// bus before relay: queued events still schedule deliveries
		err := server.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		app.Bus.Shutdown()
		app.Relay.Shutdown()
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("relay service stopped")
	return nil
}

// newGRPCServer serves only the standard health service plus reflection.
func newGRPCServer() (*grpc.Server, *health.Server) {
	healthServer := health.NewServer()
	grpcServer := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	return grpcServer, healthServer
}

func setupRouter(app *wire.Application) *mux.Router {
	router := mux.NewRouter()
	router.Use(common.RequestLogger(app.Log))

	router.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	app.Media.RegisterRoutes(router)

	api := router.PathPrefix("/api/v1").Subrouter()
	app.ChatHandler.RegisterRoutes(api, app.Auth)

	return router
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy","service":"botrelay"}`))
}
