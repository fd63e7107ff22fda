package main

import (
	"batepapo/clock"
	"batepapo/contract"
	grpcserver "batepapo/infrastructure/grpc/server"
	httptransport "batepapo/infrastructure/http"
	"batepapo/infrastructure/search"
	"batepapo/repositories"
	"batepapo/runtime/workers"
	"batepapo/services"
	"context"
	goerrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until a signal or a server failure.
// Returning instead of exiting lets deferred cleanup close the stores.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Stores (BadgerDB + bluge index)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	index, err := search.NewMessageIndex(config.BlugeFilepath, log)
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = index.Close()
	}()

	// 3. Services
	realClock := clock.Real()
	participants := repositories.NewParticipantRepository(db, log)
	messages := repositories.NewMessageRepository(db, log)
	presence := services.NewPresenceRegistry(participants, messages, index, realClock, log)
	ledger := services.NewMessageLedger(messages, participants, index, realClock, log)

	// The index may be in memory or behind the store after a crash
	indexed, err := ledger.Reindex(context.Background())
	if err != nil {
		log.Warn("Search index rebuild incomplete", "indexed", indexed, "err", err)
	} else {
		log.Info("Search index rebuilt", "indexed", indexed)
	}

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Supervised sweep
	health := grpcserver.NewHealthServer(log)
	sweep := workers.NewSweepWorker(log, presence, realClock, health,
		config.SweepInterval, config.InactivityTimeout, config.SweepTimeout)
	sup := workers.NewSupervisor(log, config.RestartInterval)
	supDone := superviseSweep(ctx, sup, sweep)

	// 6. gRPC health server
	grpcAddress := fmt.Sprintf("%s:%d", config.Host, config.GRPCPort)
	grpcListener, err := net.Listen("tcp", grpcAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", grpcAddress, err)
	}
	g := grpc.NewServer()
	health.Register(g)

	// 7. HTTP server
	handler := httptransport.NewHandler(presence, ledger, log)
	httpServer := &http.Server{
		Addr: fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: httptransport.NewRouter(handler, log, httptransport.RouterConfig{
			AllowedOrigins: config.AllowedOrigins,
			RequestTimeout: config.RequestTimeout,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 2)
	go func() {
		log.Info("Starting gRPC server", "address", grpcAddress)
		if err := g.Serve(grpcListener); err != nil && !goerrors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()
	go func() {
		log.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !goerrors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case runErr = <-errChan:
		log.Error("Server failed, shutting down", "err", runErr)
	}

	// 9. Final Cleanup
	health.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "err", err)
	}
	g.GracefulStop()
	stop()
	sup.Stop()
	<-supDone
	log.Info("Program stopped cleanly")

	return runErr
}

// superviseSweep runs the sweep under sup until ctx ends. The returned
// channel is closed once the supervisor is back.
func superviseSweep(ctx context.Context, sup contract.ISupervisor, sweep contract.Worker) <-chan struct{} {
	done := make(chan struct{})
	sup = sup.Add(sweep)
	go func() {
		defer close(done)
		sup.Run(ctx)
	}()
	return done
}
