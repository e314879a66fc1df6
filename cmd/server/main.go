package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"quiz-lab/domain"
	"quiz-lab/infrastructure/ws"
	"quiz-lab/internal"
	"quiz-lab/observability"
	"quiz-lab/projection"
	"quiz-lab/repositories"
	"quiz-lab/runtime"
	"quiz-lab/runtime/workers"
	"quiz-lab/services"
)

// Exit codes to provide meaningful status to the operating system or service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle and
// centralizes error reporting, so deferred cleanup always executes before
// the process exits.
func run() (int, error) {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	quiz, err := domain.DefaultQuiz()
	if err != nil {
		return exitConfig, fmt.Errorf("quiz error: %w", err)
	}

	// 2. Database (BadgerDB)
	options := buildBadgerOpts(config, logger)
	db, err := badger.Open(options)
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Supervision & engine
	monitor := observability.NewMonitor()
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	sup.Add(workers.NewStatsWorker(logger, monitor, config.MetricInterval))

	registry := runtime.NewRegistry()
	store := repositories.NewBadgerRoomStore(db, logger)
	codes := runtime.NewCodeAllocator(runtime.DefaultCodeAlphabet, config.CodeLength)
	timing := runtime.Timing{QuestionTime: config.QuestionTime, RevealPause: config.RevealPause}

	engine := runtime.NewEngine(logger, sup, registry, store, monitor,
		quiz, codes, timing, config.BufferSize, config.SinkTimeout)
	engine.AddSinks(projection.NewEventLog(config.BufferSize))

	// 4. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 2)

	go func() {
		logger.Info("Starting engine...")
		if err := engine.Start(ctx); err != nil {
			errChan <- fmt.Errorf("engine error: %w", err)
		}
	}()

	// 5. HTTP & websocket server
	quizService := services.NewQuizService(engine)
	wsServer := ws.NewServer(logger, quizService, config.ConnectionBufferSize)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: wsServer.Handler()}

	go func() {
		logger.Info("Server listening", "address", address)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 6. Wait for stop or error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 7. Graceful shutdown: stop accepting connections, then drain rooms.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	engine.Stop()
	logger.Info("Server stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.WARNING)
}
