package main

import (
	"chat-relay/internal"
	"chat-relay/runtime"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	goruntime "runtime"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/shirou/gopsutil/process"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chat-relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run owns every resource so that deferred cleanup happens before the exit code is returned.
func run() (int, error) {
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if _, err := internal.CharacterRune(config.CharReplacement); err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	app, err := internal.NewApp(log, config, db)
	if err != nil {
		return exitConfig, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go app.Run(ctx)

	if config.DebugPort > 0 {
		debug := internal.NewDebugServer(log, db, internal.MessageMapper, debugStats(app.Orchestrator))
		go func() {
			if err := debug.Serve(ctx, fmt.Sprintf("%s:%d", config.Host, config.DebugPort)); err != nil {
				log.Warn("Debug server stopped", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:              config.Address(),
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", server.Addr, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		app.Close()
		return exitRuntime, err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	app.Close()
	log.Info("Program stopped cleanly")
	return exitOK, nil
}

func debugStats(orchestrator *runtime.Orchestrator) internal.StatsProvider {
	proc, _ := process.NewProcess(int32(os.Getpid()))
	return func() map[string]any {
		stats := map[string]any{
			"connections": orchestrator.Registry().Len(),
			"online":      orchestrator.Presence().OnlineCount(),
			"goroutines":  goruntime.NumGoroutine(),
		}
		if proc != nil {
			if cpu, err := proc.CPUPercent(); err == nil {
				stats["cpu_percent"] = fmt.Sprintf("%.2f", cpu)
			}
			if mem, err := proc.MemoryInfo(); err == nil {
				stats["rss_mb"] = mem.RSS / 1024 / 1024
			}
		}
		return stats
	}
}
