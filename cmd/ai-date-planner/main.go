package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-date-planner/internal/app"
	"ai-date-planner/internal/config"
	"ai-date-planner/internal/database"
	"ai-date-planner/internal/llm"
	"ai-date-planner/internal/logging"
	"ai-date-planner/internal/metrics"
	"ai-date-planner/internal/planner"
	"ai-date-planner/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New("ai-date-planner", cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	if err := run(cmd, args, cfg, logger); err != nil {
		logger.Error("command failed", slog.String("command", cmd), slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cmd string, args []string, cfg *config.Config, logger *slog.Logger) error {
	switch cmd {
	case "serve", "generate", "metrics-cleanup":
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", cmd)
	}

	ctx := context.Background()

	var metricsStore *metrics.Store
	if cfg.MetricsDBPath != "" {
		db, err := database.NewDB(ctx, cfg.MetricsDBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()
		metricsStore = metrics.NewStore(db.SQL)
	}

	if cmd == "metrics-cleanup" {
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(args)
		return app.NewApp(nil, metricsStore).CleanupMetrics(ctx, *days, os.Stdout)
	}

	if err := cfg.ValidateProvider(); err != nil {
		return err
	}

	streamer, closer, err := newStreamer(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	var recorder planner.UsageRecorder
	if metricsStore != nil {
		recorder = metricsStore
	}
	datePlanner := planner.NewPlanner(streamer, cfg.ProviderTimeout, recorder, logger)

	if cmd == "generate" {
		generateCmd := flag.NewFlagSet("generate", flag.ExitOnError)
		file := generateCmd.String("f", "", "Read the plan request from this JSON file instead of stdin")
		generateCmd.Parse(args)

		var in io.Reader = os.Stdin
		if *file != "" {
			f, err := os.Open(*file)
			if err != nil {
				return fmt.Errorf("failed to open request file: %w", err)
			}
			defer f.Close()
			in = f
		}
		return app.NewApp(datePlanner, metricsStore).GeneratePlan(ctx, in, os.Stdout)
	}

	var usage server.UsageReporter
	if metricsStore != nil {
		usage = metricsStore
	}
	return serve(cfg, server.New(cfg, datePlanner, usage, logger), logger)
}

func newStreamer(ctx context.Context, cfg *config.Config) (llm.TextStreamer, llm.Closer, error) {
	switch cfg.Provider {
	case config.ProviderGroq:
		c := llm.NewGroqClient(cfg)
		return c, c, nil
	default:
		c, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		return c, c, nil
	}
}

func serve(cfg *config.Config, srv *server.Server, logger *slog.Logger) error {
	// Writes must outlive the provider call; no provider timeout means no write timeout
	var writeTimeout time.Duration
	if cfg.ProviderTimeout > 0 {
		writeTimeout = cfg.ProviderTimeout + 10*time.Second
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", slog.String("port", cfg.Port), slog.String("provider", cfg.Provider))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exiting")
	return nil
}

func printUsage() {
	fmt.Println("Usage: ai-date-planner [command] [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  serve              Run the HTTP API (default)")
	fmt.Println("  generate [-f file] Generate a plan from a JSON request on stdin or in a file")
	fmt.Println("  metrics-cleanup    Remove old usage records (-days N, default 30)")
}
