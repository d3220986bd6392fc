// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/danielhkuo/quartier-diag/cliparse"
	"github.com/danielhkuo/quartier-diag/db"
	"github.com/danielhkuo/quartier-diag/middleware"
	"github.com/danielhkuo/quartier-diag/models"
	"github.com/danielhkuo/quartier-diag/router"
	"github.com/danielhkuo/quartier-diag/survey"
)

func main() {
	var err error

	// Pick up a local .env before reading the environment
	if err := cliparse.LoadEnvFile(".env"); err != nil {
		slog.Error("Error loading .env", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)

	// Load the survey dataset
	ds, err := loadDataset(cfg)
	if err != nil {
		slog.Error("dataset load failed", "error", err)
		os.Exit(1)
	}

	opts := survey.Options{
		CacheTTL:      cfg.CacheTTL,
		OrdinalOffset: cfg.OrdinalOffset,
	}
	if cfg.VariantsFile != "" {
		file, err := survey.LoadSpecFile(cfg.VariantsFile)
		if err != nil {
			slog.Error("question registry load failed", "file", cfg.VariantsFile, "error", err)
			os.Exit(1)
		}
		opts.Specs = file.Questions
		opts.Graphs = file.Graphs
		slog.Info("Question registry loaded", "file", cfg.VariantsFile,
			"questions", len(file.Questions), "graphs", len(file.Graphs))
	}

	engine, err := survey.NewEngine(ds, opts)
	if err != nil {
		slog.Error("engine setup failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Engine ready",
		"questions", len(engine.Questions()),
		"graphs", len(engine.GraphKeys()),
		"cohorts", len(engine.Cohorts()),
		"cache_ttl", cfg.CacheTTL,
	)

	// Create router
	mux := router.NewRouter(engine, cfg)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// setupLogging uses text output on a terminal and JSON otherwise
func setupLogging(level slog.Level) {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadDataset reads the dataset from the JSON file or the database
func loadDataset(cfg cliparse.Config) (*models.Dataset, error) {
	if cfg.DataFile != "" {
		return db.LoadDatasetFile(cfg.DataFile)
	}

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(conn); err != nil {
		return nil, err
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return db.LoadDataset(ctx, conn)
}
