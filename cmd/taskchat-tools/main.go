// ABOUTME: Standalone tool server speaking newline-delimited JSON over stdio
// ABOUTME: Launched by taskchat in subprocess tool mode

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tessellated/taskchat/internal/store"
	"github.com/tessellated/taskchat/internal/task"
	"github.com/tessellated/taskchat/internal/toolserver"
	"github.com/tessellated/taskchat/internal/tools"
)

func main() {
	dbPath := flag.String("db", "taskchat.db", "path to the SQLite database")
	logLevel := flag.String("log-level", "info", "log level (debug/info/warn/error)")
	flag.Parse()

	// stdout carries the protocol; all logging goes to stderr.
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(*dbPath, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dbPath string, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	registry := tools.NewRegistry()
	executor := tools.NewLocalExecutor(registry, task.NewService(st))

	logger.Info("tool server ready", "db", dbPath)
	return toolserver.New(executor, os.Stdin, os.Stdout).Run(ctx)
}
