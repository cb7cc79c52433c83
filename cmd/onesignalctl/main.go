// --- File: cmd/onesignalctl/main.go ---
package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tinywideclouds/go-onesignal/pkg/onesignal"
)

//go:embed local.yaml
var configFile []byte

func main() {
	os.Exit(realMain())
}

func realMain() int {
	// stdout carries command output, so logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(os.Getenv("LOG_LEVEL")),
	})).With("service", "onesignalctl")
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Failed to load .env file", "err", err)
	}

	configPath := flag.String("config", "", "YAML config file replacing the embedded defaults")
	flag.Usage = func() { printUsage(flag.CommandLine.Output()) }
	flag.Parse()

	// --- Config Loading ---
	cfg, err := loadConfig(*configPath, configFile, logger)
	if err != nil {
		logger.Error("Config failed", "err", err)
		return 1
	}

	// --- Cache ---
	store, closeStore, err := newStore(cfg.Cache, logger)
	if err != nil {
		logger.Error("Cache initialization failed", "backend", cfg.Cache.Backend, "err", err)
		return 1
	}
	defer closeStore()

	client, err := onesignal.New(*cfg, store, logger)
	if err != nil {
		logger.Error("Client creation failed", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, client, flag.Args(), os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		logger.Error("Command failed", "err", err)
		return 1
	}
	return 0
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
