// Command exposure-report computes both crops from the saved snapshot and
// writes the consolidated report as CSV, XLSX or PDF.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"agroexposure/risk-portal/risk-portal-backend/internal/config"
	"agroexposure/risk-portal/risk-portal-backend/internal/positions"
	"agroexposure/risk-portal/risk-portal-backend/internal/reports/export"
	"agroexposure/risk-portal/risk-portal-backend/internal/snapshot"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	statePath := flag.String("state", "", "snapshot file to read instead of the configured store")
	format := flag.String("format", "xlsx", "output format: csv, xlsx or pdf")
	out := flag.String("out", "", "output file (default: generated name, - for stdout)")
	title := flag.String("title", "", "report title")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if err := run(*configPath, *statePath, *format, *out, *title, logger); err != nil {
		logger.Error("Report failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(configPath, statePath, formatName, out, title string, logger *zap.Logger) error {
	f, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if statePath != "" {
		cfg.Snapshot.Backend = "file"
		cfg.Snapshot.FilePath = statePath
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, closeStore, err := snapshot.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions := snapshot.NewSessionCache(time.Hour)
	defer sessions.Stop()

	opts := positions.OptionsFromConfig(cfg)
	if title != "" {
		opts.Title = title
	}
	svc := positions.NewService(store, sessions, opts, logger)
	sess := svc.CreateSession(ctx)

	var w io.Writer = os.Stdout
	if out != "-" {
		if out == "" {
			out = positions.ExportFileName(f)
		}
		file, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		w = file
	}

	if err := svc.Export(ctx, sess.ID, f, w); err != nil {
		return err
	}
	if out != "-" {
		logger.Info("Report written", zap.String("path", out), zap.String("format", string(f)))
	}
	return nil
}
