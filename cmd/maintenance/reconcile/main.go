package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-reservation/internal/config"
	"github.com/smarttransit/seat-reservation/internal/database"
	"github.com/smarttransit/seat-reservation/internal/services"
)

// Runs one ledger/occupancy reconciliation pass against the configured store
// and prints the report as JSON.
func main() {
	releaseOrphans := flag.Bool("release-orphans", false, "release occupied seats that have no booking record")
	timeout := flag.Duration("timeout", 5*time.Minute, "abort the pass after this long")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stderr)

	// Only the storage sections are needed; JWT and notifier settings are not validated here
	cfg, err := config.LoadStorage()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := database.Open(ctx, cfg.Storage, cfg.Database, false)
	if err != nil {
		logger.Fatalf("Failed to open booking store: %v", err)
	}
	defer store.Close()

	report, err := services.NewReconcileService(store, *releaseOrphans, logger).Run(ctx)
	if err != nil {
		logger.Fatalf("Reconciliation failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Fatalf("Failed to write report: %v", err)
	}

	if len(report.Issues) > 0 {
		os.Exit(2)
	}
}
