// Command seedhsn loads the GST HSN/SAC workbook into hsn_codes, replacing
// the current master. Reads both HSN_Master_v1 (goods) and SAC_Master
// (services).
// Usage: go run ./cmd/seedhsn --file "GST_HSN Code summary.xlsx"
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"

	"gstfiling/internal/config"
	"gstfiling/internal/hsnmaster"
	"gstfiling/internal/logging"
	"gstfiling/internal/repository/postgres"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	flags := pflag.NewFlagSet("seedhsn", pflag.ExitOnError)
	path := flags.String("file", "AI Tool - GST_HSN Code summary_19.02.2025.xlsx", "HSN/SAC workbook")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := logging.New(cfg.Log)

	entries, err := hsnmaster.ReadFile(*path)
	if err != nil {
		return err
	}
	logger.WithField("entries", len(entries)).Info("hsn workbook parsed")

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	n, err := postgres.NewHSNRepo(db).ReplaceAll(context.Background(), entries)
	if err != nil {
		return err
	}
	logger.WithField("entries", n).Info("hsn_codes replaced")
	return nil
}
