// Command einvoice reports or files the e-invoices of damage credit notes.
// Usage: go run ./cmd/einvoice --gstin 33AAAAA0000A1Z5 --period 092025 [--file]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"gstfiling/internal/app"
	"gstfiling/internal/config"
	"gstfiling/internal/einvoice"
	"gstfiling/internal/repository/postgres"
	"gstfiling/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	flags := pflag.NewFlagSet("einvoice", pflag.ExitOnError)
	gstin := flags.String("gstin", "", "GSTIN to file for (required)")
	period := flags.String("period", "", "filing period MMYYYY (required)")
	file := flags.Bool("file", false, "build and queue the pending e-invoices instead of printing stats")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}
	if *gstin == "" || *period == "" {
		flags.Usage()
		return fmt.Errorf("need --gstin and --period")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	var seller einvoice.Seller
	if *file {
		if seller, err = einvoice.LoadSeller(cfg.EInvoice.SellerFile); err != nil {
			return err
		}
	}

	fs := afero.NewOsFs()
	svc := service.NewEInvoiceService(
		postgres.NewCompanyRepo(a.DB),
		postgres.NewFilingRepo(a.DB),
		einvoice.NewOutbox(fs, filepath.Join(cfg.EInvoice.OutputDir, "outbox"), a.Logger),
		seller,
		fs,
		service.EInvoiceConfig{
			OutputDir:  cfg.EInvoice.OutputDir,
			BuyerPin:   cfg.EInvoice.BuyerPin,
			BuyerLoc:   cfg.EInvoice.BuyerLoc,
			RedateDays: cfg.EInvoice.RedateDays,
		},
		nil,
		a.Logger,
	)

	if !*file {
		stats, err := svc.Stats(ctx, *gstin, *period)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	res, err := svc.File(ctx, *gstin, *period)
	if err != nil {
		return err
	}
	a.Logger.WithField("path", res.Path).Infof("%d e-invoices built, %d pending acknowledgement",
		res.Uploaded, res.Uploaded-len(res.Filed)-len(res.Recovered)-len(res.Failed))
	return nil
}
