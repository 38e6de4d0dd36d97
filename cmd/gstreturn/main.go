// Command gstreturn reconciles the ledger of a GSTIN against the portal and
// writes the GSTR-1 JSON with its workings.
// Usage: go run ./cmd/gstreturn --gstin 33AAAAA0000A1Z5 --period 092025
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"gstfiling/internal/app"
	"gstfiling/internal/config"
	"gstfiling/internal/repository/postgres"
	"gstfiling/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	flags := pflag.NewFlagSet("gstreturn", pflag.ExitOnError)
	gstin := flags.String("gstin", "", "GSTIN to file for (required)")
	period := flags.String("period", "", "filing period MMYYYY (required)")
	skipRefresh := flags.Bool("skip-refresh", false, "reconcile against the stored portal invoices")
	noCache := flags.Bool("no-cache", false, "re-fetch the portal invoices even when cached")
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

	storage, err := a.ObjectStorage()
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	svc := service.NewReturnService(
		postgres.NewCompanyRepo(a.DB),
		postgres.NewFilingRepo(a.DB),
		a.Loader(*noCache),
		afero.NewOsFs(),
		storage,
		service.ReturnConfig{
			OutputDir:     cfg.Filing.OutputDir,
			Version:       cfg.Filing.Version,
			Bucket:        cfg.S3.Bucket,
			PresignExpiry: cfg.S3.PresignExpiry,
		},
		a.Logger,
	)
	res, err := svc.Generate(ctx, *gstin, *period, service.ReturnOptions{SkipRefresh: *skipRefresh})
	if err != nil {
		return err
	}
	for _, art := range res.Artifacts {
		a.Logger.WithFields(logrus.Fields{"path": art.Path, "url": art.URL}).Info("artifact written")
	}
	return nil
}
