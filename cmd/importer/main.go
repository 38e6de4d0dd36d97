// Command importer refreshes the ERP reports of a company and rebuilds its
// ledger for a filing period or a date range.
// Usage: go run ./cmd/importer --company C1 --period 092025
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"gstfiling/internal/app"
	"gstfiling/internal/config"
	"gstfiling/internal/importer"
	"gstfiling/internal/repository/postgres"
	"gstfiling/internal/service"
)

const dateLayout = "2006-01-02"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	flags := pflag.NewFlagSet("importer", pflag.ExitOnError)
	companyID := flags.String("company", "", "company id (required)")
	period := flags.String("period", "", "filing period MMYYYY; tags the imported vouchers")
	from := flags.String("from", "", "range start YYYY-MM-DD, instead of --period")
	to := flags.String("to", "", "range end YYYY-MM-DD, instead of --period")
	only := flags.StringSlice("only", nil, "imports to run: sales, market_return, stock, party")
	skipRefresh := flags.Bool("skip-refresh", false, "import from the stored reports without fetching")
	noCache := flags.Bool("no-cache", false, "re-fetch reports even when cached")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}
	if *companyID == "" || (*period == "") == (*from == "" || *to == "") {
		flags.Usage()
		return fmt.Errorf("need --company and either --period or --from/--to")
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

	svc := service.NewImportService(postgres.NewCompanyRepo(a.DB), a.Runner(a.Loader(*noCache)))
	opts := service.ImportOptions{Imports: *only, SkipRefresh: *skipRefresh}

	var res *importer.RunResult
	if *period != "" {
		res, err = svc.ImportPeriod(ctx, *companyID, *period, opts)
	} else {
		var start, end time.Time
		if start, err = time.Parse(dateLayout, *from); err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		if end, err = time.Parse(dateLayout, *to); err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}
		res, err = svc.Import(ctx, *companyID, start, end, opts)
	}
	if res != nil {
		report(a.Logger, res)
	}
	return err
}

func report(logger logrus.FieldLogger, res *importer.RunResult) {
	log := logger.WithField("run_id", res.RunID)
	for _, r := range res.Reports {
		if r.Err != nil {
			log.WithField("report", r.Kind).WithError(r.Err).Warn("report kept from previous refresh")
		}
	}
	for _, f := range res.Failures() {
		log.Warn(f.String())
	}
	log.WithFields(logrus.Fields{
		"imports":  len(res.Imports),
		"failures": len(res.Failures()),
		"tagged":   res.Tagged,
	}).Info("import run finished")
}
