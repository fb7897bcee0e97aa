package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/teranos/bulkgraph/am"
	"github.com/teranos/bulkgraph/display"
	"github.com/teranos/bulkgraph/errors"
	"github.com/teranos/bulkgraph/importer"
	"github.com/teranos/bulkgraph/input"
	"github.com/teranos/bulkgraph/logger"
)

// ImportCmd imports CSV files into a new store
var ImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import CSV nodes and relationships into a new store",
	Long: `Import CSV nodes and relationships into a new store.

The node file needs an :ID column and may have a :LABEL column (labels
separated by ';'). The relationship file needs :START_ID, :END_ID and :TYPE.
Every other column becomes a string property.

Examples:
  bulkgraph import --nodes people.csv --relationships knows.csv
  bulkgraph import --nodes n.csv --relationships r.csv --id-type string --store out.db
  bulkgraph import --nodes n.csv --relationships r.csv --metrics-addr :9090 --report report.yaml`,
	RunE: runImport,
}

type importOptions struct {
	config        string
	nodes         string
	relationships string
	store         string
	idType        string
	display       string
	metricsAddr   string
	report        string
}

var importFlags importOptions

func init() {
	f := ImportCmd.Flags()
	f.StringVar(&importFlags.config, "config", "", "Read configuration from this file only")
	f.StringVar(&importFlags.nodes, "nodes", "", "Node CSV file")
	f.StringVar(&importFlags.relationships, "relationships", "", "Relationship CSV file")
	f.StringVar(&importFlags.store, "store", "", "Store directory (overrides store.path)")
	f.StringVar(&importFlags.idType, "id-type", "", "Input id type: actual or string (overrides import.id_type)")
	f.StringVar(&importFlags.display, "display", "", "Progress display: spectrum, human, json or none")
	f.StringVar(&importFlags.metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address while importing")
	f.StringVar(&importFlags.report, "report", "", "Write a YAML import report to this file")
	_ = ImportCmd.MarkFlagRequired("nodes")
	_ = ImportCmd.MarkFlagRequired("relationships")
}

func loadImportConfig() (*am.Config, error) {
	var cfg *am.Config
	var err error
	if importFlags.config != "" {
		cfg, err = am.LoadFromFile(importFlags.config)
	} else {
		cfg, err = am.Load()
	}
	if err != nil {
		return nil, err
	}

	if importFlags.store != "" {
		cfg.Store.Path = importFlags.store
	}
	if importFlags.idType != "" {
		cfg.Import.IDType = importFlags.idType
	}
	if importFlags.display != "" {
		cfg.Monitor.Display = importFlags.display
	}
	if importFlags.metricsAddr != "" {
		cfg.Monitor.MetricsAddr = importFlags.metricsAddr
	}
	return cfg, cfg.Validate()
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadImportConfig()
	if err != nil {
		return err
	}
	verbosity, _ := cmd.Flags().GetCount("verbose")
	log := logger.Logger.Named("import")

	in, err := input.NewCSVInput(importFlags.nodes, importFlags.relationships, cfg.Import.IDType)
	if err != nil {
		return err
	}

	monitor, err := display.NewMonitor(cfg.Monitor, cmd.OutOrStdout(), verbosity)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []importer.Option{
		importer.WithLogger(log),
		importer.WithPollInterval(cfg.Monitor.PollInterval()),
	}
	if cfg.Monitor.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, importer.WithRegistry(reg))
		shutdown := serveMetrics(cfg.Monitor.MetricsAddr, reg)
		defer shutdown()
	}

	imp := importer.New(cfg.Store.Path, cfg.Import.Staging(), monitor, opts...)
	if err := imp.DoImport(ctx, in); err != nil {
		return err
	}

	report := imp.Report()
	if importFlags.report != "" {
		if err := display.WriteReportFile(importFlags.report, report); err != nil {
			return err
		}
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(report)
	}
	return display.PrintSummary(cmd.OutOrStdout(), report)
}

// serveMetrics exposes reg on addr until the returned function is called
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	log := logger.Logger.Named("metrics")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warnw("Metrics server stopped", logger.FieldError, err)
		}
	}()
	log.Infow("Serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
