package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"silorecon/internal/config"
	"silorecon/internal/logger"
	"silorecon/internal/pipeline"

	// register every source and sink; the config picks one of each.
	_ "silorecon/internal/extract/all"
	_ "silorecon/internal/storage/all"
)

type flags struct {
	configPath     string
	envFile        string
	metricsBackend string
	pushgatewayURL string
	datadogAddr    string
	verbose        bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "silorecon",
		Short: "Reconcile warehouse silo tasks against the bin mapping",
		Long: `silorecon extracts warehouse tasks and the silo bin mapping, keeps the
silo tasks of the configured process type, labels each one Correct usage or
Wrong usage, and replaces the destination table with the result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "configs/silorecon.json", "pipeline config JSON path")
	pf.StringVar(&f.envFile, "env-file", ".env", "dotenv file with secrets, loaded before the config")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&f.metricsBackend, "metrics-backend", "", "metrics backend (none, prompush, datadog); overrides metrics.backend")
	pf.StringVar(&f.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL; overrides metrics.pushgateway_url")
	pf.StringVar(&f.datadogAddr, "datadog-addr", "", "DogStatsD address; overrides metrics.datadog_addr")

	cmd.AddCommand(newValidateCmd(f))
	return cmd
}

// loadConfig loads and validates the config, printing every issue to w.
func loadConfig(f *flags, w io.Writer) (config.Pipeline, error) {
	p, err := config.Load(f.configPath, f.envFile)
	if err != nil {
		return config.Pipeline{}, err
	}
	if f.metricsBackend != "" {
		p.Metrics.Backend = f.metricsBackend
	}
	if f.pushgatewayURL != "" {
		p.Metrics.PushgatewayURL = f.pushgatewayURL
	}
	if f.datadogAddr != "" {
		p.Metrics.DatadogAddr = f.datadogAddr
	}
	if f.verbose {
		p.Log.Level = "debug"
	}

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return config.Pipeline{}, fmt.Errorf("configuration is invalid: %s", f.configPath)
	}
	return p, nil
}

func run(ctx context.Context, f *flags, out, errOut io.Writer) error {
	p, err := loadConfig(f, errOut)
	if err != nil {
		return err
	}

	log, err := logger.New(p.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	undo := zap.ReplaceGlobals(log)
	defer undo()

	flush, err := setupMetrics(p, log)
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := pipeline.New(p, log)
	if err != nil {
		return err
	}
	sum, err := r.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s: %s tasks, %s silo tasks, %s matched (%.1f%%), %s rows into %s in %s\n",
		sum.RunID,
		humanize.Comma(int64(sum.Tasks)),
		humanize.Comma(int64(sum.Filtered)),
		humanize.Comma(int64(sum.Matched)),
		sum.MatchRate*100,
		humanize.Comma(sum.Loaded),
		sum.Table,
		sum.Duration.Truncate(time.Millisecond))
	return nil
}
