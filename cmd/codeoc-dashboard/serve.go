package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/codeoc/dashboard/pkg/db"
	"github.com/codeoc/dashboard/pkg/flags"
	"github.com/codeoc/dashboard/pkg/server"
	"github.com/codeoc/dashboard/pkg/server/metrics"
)

type ServerFlags struct {
	DatasetFlags *DatasetFlags
	APIFlags     *flags.APIFlags
	DBFlags      *flags.PostgresFlags
}

func NewServerFlags() *ServerFlags {
	return &ServerFlags{
		DatasetFlags: NewDatasetFlags(),
		APIFlags:     flags.NewAPIFlags(),
		DBFlags:      flags.NewPostgresDatabaseFlags(""),
	}
}

func (f *ServerFlags) BindFlags(flagSet *pflag.FlagSet) {
	f.DatasetFlags.BindFlags(flagSet)
	f.APIFlags.BindFlags(flagSet)
	f.DBFlags.BindFlags(flagSet)
}

func NewServeCommand() *cobra.Command {
	f := NewServerFlags()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.DatasetFlags.Complete(cmd.Flags()); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, cacheClient, err := f.DatasetFlags.GetStore(ctx)
			if err != nil {
				return err
			}
			store.OnLoad(metrics.RefreshDatasetMetrics)

			var dbc *db.DB
			if f.APIFlags.EnableSnapshots {
				dbc, err = f.DBFlags.GetDBClient()
				if err != nil {
					return errors.WithMessage(err, "couldn't get DB client")
				}
			}

			// Do an immediate load so the first request is fast. Missing data is
			// not fatal, the API answers 503 until the exports appear.
			if _, err := store.Get(ctx); err != nil {
				log.WithError(err).Warning("initial dataset load failed")
			}

			if f.APIFlags.MetricsAddr != "" {
				// Reload on the freshness interval so the gauges follow the exports
				// even when nobody is using the API.
				go func() {
					ticker := time.NewTicker(f.DatasetFlags.SourceFlags.Freshness)
					defer ticker.Stop()
					for {
						select {
						case <-ticker.C:
							if _, err := store.Get(ctx); err != nil {
								log.WithError(err).Error("error refreshing dataset")
							}
						case <-ctx.Done():
							return
						}
					}
				}()

				// Serve our metrics endpoint for prometheus to scrape
				go func() {
					metricsMux := http.NewServeMux()
					metricsMux.Handle("/metrics", promhttp.Handler())
					err := http.ListenAndServe(f.APIFlags.MetricsAddr, metricsMux) //nolint
					if err != nil {
						log.WithError(err).Fatal("metrics listener exited")
					}
				}()
			}

			srv := server.NewServer(
				f.APIFlags.ListenAddr,
				store,
				cacheClient,
				dbc,
				f.DatasetFlags.ReportFlags.ReportOptions(),
				prometheus.DefaultRegisterer,
			)

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.WithError(err).Warning("error shutting down server")
				}
			}()

			return srv.Serve()
		},
	}

	f.BindFlags(cmd.Flags())
	return cmd
}
