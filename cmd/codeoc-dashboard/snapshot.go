package main

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/codeoc/dashboard/pkg/flags"
	"github.com/codeoc/dashboard/pkg/snapshot"
)

type SnapshotFlags struct {
	ReportFlags *ReportCommandFlags
	DBFlags     *flags.PostgresFlags
	Name        string
}

func NewSnapshotFlags() *SnapshotFlags {
	return &SnapshotFlags{
		ReportFlags: NewReportCommandFlags(),
		DBFlags:     flags.NewPostgresDatabaseFlags(""),
	}
}

func (f *SnapshotFlags) BindFlags(fs *pflag.FlagSet) {
	f.ReportFlags.BindFlags(fs)
	f.DBFlags.BindFlags(fs)
	fs.StringVar(&f.Name, "name", f.Name, "Snapshot name")
}

func NewSnapshotCommand() *cobra.Command {
	f := NewSnapshotFlags()

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Compute the dashboard report and store it in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := f.ReportFlags.buildReport(cmd.Context(), cmd.Flags())
			if err != nil {
				return errors.WithMessage(err, "couldn't build report")
			}

			dbc, err := f.DBFlags.GetDBClient()
			if err != nil {
				return err
			}

			snapshotter := &snapshot.Snapshotter{
				DBC:  dbc,
				Name: f.Name,
			}
			s, err := snapshotter.Create(report)
			if err != nil {
				return errors.WithMessage(err, "couldn't create snapshot")
			}
			log.WithField("id", s.ID).Infof("stored snapshot %s", s.Name)

			return nil
		},
	}

	f.BindFlags(cmd.Flags())
	cmd.MarkFlagRequired("name") //nolint:errcheck

	return cmd
}
