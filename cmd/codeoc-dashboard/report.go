package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/codeoc/dashboard/pkg/api"
	apitype "github.com/codeoc/dashboard/pkg/apis/api"
)

type ReportCommandFlags struct {
	DatasetFlags *DatasetFlags

	Start  string
	End    string
	Output string
}

func NewReportCommandFlags() *ReportCommandFlags {
	return &ReportCommandFlags{
		DatasetFlags: NewDatasetFlags(),
		Output:       "json",
	}
}

func (f *ReportCommandFlags) BindFlags(fs *pflag.FlagSet) {
	f.DatasetFlags.BindFlags(fs)
	fs.StringVar(&f.Start, "start", f.Start, "Only count users whose last login is on or after this date (2006-01-02)")
	fs.StringVar(&f.End, "end", f.End, "Only count users whose last login is on or before this date (2006-01-02)")
	fs.StringVarP(&f.Output, "output", "o", f.Output, "Output format; available options are 'json' and 'yaml'")
}

// buildReport loads the dataset and computes the report with the date range
// defaulting to the login bounds.
func (f *ReportCommandFlags) buildReport(ctx context.Context, fs *pflag.FlagSet) (apitype.Report, error) {
	if err := f.DatasetFlags.Complete(fs); err != nil {
		return apitype.Report{}, err
	}
	store, _, err := f.DatasetFlags.GetStore(ctx)
	if err != nil {
		return apitype.Report{}, err
	}
	ds, err := store.Get(ctx)
	if err != nil {
		return apitype.Report{}, errors.WithMessage(err, "couldn't load dataset")
	}

	opts := f.DatasetFlags.ReportFlags.ReportOptions()
	opts.Range, err = api.ParseDateRange(f.Start, f.End, api.LoginDateBounds(ds.Users))
	if err != nil {
		return apitype.Report{}, err
	}
	return api.BuildReport(ds, opts)
}

func NewReportCommand() *cobra.Command {
	f := NewReportCommandFlags()

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compute the dashboard report once and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := f.buildReport(cmd.Context(), cmd.Flags())
			if err != nil {
				return errors.WithMessage(err, "couldn't build report")
			}
			return printStructured(f.Output, report)
		},
	}

	f.BindFlags(cmd.Flags())
	return cmd
}
