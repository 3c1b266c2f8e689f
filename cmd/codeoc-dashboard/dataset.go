package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/codeoc/dashboard/pkg/apis/cache"
	"github.com/codeoc/dashboard/pkg/dataloader"
	"github.com/codeoc/dashboard/pkg/flags"
	"github.com/codeoc/dashboard/pkg/flags/configflags"
)

// DatasetFlags are shared by every command that reads the exports.
type DatasetFlags struct {
	ConfigFlags      *configflags.ConfigFlags
	SourceFlags      *flags.SourceFlags
	GoogleCloudFlags *flags.GoogleCloudFlags
	CacheFlags       *flags.CacheFlags
	ReportFlags      *flags.ReportFlags
}

func NewDatasetFlags() *DatasetFlags {
	return &DatasetFlags{
		ConfigFlags:      configflags.NewConfigFlags(),
		SourceFlags:      flags.NewSourceFlags(),
		GoogleCloudFlags: flags.NewGoogleCloudFlags(),
		CacheFlags:       flags.NewCacheFlags(),
		ReportFlags:      flags.NewReportFlags(),
	}
}

func (f *DatasetFlags) BindFlags(fs *pflag.FlagSet) {
	f.ConfigFlags.BindFlags(fs)
	f.SourceFlags.BindFlags(fs)
	f.GoogleCloudFlags.BindFlags(fs)
	f.CacheFlags.BindFlags(fs)
	f.ReportFlags.BindFlags(fs)
}

// Complete merges the configuration file into the flags that were not given
// explicitly and validates the result.
func (f *DatasetFlags) Complete(fs *pflag.FlagSet) error {
	cfg, err := f.ConfigFlags.GetConfig()
	if err != nil {
		return err
	}
	if err := f.SourceFlags.ApplyConfig(fs, cfg.Source); err != nil {
		return err
	}
	f.ReportFlags.ApplyConfig(fs, cfg.Report)

	if err := f.SourceFlags.Validate(); err != nil {
		return errors.WithMessage(err, "error validating source options")
	}
	if err := f.ReportFlags.Validate(); err != nil {
		return errors.WithMessage(err, "error validating report options")
	}
	return nil
}

// GetStore returns the dataset store and the cache it uses, which may be nil.
func (f *DatasetFlags) GetStore(ctx context.Context) (*dataloader.Store, cache.Cache, error) {
	cacheClient, err := f.CacheFlags.GetCacheClient()
	if err != nil {
		return nil, nil, errors.WithMessage(err, "couldn't get cache client")
	}
	store, err := f.SourceFlags.GetStore(ctx, f.GoogleCloudFlags, cacheClient)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "couldn't create dataset store")
	}
	return store, cacheClient, nil
}
