package configflags

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	v1 "github.com/codeoc/dashboard/pkg/apis/config/v1"
)

// ConfigFlags holds the location of the dashboard configuration file.
type ConfigFlags struct {
	Path string
}

func NewConfigFlags() *ConfigFlags {
	return &ConfigFlags{}
}

func (f *ConfigFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.Path,
		"config",
		f.Path,
		"Optional YAML configuration file with source and report settings")
}

// GetConfig returns the parsed configuration file, or an empty configuration
// when no path was given.
func (f *ConfigFlags) GetConfig() (*v1.DashboardConfig, error) {
	var cfg v1.DashboardConfig
	if f.Path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, errors.WithMessage(err, "could not load config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WithMessage(err, "couldn't unmarshal config")
	}
	return &cfg, nil
}
