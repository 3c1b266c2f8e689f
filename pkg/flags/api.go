package flags

import (
	"github.com/spf13/pflag"
)

// APIFlags holds configuration information for the dashboard API server.
type APIFlags struct {
	EnableSnapshots bool
	ListenAddr      string
	MetricsAddr     string
}

func NewAPIFlags() *APIFlags {
	return &APIFlags{
		ListenAddr:  ":8080",
		MetricsAddr: ":2112",
	}
}

func (f *APIFlags) BindFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&f.EnableSnapshots, "enable-snapshots", false, "Serve stored report snapshots from the database")
	fs.StringVar(&f.ListenAddr, "listen", f.ListenAddr, "The address to serve the dashboard API on (default :8080)")
	fs.StringVar(&f.MetricsAddr, "listen-metrics", f.MetricsAddr, "The address to serve prometheus metrics on (default :2112)")
}
