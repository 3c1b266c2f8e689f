package flags

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/codeoc/dashboard/pkg/api"
	apitype "github.com/codeoc/dashboard/pkg/apis/api"
	configv1 "github.com/codeoc/dashboard/pkg/apis/config/v1"
)

// ReportFlags hold the report defaults. The API can override them per
// request.
type ReportFlags struct {
	IncludeFreeChats bool
	Identity         string
	TopN             int
}

func NewReportFlags() *ReportFlags {
	return &ReportFlags{
		Identity: string(apitype.IdentityUserID),
	}
}

func (f *ReportFlags) BindFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&f.IncludeFreeChats, "free-chats", f.IncludeFreeChats, "Report the number of chats with neither DTCs nor internal error codes")
	fs.StringVar(&f.Identity, "identity", f.Identity, "Key identifying a user in averages and activity tables: {user_id,email}")
	fs.IntVar(&f.TopN, "top-n", f.TopN, "Limit frequency and activity tables to this many rows, 0 keeps every row")
}

func (f *ReportFlags) ApplyConfig(fs *pflag.FlagSet, cfg configv1.ReportConfig) {
	if cfg.IncludeFreeChats && !fs.Changed("free-chats") {
		f.IncludeFreeChats = true
	}
	if cfg.Identity != "" && !fs.Changed("identity") {
		f.Identity = cfg.Identity
	}
	if cfg.TopN != 0 && !fs.Changed("top-n") {
		f.TopN = cfg.TopN
	}
}

func (f *ReportFlags) Validate() error {
	switch apitype.Identity(f.Identity) {
	case apitype.IdentityUserID, apitype.IdentityEmail:
	default:
		return fmt.Errorf("unknown identity %q", f.Identity)
	}
	if f.TopN < 0 {
		return fmt.Errorf("--top-n must not be negative")
	}
	return nil
}

func (f *ReportFlags) ReportOptions() api.ReportOptions {
	return api.ReportOptions{
		IncludeFreeChats: f.IncludeFreeChats,
		Identity:         apitype.Identity(f.Identity),
		TopN:             f.TopN,
	}
}
