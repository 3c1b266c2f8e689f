package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/codeoc/dashboard/pkg/version"
)

// NewVersionCommand prints out version information, in a similar style to other kube tools.
func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Report version information for codeoc-dashboard",
		// Set persistent pre run to empty so we don't double print version info
		PersistentPreRun: NoPrintVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := version.Get()
			const flag = "output"
			of, err := cmd.Flags().GetString(flag)
			if err != nil {
				return errors.Wrapf(err, "error accessing flag %s for command %s", flag, cmd.Name())
			}
			switch of {
			case "":
				fmt.Fprintf(os.Stdout, "codeoc-dashboard built from %s\n", v.GitCommit)
			case "short":
				fmt.Fprintf(os.Stdout, "%s\n", v.GitCommit)
			case "yaml", "json":
				return printStructured(of, v)
			default:
				return errors.Errorf("invalid output format: %s", of)
			}

			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output format; available options are 'yaml', 'json' and 'short'")
	return cmd
}

// printStructured writes v to stdout as yaml or indented json. The yaml keys
// follow the json tags.
func printStructured(format string, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	switch format {
	case "json":
	case "yaml":
		var generic interface{}
		if err := json.Unmarshal(out, &generic); err != nil {
			return err
		}
		if out, err = yaml.Marshal(generic); err != nil {
			return err
		}
	default:
		return errors.Errorf("invalid output format: %s", format)
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}

// PrintVersion is used as a PersistentPreRun function to ensure we always print the version.
var PrintVersion = func(cmd *cobra.Command, args []string) {
	fmt.Fprintf(os.Stderr, "codeoc-dashboard built from %s\n", version.Get().GitCommit)
}

// NoPrintVersion is used as an empty PersistentPreRun function so we don't print version info
// for some commands.
var NoPrintVersion = func(cmd *cobra.Command, args []string) {
}
