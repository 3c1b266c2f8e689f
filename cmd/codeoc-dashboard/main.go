package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logLevel = "info"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "codeoc-dashboard",
	Short: "Usage analytics for the CodeOC diagnostic assistant",
	Long: `codeoc-dashboard reads the user and conversation exports of the
diagnostic chat assistant and reports usage, satisfaction, error code and
vehicle statistics, with a drill-down from company to single chat.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		PrintVersion(cmd, args)
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			log.WithError(err).Fatal("cannot parse log-level")
		}
		log.SetLevel(level)
		log.Debug("debug logging enabled")
	},
}

func main() {
	// Add some millisecond precision to log timestamps, useful for debugging performance.
	formatter := new(log.TextFormatter)
	formatter.TimestampFormat = "2006-01-02T15:04:05.999Z07:00"
	formatter.FullTimestamp = true
	log.SetFormatter(formatter)

	rootCmd.AddCommand(
		NewServeCommand(),
		NewReportCommand(),
		NewSnapshotCommand(),
		NewMigrateCommand(),
		NewVersionCommand(),
	)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level (trace,debug,info,warn,error) (default info)")

	err := rootCmd.Execute()
	if err != nil {
		log.WithError(err).Fatal("could not execute root command")
	}
}
