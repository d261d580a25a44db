package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"versus/internal/app"
)

var (
	configPath string
	logLevel   string
	logFormat  string
	cfg        app.Config
)

func Execute() error {
	root := &cobra.Command{
		Use:           "versus",
		Short:         "Two-player session with key exchange and obfuscated updates",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := app.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				loaded.Log.Level = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				loaded.Log.Format = logFormat
			}
			if err := app.ConfigureLogging(logrus.StandardLogger(), loaded.Log); err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text or json)")

	root.AddCommand(hostCmd(), joinCmd(), mailboxCmd(), paramsCmd())
	return root.Execute()
}
