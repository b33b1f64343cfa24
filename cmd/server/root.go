package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jengzang/dwell-backend-go/internal/config"
)

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:          "dwell",
		Short:        "Location history and geofence tracking service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			return config.Init(v, cfgFile)
		},
	}

	cmd.PersistentFlags().String("config", "", "Config file path (optional).")
	cmd.PersistentFlags().String("log-level", "", "Logging level: debug|info|warn|error.")
	cmd.PersistentFlags().String("log-format", "text", "Logging format: text|json.")
	cmd.PersistentFlags().Bool("log-add-source", false, "Include source file:line in logs.")
	cmd.PersistentFlags().String("storage-driver", "", "Storage driver: sqlite|sqlite3|postgres|memory.")
	cmd.PersistentFlags().String("storage-dsn", "", "Storage DSN or sqlite file path.")

	_ = v.BindPFlag("logging.level", cmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("logging.format", cmd.PersistentFlags().Lookup("log-format"))
	_ = v.BindPFlag("logging.add_source", cmd.PersistentFlags().Lookup("log-add-source"))
	_ = v.BindPFlag("storage.driver", cmd.PersistentFlags().Lookup("storage-driver"))
	_ = v.BindPFlag("storage.dsn", cmd.PersistentFlags().Lookup("storage-dsn"))

	cmd.AddCommand(newServeCmd(v))
	cmd.AddCommand(newZonesCmd(v))
	cmd.AddCommand(newHistoryCmd(v))
	cmd.AddCommand(newShareCmd(v))
	cmd.AddCommand(newStatsCmd(v))
	cmd.AddCommand(newTokenCmd(v))

	return cmd
}
