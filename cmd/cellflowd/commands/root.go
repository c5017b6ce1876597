// Package commands implements cellflowd's CLI, grounded on
// marmos91-dittofs/cmd/dittofs/commands's root-command-plus-persistent-
// flags shape.
package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "cellflowd",
	Short:         "cellflow - a concurrent, multi-client spreadsheet server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default: ./cellflow.yaml)")
	rootCmd.PersistentFlags().String("listen", "", "address to listen on (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text, json (overrides config)")

	viperForFlags := viper.New()
	_ = viperForFlags.BindPFlag("listen", rootCmd.PersistentFlags().Lookup("listen"))
	_ = viperForFlags.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viperForFlags.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	flagViper = viperForFlags

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// flagViper holds the flag bindings serve.go reads through when
// building the final layered config.Config.
var flagViper *viper.Viper
