// Package cli wires the kotosiro commands: the controller serving the API
// and the runner listening for config updates. Configuration is loaded once
// per invocation from the optional config file and KOTOSIRO_* environment
// variables.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/kotosiro/kotosiro/common"
	"github.com/kotosiro/kotosiro/config"
)

var cfgFile string

// RootCmd is the kotosiro entry point. It only hosts the shared config flag;
// the work happens in the subcommands.
var RootCmd = &cobra.Command{
	Use:           "kotosiro",
	Short:         "workflow orchestration control plane",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	RootCmd.AddCommand(controllerCmd)
	RootCmd.AddCommand(runnerCmd)
}

// loadConfig reads the configuration and applies the logging settings before
// anything else runs.
func loadConfig() (*config.Config, error) {
	conf, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := common.SetupLogging(conf.UseJSONLog, conf.LogFilter); err != nil {
		return nil, err
	}
	return conf, nil
}
