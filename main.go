package main

import (
	"os"

	"github.com/kotosiro/kotosiro/cli"
	"github.com/kotosiro/kotosiro/common"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		common.Logger.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
