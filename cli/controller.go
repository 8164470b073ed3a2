package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kotosiro/kotosiro/common"
	"github.com/kotosiro/kotosiro/controller"
)

var controllerCmd = &cobra.Command{
	Use:   "controller",
	Short: "serve the control-plane API",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ctrl, err := controller.New(ctx, conf)
		if err != nil {
			return err
		}
		defer func() {
			if err := ctrl.Close(); err != nil {
				common.Logger.WithError(err).Warn("failed to release controller resources")
			}
		}()

		return ctrl.Start(ctx)
	},
}
