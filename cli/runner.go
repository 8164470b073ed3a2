package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kotosiro/kotosiro/common"
	"github.com/kotosiro/kotosiro/queue"
)

var runnerCmd = &cobra.Command{
	Use:   "runner",
	Short: "follow config updates published by the controller",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		consumer, err := queue.NewConfigConsumer(&queue.RealAMQPDialer{}, conf.MqAddr)
		if err != nil {
			return err
		}
		defer func() {
			if err := consumer.Close(); err != nil {
				common.Logger.WithError(err).Warn("failed to close consumer")
			}
		}()

		common.Logger.Info("runner started, waiting for config updates")
		err = consumer.Listen(ctx, func(update queue.ConfigUpdate) {
			if id, ok := update.Project(); ok {
				common.Logger.WithFields(logrus.Fields{"project": id}).Info("project config updated")
				return
			}
			if id, ok := update.Job(); ok {
				common.Logger.WithFields(logrus.Fields{"job": id}).Info("job config updated")
			}
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}
