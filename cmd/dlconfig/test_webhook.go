package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/godtiergamers/dlconfig/internal/config"
	"github.com/godtiergamers/dlconfig/internal/webhook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newTestWebhookCmd(log *logrus.Logger, gCfg *config.GeneratorConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test-webhook <webhook-url>",
		Short: "Send the DiscordLogger test message to a webhook",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Run = runE(log, func(cmd *cobra.Command, args []string) error {
		a, err := newApp(log, cmd, gCfg)
		if err != nil {
			return err
		}
		url := args[0]
		if !webhook.IsValidURL(url) {
			return fmt.Errorf("invalid Discord webhook URL, %s", webhook.URLHint)
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		res := a.tester.Test(ctx, url, webhook.TestPayload(time.Now()))
		if !res.OK {
			log.WithFields(logrus.Fields{"status": res.Status, "detail": res.Detail}).Debug("webhook test failed")
			return errors.New("couldn't send webhook, please check your webhook URL")
		}
		log.Infof("test message sent (status %d), check your Discord channel", res.Status)
		return nil
	})
	return cmd
}
