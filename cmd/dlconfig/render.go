package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/godtiergamers/dlconfig/internal/config"
	"github.com/godtiergamers/dlconfig/internal/state"
	"github.com/godtiergamers/dlconfig/internal/synth"
	"github.com/godtiergamers/dlconfig/internal/wizard"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRenderCmd(log *logrus.Logger, gCfg *config.GeneratorConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a config.yml without prompts",
		Args:  cobra.NoArgs,
	}
	cmd.Run = runE(log, func(cmd *cobra.Command, _ []string) error {
		return runRender(log, cmd, gCfg)
	})

	cmd.Flags().StringP("plugin-version", "p", "", "plugin version (defaults to the newest catalog entry)")
	cmd.Flags().StringP("webhook-url", "w", "", "Discord webhook URL")
	cmd.Flags().Bool("skip-test", false, "do not send the webhook test message")
	cmd.Flags().Bool("confirm-webhook", false, "confirm that the webhook works")
	cmd.Flags().String("style", "structured", "log style: structured (embeds) or plain")
	cmd.Flags().String("author", state.DefaultAuthorName, "embed author name (structured style)")
	cmd.Flags().String("server-name", "", "server name (plain style)")
	cmd.Flags().String("time-format", state.DefaultTimestampPattern, "timestamp pattern (plain style)")
	cmd.Flags().StringSlice("enable", nil, "log keys to enable, e.g. player.teleport")
	cmd.Flags().StringSlice("disable", nil, "log keys to disable, e.g. player.chat")
	cmd.Flags().StringToString("color", nil, "embed colors, e.g. player.join=#57F287")
	cmd.Flags().StringP("output", "o", synth.ArtifactFilename, "output file, - for stdout")
	cmd.Flags().SortFlags = false
	return cmd
}

func runRender(log *logrus.Logger, cmd *cobra.Command, gCfg *config.GeneratorConfig) error {
	a, err := newApp(log, cmd, gCfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctl := a.newController()
	if pv := must(cmd.Flags().GetString("plugin-version")); pv != "" {
		if err := ctl.SelectPluginVersion(pv); err != nil {
			return err
		}
	}
	if err := ctl.Next(ctx); err != nil {
		return err
	}
	if notice := ctl.Notice(); notice != "" {
		log.Warn(notice)
	}

	ctl.SetWebhookURL(must(cmd.Flags().GetString("webhook-url")))
	if !must(cmd.Flags().GetBool("skip-test")) {
		res, err := ctl.SendTest(ctx)
		if err != nil {
			return err
		}
		if res.OK {
			log.Info("test message sent, check your Discord channel")
		} else {
			log.Warn("couldn't send webhook, please check your webhook URL")
		}
	}
	if must(cmd.Flags().GetBool("confirm-webhook")) {
		if err := ctl.Confirm(); err != nil {
			return err
		}
	}
	if err := ctl.Next(ctx); err != nil {
		if errors.Is(err, wizard.ErrWebhookNotConfirmed) {
			return fmt.Errorf("%w (pass --confirm-webhook once the test message arrived)", err)
		}
		return err
	}

	st := ctl.State()
	st.OutputStyle, err = state.ParseOutputStyle(must(cmd.Flags().GetString("style")))
	if err != nil {
		return err
	}
	st.StructuredAuthorName = must(cmd.Flags().GetString("author"))
	st.PlainServerName = must(cmd.Flags().GetString("server-name"))
	st.PlainTimestampPattern = must(cmd.Flags().GetString("time-format"))
	if err := ctl.Next(ctx); err != nil {
		return err
	}

	for _, key := range must(cmd.Flags().GetStringSlice("enable")) {
		if err := ctl.SetToggle(key, true); err != nil {
			return err
		}
	}
	for _, key := range must(cmd.Flags().GetStringSlice("disable")) {
		if err := ctl.SetToggle(key, false); err != nil {
			return err
		}
	}
	if err := ctl.Next(ctx); err != nil {
		return err
	}

	colors := must(cmd.Flags().GetStringToString("color"))
	if ctl.Step() == wizard.StepColors {
		for key, color := range colors {
			if err := ctl.SetColor(key, color); err != nil {
				return err
			}
		}
		if err := ctl.Next(ctx); err != nil {
			return err
		}
	} else if len(colors) > 0 {
		log.Warn("ignoring --color, colors only apply to the structured style")
	}

	return a.writeArtifact(cmd.OutOrStdout(), ctl.Output(), must(cmd.Flags().GetString("output")))
}
