package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/godtiergamers/dlconfig/internal/config"
	"github.com/godtiergamers/dlconfig/internal/state"
	"github.com/godtiergamers/dlconfig/internal/synth"
	"github.com/godtiergamers/dlconfig/internal/webhook"
	"github.com/godtiergamers/dlconfig/internal/wizard"
	"github.com/manifoldco/promptui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	actionContinue = "Continue"
	actionBack     = "Back"
)

var errFinished = errors.New("finished")

func newWizardCmd(log *logrus.Logger, gCfg *config.GeneratorConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Build a config.yml step by step",
		Args:  cobra.NoArgs,
	}
	cmd.Run = runE(log, func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(log, cmd, gCfg)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ui := &wizardUI{app: a, ctl: a.newController()}
		return ui.run(ctx)
	})
	return cmd
}

type wizardUI struct {
	app *app
	ctl *wizard.Controller
}

func (u *wizardUI) run(ctx context.Context) error {
	fmt.Println("DiscordLogger config generator")
	fmt.Println()
	for {
		var err error
		switch u.ctl.Step() {
		case wizard.StepVersion:
			err = u.versionStep(ctx)
		case wizard.StepWebhook:
			err = u.webhookStep(ctx)
		case wizard.StepStyle:
			err = u.styleStep(ctx)
		case wizard.StepToggles:
			err = u.togglesStep(ctx)
		case wizard.StepColors:
			err = u.colorsStep(ctx)
		case wizard.StepResult:
			err = u.resultStep()
		}
		if errors.Is(err, errFinished) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func selectAction(label string, cursor int, items ...string) (int, string, error) {
	p := promptui.Select{
		Label:     label,
		Items:     items,
		Size:      12,
		CursorPos: cursor,
	}
	return p.Run()
}

func (u *wizardUI) versionStep(ctx context.Context) error {
	versions := u.app.catalog.Versions.Sorted()
	cursor := 0
	for i, v := range versions {
		if v == u.ctl.State().PluginVersion {
			cursor = i
		}
	}
	_, pv, err := selectAction("Plugin version", cursor, versions...)
	if err != nil {
		return fmt.Errorf("plugin version: %w", err)
	}
	if err := u.ctl.SelectPluginVersion(pv); err != nil {
		return err
	}
	return u.ctl.Next(ctx)
}

func (u *wizardUI) webhookStep(ctx context.Context) error {
	if notice := u.ctl.Notice(); notice != "" {
		fmt.Println(promptui.IconWarn + " " + notice)
	}
	p := promptui.Prompt{
		Label:     "Discord webhook URL",
		Default:   u.ctl.State().WebhookURL(),
		AllowEdit: true,
		Validate: func(s string) error {
			if !webhook.IsValidURL(s) {
				return errors.New(webhook.URLHint)
			}
			return nil
		},
	}
	url, err := p.Run()
	if err != nil {
		return fmt.Errorf("webhook URL: %w", err)
	}
	u.ctl.SetWebhookURL(url)

	const (
		sendTest = "Send test message"
		received = "Yes, I received the test message"
		editURL  = "Change the URL"
	)
	for {
		_, action, err := selectAction("Webhook", 0, sendTest, received, editURL, actionBack)
		if err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
		switch action {
		case sendTest:
			res, err := u.ctl.SendTest(ctx)
			if err != nil {
				return err
			}
			if res.OK {
				fmt.Println(promptui.IconGood + " Test message sent. Did it arrive in your channel?")
			} else {
				fmt.Println(promptui.IconBad + " Couldn't send webhook, please check your webhook URL.")
				fmt.Println("  If the message arrived anyway, confirm it below.")
			}
		case received:
			if err := u.ctl.Confirm(); err != nil {
				return err
			}
			fmt.Println(promptui.IconGood + " Great! Webhook confirmed.")
			return u.ctl.Next(ctx)
		case editURL:
			return nil
		case actionBack:
			return u.ctl.Back()
		}
	}
}

func (u *wizardUI) styleStep(ctx context.Context) error {
	const (
		structured = "Embeds (structured)"
		plain      = "Plain text"
	)
	st := u.ctl.State()
	cursor := 0
	if st.OutputStyle == state.StylePlain {
		cursor = 1
	}
	idx, _, err := selectAction("Log style", cursor, structured, plain, actionBack)
	if err != nil {
		return fmt.Errorf("log style: %w", err)
	}
	switch idx {
	case 0:
		st.OutputStyle = state.StyleStructured
		if st.StructuredAuthorName, err = ask("Embed author name", st.StructuredAuthorName); err != nil {
			return err
		}
	case 1:
		st.OutputStyle = state.StylePlain
		if st.PlainServerName, err = ask("Server name", st.PlainServerName); err != nil {
			return err
		}
		if st.PlainTimestampPattern, err = ask("Timestamp pattern", st.PlainTimestampPattern); err != nil {
			return err
		}
	default:
		return u.ctl.Back()
	}
	return u.ctl.Next(ctx)
}

func ask(label, def string) (string, error) {
	p := promptui.Prompt{
		Label:     label,
		Default:   def,
		AllowEdit: true,
	}
	res, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("%s: %w", label, err)
	}
	return res, nil
}

func (u *wizardUI) togglesStep(ctx context.Context) error {
	if notice := u.ctl.Notice(); notice != "" {
		fmt.Println(promptui.IconWarn + " " + notice)
	}
	items := u.ctl.Schema().Items()
	cursor := 0
	for {
		labels := make([]string, 0, len(items)+2)
		for _, i := range items {
			mark := "[ ]"
			if u.ctl.State().Toggles[i.Key] {
				mark = "[x]"
			}
			labels = append(labels, fmt.Sprintf("%s %s (%s)", mark, i.Label, i.Key))
		}
		labels = append(labels, actionContinue, actionBack)
		idx, _, err := selectAction("Log categories (select to toggle)", cursor, labels...)
		if err != nil {
			return fmt.Errorf("toggles: %w", err)
		}
		switch {
		case idx < len(items):
			key := items[idx].Key
			if err := u.ctl.SetToggle(key, !u.ctl.State().Toggles[key]); err != nil {
				return err
			}
			cursor = idx
		case idx == len(items):
			return u.ctl.Next(ctx)
		default:
			return u.ctl.Back()
		}
	}
}

func (u *wizardUI) colorsStep(ctx context.Context) error {
	var items []colorItem
	for _, i := range u.ctl.Schema().Items() {
		if i.HasColor() {
			items = append(items, colorItem{key: i.ColorKey, label: i.Label})
		}
	}
	cursor := 0
	for {
		labels := make([]string, 0, len(items)+2)
		for _, i := range items {
			labels = append(labels, fmt.Sprintf("%-8s %s (%s)", u.ctl.State().Colors[i.key], i.label, i.key))
		}
		labels = append(labels, actionContinue, actionBack)
		idx, _, err := selectAction("Embed colors (select to edit)", cursor, labels...)
		if err != nil {
			return fmt.Errorf("colors: %w", err)
		}
		switch {
		case idx < len(items):
			p := promptui.Prompt{
				Label:     items[idx].label + " color",
				Default:   u.ctl.State().Colors[items[idx].key],
				AllowEdit: true,
				Validate: func(s string) error {
					if !state.IsValidHexColor(s) {
						return state.ErrInvalidColor
					}
					return nil
				},
			}
			color, err := p.Run()
			if err != nil {
				return fmt.Errorf("color: %w", err)
			}
			if err := u.ctl.SetColor(items[idx].key, color); err != nil {
				return err
			}
			cursor = idx
		case idx == len(items):
			return u.ctl.Next(ctx)
		default:
			return u.ctl.Back()
		}
	}
}

type colorItem struct {
	key   string
	label string
}

func (u *wizardUI) resultStep() error {
	fmt.Println()
	fmt.Print(u.ctl.Output())
	fmt.Println()

	const (
		save   = "Save to file"
		finish = "Finish"
	)
	_, action, err := selectAction("Result", 0, save, actionBack, finish)
	if err != nil {
		return fmt.Errorf("result: %w", err)
	}
	switch action {
	case save:
		path, err := ask("File name", synth.ArtifactFilename)
		if err != nil {
			return err
		}
		if err := u.app.writeArtifact(os.Stdout, u.ctl.Output(), path); err != nil {
			return err
		}
		return errFinished
	case actionBack:
		return u.ctl.Back()
	}
	return errFinished
}
