// Package wizard implements the step machine that walks a user from a plugin
// version to a rendered config.yml.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/godtiergamers/dlconfig/internal/config"
	"github.com/godtiergamers/dlconfig/internal/schema"
	"github.com/godtiergamers/dlconfig/internal/state"
	"github.com/godtiergamers/dlconfig/internal/synth"
	"github.com/godtiergamers/dlconfig/internal/webhook"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidWebhookURL    = errors.New("invalid Discord webhook URL, " + webhook.URLHint)
	ErrWebhookNotConfirmed  = errors.New("webhook has not been confirmed")
	ErrTestInFlight         = errors.New("a webhook test is already running")
	ErrNoNextStep           = errors.New("already at the last step")
	ErrNoPreviousStep       = errors.New("already at the first step")
	ErrUnknownPluginVersion = errors.New("unknown plugin version")
)

type Step int

const (
	StepVersion Step = iota
	StepWebhook
	StepStyle
	StepToggles
	StepColors
	StepResult
)

var stepNames = [...]string{"version", "webhook", "style", "toggles", "colors", "result"}

func (s Step) String() string {
	if s < StepVersion || s > StepResult {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

type SchemaLoader interface {
	Load(ctx context.Context, configVersion string) (*schema.Bundle, error)
}

type WebhookTester interface {
	Test(ctx context.Context, url string, payload any) webhook.Result
}

type Option func(c *Controller)

// WithClock replaces time.Now for test payloads and render stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// Controller owns the wizard state and enforces the transition guards.
// Apart from SendTest it is not safe for concurrent use.
type Controller struct {
	log      *logrus.Logger
	versions config.VersionCatalog
	loader   SchemaLoader
	tester   WebhookTester
	now      func() time.Time

	state   *state.WizardState
	step    Step
	bundle  *schema.Bundle
	loadErr error
	output  string

	testInFlight atomic.Bool
}

// New starts a wizard at the version step with the newest catalog entry
// preselected.
func New(log *logrus.Logger, versions config.VersionCatalog, loader SchemaLoader, tester WebhookTester, opts ...Option) *Controller {
	c := &Controller{
		log:      log,
		versions: versions,
		loader:   loader,
		tester:   tester,
		now:      time.Now,
		state:    state.New(),
		step:     StepVersion,
	}
	for _, o := range opts {
		o(c)
	}
	if latest := versions.Latest(); latest != "" {
		_ = c.SelectPluginVersion(latest)
	}
	return c
}

func (c *Controller) Step() Step {
	return c.step
}

func (c *Controller) State() *state.WizardState {
	return c.state
}

// Schema is the schema of the loaded config version, nil if loading failed.
func (c *Controller) Schema() *schema.Schema {
	if c.bundle == nil {
		return nil
	}
	return c.bundle.Schema
}

// LoadError is the error of the last schema load, if it failed.
func (c *Controller) LoadError() error {
	return c.loadErr
}

// Output is the config rendered when the result step was entered.
func (c *Controller) Output() string {
	return c.output
}

// Notice describes why the toggle and color steps have nothing to show.
func (c *Controller) Notice() string {
	switch {
	case errors.Is(c.loadErr, schema.ErrAssetMissing):
		return "No assets for this version. Go back and pick another plugin version."
	case c.loadErr != nil:
		return "Could not load the options for this version. Go back and try again."
	case c.Schema().IsEmpty():
		return "This version has no log options."
	}
	return ""
}

// SelectPluginVersion sets the plugin version and derives its config version.
func (c *Controller) SelectPluginVersion(pluginVersion string) error {
	cv, ok := c.versions.ConfigVersionFor(pluginVersion)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPluginVersion, pluginVersion)
	}
	c.state.PluginVersion = pluginVersion
	c.state.ConfigVersion = cv
	return nil
}

func (c *Controller) SetWebhookURL(url string) {
	c.state.SetWebhookURL(url)
}

// Confirm records that the user has seen the test message arrive.
func (c *Controller) Confirm() error {
	if !webhook.IsValidURL(c.state.WebhookURL()) {
		return ErrInvalidWebhookURL
	}
	c.state.SetWebhookConfirmed(true)
	return nil
}

// SendTest posts the test message to the current webhook URL. It never
// confirms the webhook; a failed send still leaves manual confirmation open.
func (c *Controller) SendTest(ctx context.Context) (webhook.Result, error) {
	url := c.state.WebhookURL()
	if !webhook.IsValidURL(url) {
		return webhook.Result{}, ErrInvalidWebhookURL
	}
	if !c.testInFlight.CompareAndSwap(false, true) {
		return webhook.Result{}, ErrTestInFlight
	}
	defer c.testInFlight.Store(false)

	res := c.tester.Test(ctx, url, webhook.TestPayload(c.now()))
	if !res.OK {
		c.log.WithFields(logrus.Fields{"status": res.Status, "detail": res.Detail}).Warn("webhook test failed")
	}
	return res, nil
}

func (c *Controller) SetToggle(key string, enabled bool) error {
	return c.state.SetToggle(c.Schema(), key, enabled)
}

func (c *Controller) SetColor(colorKey, color string) error {
	return c.state.SetColor(c.Schema(), colorKey, color)
}

// Next advances one step if the current step's guard allows it.
func (c *Controller) Next(ctx context.Context) error {
	switch c.step {
	case StepVersion:
		if c.state.ConfigVersion == "" {
			return ErrUnknownPluginVersion
		}
		c.load(ctx)
		c.step = StepWebhook
	case StepWebhook:
		if !webhook.IsValidURL(c.state.WebhookURL()) {
			return ErrInvalidWebhookURL
		}
		if !c.state.WebhookConfirmed() {
			return ErrWebhookNotConfirmed
		}
		c.step = StepStyle
	case StepStyle:
		c.enter(StepToggles)
	case StepToggles:
		if c.state.OutputStyle == state.StyleStructured {
			c.enter(StepColors)
		} else {
			c.enter(StepResult)
		}
	case StepColors:
		c.enter(StepResult)
	default:
		return ErrNoNextStep
	}
	return nil
}

// Back returns to the previous step. It never loads anything.
func (c *Controller) Back() error {
	switch c.step {
	case StepVersion:
		return ErrNoPreviousStep
	case StepResult:
		if c.state.OutputStyle == state.StyleStructured {
			c.enter(StepColors)
		} else {
			c.enter(StepToggles)
		}
	case StepColors:
		c.enter(StepToggles)
	default:
		c.step--
	}
	return nil
}

// Render synthesizes the config from the current state.
func (c *Controller) Render() string {
	var tpl string
	if c.bundle != nil {
		tpl = c.bundle.Template
	}
	return synth.Render(tpl, c.Schema(), c.state, c.now())
}

func (c *Controller) enter(step Step) {
	switch step {
	case StepToggles:
		c.state.SyncToggles(c.Schema())
	case StepColors:
		c.state.SyncColors(c.Schema())
	case StepResult:
		c.output = c.Render()
	}
	c.step = step
}

// load fetches the selected config version unless it is already loaded.
// Failures are recorded and leave the wizard with an empty schema.
func (c *Controller) load(ctx context.Context) {
	cv := c.state.ConfigVersion
	if c.bundle != nil && c.bundle.ConfigVersion == cv {
		return
	}
	b, err := c.loader.Load(ctx, cv)
	if err != nil {
		c.log.WithError(err).WithField("configVersion", cv).Warn("could not load config assets")
		c.bundle = nil
		c.loadErr = err
	} else {
		c.log.WithField("configVersion", cv).Debug("loaded config assets")
		c.bundle = b
		c.loadErr = nil
	}
	c.state.Sync(c.Schema())
}
