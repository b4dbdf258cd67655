// Package state holds the single mutable record the wizard steps edit.
package state

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/godtiergamers/dlconfig/internal/schema"
)

var (
	ErrUnknownKey   = errors.New("key is not part of the current schema")
	ErrInvalidColor = errors.New("color must be a # followed by 3 or 6 hex digits")
)

type OutputStyle int

const (
	StyleStructured OutputStyle = iota
	StylePlain
)

func (o OutputStyle) String() string {
	if o == StylePlain {
		return "plain"
	}
	return "structured"
}

// ParseOutputStyle accepts "structured"/"embed" and "plain"/"text".
func ParseOutputStyle(s string) (OutputStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "structured", "embed", "embeds":
		return StyleStructured, nil
	case "plain", "text":
		return StylePlain, nil
	}
	return StyleStructured, fmt.Errorf("unknown output style %q", s)
}

const (
	DefaultAuthorName       = "Server Logs"
	DefaultTimestampPattern = "[HH:mm:ss dd:MM:yyyy]"
)

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func IsValidHexColor(c string) bool {
	return hexColorRe.MatchString(c)
}

// WizardState is the wizard's only mutable record. ConfigVersion is derived
// from PluginVersion by the controller, and the webhook confirmation is
// dropped whenever the URL changes.
type WizardState struct {
	PluginVersion string
	ConfigVersion string

	webhookURL       string
	webhookConfirmed bool

	OutputStyle           OutputStyle
	StructuredAuthorName  string
	PlainServerName       string
	PlainTimestampPattern string

	Toggles map[string]bool
	Colors  map[string]string
}

func New() *WizardState {
	return &WizardState{
		OutputStyle:           StyleStructured,
		StructuredAuthorName:  DefaultAuthorName,
		PlainTimestampPattern: DefaultTimestampPattern,
		Toggles:               make(map[string]bool),
		Colors:                make(map[string]string),
	}
}

func (s *WizardState) WebhookURL() string {
	return s.webhookURL
}

func (s *WizardState) WebhookConfirmed() bool {
	return s.webhookConfirmed
}

// SetWebhookURL stores url and re-locks the confirmation if it changed.
func (s *WizardState) SetWebhookURL(url string) {
	url = strings.TrimSpace(url)
	if url == s.webhookURL {
		return
	}
	s.webhookURL = url
	s.webhookConfirmed = false
}

func (s *WizardState) SetWebhookConfirmed(confirmed bool) {
	s.webhookConfirmed = confirmed
}

// SyncToggles prunes toggle keys absent from sch and backfills missing ones
// with their schema defaults.
func (s *WizardState) SyncToggles(sch *schema.Schema) {
	defaults := sch.ToggleDefaults()
	for k := range s.Toggles {
		if _, ok := defaults[k]; !ok {
			delete(s.Toggles, k)
		}
	}
	for k, v := range defaults {
		if _, ok := s.Toggles[k]; !ok {
			s.Toggles[k] = v
		}
	}
}

// SyncColors applies the SyncToggles rule to the color map.
func (s *WizardState) SyncColors(sch *schema.Schema) {
	defaults := sch.ColorDefaults()
	for k := range s.Colors {
		if _, ok := defaults[k]; !ok {
			delete(s.Colors, k)
		}
	}
	for k, v := range defaults {
		if _, ok := s.Colors[k]; !ok {
			s.Colors[k] = v
		}
	}
}

// Sync applies both sync rules.
func (s *WizardState) Sync(sch *schema.Schema) {
	s.SyncToggles(sch)
	s.SyncColors(sch)
}

func (s *WizardState) SetToggle(sch *schema.Schema, key string, enabled bool) error {
	if sch.Find(key) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	s.Toggles[key] = enabled
	return nil
}

func (s *WizardState) SetColor(sch *schema.Schema, colorKey, color string) error {
	color = strings.TrimSpace(color)
	if _, ok := sch.ColorDefaults()[colorKey]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, colorKey)
	}
	if !IsValidHexColor(color) {
		return fmt.Errorf("%w: %q", ErrInvalidColor, color)
	}
	s.Colors[colorKey] = color
	return nil
}
