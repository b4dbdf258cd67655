// Package synth renders a config template against a schema and wizard state.
package synth

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/godtiergamers/dlconfig/internal/schema"
	"github.com/godtiergamers/dlconfig/internal/state"
)

const (
	ArtifactFilename = "config.yml"
	ArtifactMIMEType = "text/yaml"

	// TimestampLayout is the layout of the GENERATED_AT token.
	TimestampLayout = "2006-01-02 15:04:05"

	defaultStamp = "# CONFIG VERSION {{CONFIG_VERSION}}, GENERATED ON {{GENERATED_AT}}"
)

const (
	TokenWebhookURL    = "WEBHOOK_URL"
	TokenEmbedsEnabled = "EMBEDS_ENABLED"
	TokenEmbedAuthor   = "EMBED_AUTHOR"
	TokenTimeFormat    = "TIME_FORMAT"
	TokenServerName    = "SERVER_NAME"
	TokenNicknames     = "NICKNAMES"
	TokenConfigVersion = "CONFIG_VERSION"
	TokenGeneratedAt   = "GENERATED_AT"

	togglePrefix = "LOG_"
	colorPrefix  = "COLOR_"
)

var (
	tokenRe = regexp.MustCompile(`\{\{([A-Za-z0-9_.\-]+)\}\}`)

	stampFormatMarkers = []string{placeholder(TokenConfigVersion), placeholder(TokenGeneratedAt)}

	yamlQuoted = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
)

func placeholder(name string) string {
	return "{{" + name + "}}"
}

// Render substitutes the wizard state into template and appends exactly one
// version stamp. The result only depends on its arguments. A missing template
// or schema produces a YAML comment describing the problem.
func Render(template string, sch *schema.Schema, st *state.WizardState, now time.Time) string {
	if strings.TrimSpace(template) == "" {
		return errorComment("the config template for this version is missing", st)
	}
	if sch == nil || st == nil {
		return errorComment("the log options for this version could not be loaded", st)
	}
	tokens := Tokens(sch, st, now)

	trailingNewline := strings.HasSuffix(template, "\n")
	lines := strings.Split(strings.TrimSuffix(template, "\n"), "\n")
	stamp := defaultStamp
	body := make([]string, 0, len(lines))
	for _, line := range lines {
		switch {
		case isStampFormat(line):
			stamp = strings.TrimRight(line, "\r")
		case IsStampLine(line):
		default:
			body = append(body, line)
		}
	}

	var sb strings.Builder
	if len(body) > 0 {
		sb.WriteString(substitute(strings.Join(body, "\n"), tokens))
		sb.WriteString("\n")
	}
	sb.WriteString(substitute(stamp, tokens))
	if trailingNewline {
		sb.WriteString("\n")
	}
	return sb.String()
}

// Tokens builds the placeholder table for one render. Precedence per item is
// the user's edit, then the schema default; items without either are absent.
func Tokens(sch *schema.Schema, st *state.WizardState, now time.Time) map[string]string {
	tokens := map[string]string{
		TokenWebhookURL:    escape(st.WebhookURL()),
		TokenEmbedsEnabled: strconv.FormatBool(st.OutputStyle == state.StyleStructured),
		TokenEmbedAuthor:   escape(st.StructuredAuthorName),
		TokenTimeFormat:    escape(st.PlainTimestampPattern),
		TokenServerName:    escape(st.PlainServerName),
		TokenNicknames:     "true",
		TokenConfigVersion: strings.ToUpper(st.ConfigVersion),
		TokenGeneratedAt:   now.Format(TimestampLayout),
	}
	for _, item := range sch.Items() {
		enabled, ok := st.Toggles[item.Key]
		if !ok {
			enabled = item.Default
		}
		tokens[togglePrefix+item.Key] = strconv.FormatBool(enabled)

		if !item.HasColor() {
			continue
		}
		color, ok := st.Colors[item.ColorKey]
		if !ok || color == "" {
			color = item.DefaultColor
		}
		if color != "" {
			tokens[colorPrefix+item.ColorKey] = escape(color)
		}
	}
	return tokens
}

// substitute replaces known placeholders in one pass; values are never
// rescanned and unknown placeholders stay as they are.
func substitute(text string, tokens map[string]string) string {
	return tokenRe.ReplaceAllStringFunc(text, func(m string) string {
		name := m[2 : len(m)-2]
		if v, ok := tokens[name]; ok {
			return v
		}
		return m
	})
}

func isStampFormat(line string) bool {
	for _, m := range stampFormatMarkers {
		if !strings.Contains(line, m) {
			return false
		}
	}
	return true
}

// IsStampLine reports whether line is an already rendered version stamp.
func IsStampLine(line string) bool {
	l := strings.ToLower(line)
	return strings.Contains(l, "config version") && strings.Contains(l, "generated on")
}

func escape(s string) string {
	return yamlQuoted.Replace(s)
}

func errorComment(msg string, st *state.WizardState) string {
	if st != nil && st.ConfigVersion != "" {
		return "# ERROR: " + msg + " (" + strings.ToUpper(st.ConfigVersion) + ").\n"
	}
	return "# ERROR: " + msg + ".\n"
}
