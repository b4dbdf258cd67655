// Package webhook validates Discord webhook URLs and sends the test message.
package webhook

import (
	"regexp"
	"strings"
)

var webhookURLRe = regexp.MustCompile(`(?i)^https://(?:ptb\.|canary\.)?discord(?:app)?\.com/api/webhooks/\d+/[A-Za-z0-9_\-]+(?:\?[^#\s]*)?$`)

// URLHint describes the accepted URL shape for error messages.
const URLHint = "expected https://discord.com/api/webhooks/<numeric id>/<token>"

// IsValidURL reports whether url is a Discord channel webhook endpoint.
func IsValidURL(url string) bool {
	return webhookURLRe.MatchString(strings.TrimSpace(url))
}

// WithWaitParam asks Discord to answer with the created message instead of
// an empty 204.
func WithWaitParam(url string) string {
	if strings.Contains(url, "?") {
		return url + "&wait=true"
	}
	return url + "?wait=true"
}
