// Package assets bundles the default per-config-version templates and
// options documents so the generator works without network access.
package assets

import "embed"

//go:embed configs
var FS embed.FS
