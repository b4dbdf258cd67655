package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// VersionEntry maps one plugin release onto the config schema it ships with.
type VersionEntry struct {
	ConfigVersion string `koanf:"configVersion" yaml:"configVersion"`
}

// AssetEntry holds the opaque locators of a config version's resources.
type AssetEntry struct {
	TemplateLocation string `koanf:"templateLocation" yaml:"templateLocation"`
	OptionsLocation  string `koanf:"optionsLocation" yaml:"optionsLocation"`
}

type (
	VersionCatalog map[string]VersionEntry
	AssetCatalog   map[string]AssetEntry
)

type Catalog struct {
	Versions VersionCatalog `koanf:"versions" yaml:"versions"`
	Assets   AssetCatalog   `koanf:"configs" yaml:"configs"`
}

// DefaultCatalog is the catalog shipped with the generator. Relative
// locators are resolved against the asset base (see Catalog.Resolve).
var DefaultCatalog = Catalog{
	Versions: VersionCatalog{
		"2.1.5": {ConfigVersion: "v9"},
	},
	Assets: AssetCatalog{
		"v9": {
			TemplateLocation: "configs/v9/config.template.yml",
			OptionsLocation:  "configs/v9/options.json",
		},
	},
}

// ConfigVersionFor returns the config version a plugin version ships with.
func (c VersionCatalog) ConfigVersionFor(pluginVersion string) (string, bool) {
	e, ok := c[strings.TrimSpace(pluginVersion)]
	if !ok || e.ConfigVersion == "" {
		return "", false
	}
	return e.ConfigVersion, true
}

// Sorted returns the plugin versions newest first. Entries that are not
// valid semver are appended in lexical order.
func (c VersionCatalog) Sorted() []string {
	versions := make(semver.Collection, 0, len(c))
	original := make(map[*semver.Version]string, len(c))
	var invalid []string
	for v := range c {
		sv, err := semver.NewVersion(v)
		if err != nil {
			invalid = append(invalid, v)
			continue
		}
		versions = append(versions, sv)
		original[sv] = v
	}
	sort.Sort(sort.Reverse(versions))
	sort.Strings(invalid)
	ret := make([]string, 0, len(c))
	for _, v := range versions {
		ret = append(ret, original[v])
	}
	return append(ret, invalid...)
}

// Latest returns the newest plugin version of the catalog.
func (c VersionCatalog) Latest() string {
	sorted := c.Sorted()
	if len(sorted) == 0 {
		return ""
	}
	return sorted[0]
}

// Validate checks the cross references between both catalogs.
func (c *Catalog) Validate() error {
	if len(c.Versions) == 0 {
		return fmt.Errorf("version catalog is empty")
	}
	for pluginVersion, e := range c.Versions {
		if _, err := semver.NewVersion(pluginVersion); err != nil {
			return fmt.Errorf("plugin version %q is not a valid version: %w", pluginVersion, err)
		}
		if e.ConfigVersion == "" {
			return fmt.Errorf("plugin version %s has no config version", pluginVersion)
		}
		a, ok := c.Assets[e.ConfigVersion]
		if !ok {
			return fmt.Errorf("plugin version %s references config version %s which has no assets", pluginVersion, e.ConfigVersion)
		}
		if a.TemplateLocation == "" || a.OptionsLocation == "" {
			return fmt.Errorf("config version %s is missing a template or options location", e.ConfigVersion)
		}
	}
	return nil
}

// Resolve returns a copy of the catalog whose relative locators are joined
// onto base. With an empty base, relative locators point at the embedded
// assets.
func (c *Catalog) Resolve(base string) *Catalog {
	resolved := &Catalog{
		Versions: make(VersionCatalog, len(c.Versions)),
		Assets:   make(AssetCatalog, len(c.Assets)),
	}
	for k, v := range c.Versions {
		resolved.Versions[k] = v
	}
	for k, a := range c.Assets {
		resolved.Assets[k] = AssetEntry{
			TemplateLocation: resolveLocator(base, a.TemplateLocation),
			OptionsLocation:  resolveLocator(base, a.OptionsLocation),
		}
	}
	return resolved
}

func isAbsoluteLocator(loc string) bool {
	if strings.HasPrefix(loc, "/") || strings.HasPrefix(loc, EmbeddedScheme) {
		return true
	}
	scheme, _, found := strings.Cut(loc, "://")
	return found && scheme != "" && !strings.ContainsAny(scheme, "/.")
}

func resolveLocator(base, loc string) string {
	if loc == "" || isAbsoluteLocator(loc) {
		return loc
	}
	if base == "" {
		return EmbeddedScheme + loc
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(loc, "/")
}

// EmbeddedScheme prefixes locators served from the built-in assets.
const EmbeddedScheme = "embed:"
