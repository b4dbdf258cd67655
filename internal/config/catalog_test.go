package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	require.NoError(t, DefaultCatalog.Validate())
	cv, ok := DefaultCatalog.Versions.ConfigVersionFor("2.1.5")
	require.True(t, ok)
	require.Equal(t, "v9", cv)
	_, ok = DefaultCatalog.Versions.ConfigVersionFor("0.0.1")
	require.False(t, ok)
}

func TestValidateMissingAssets(t *testing.T) {
	c := &Catalog{
		Versions: VersionCatalog{"2.1.6": {ConfigVersion: "v10"}},
		Assets:   AssetCatalog{},
	}
	require.ErrorContains(t, c.Validate(), "has no assets")

	c.Versions = VersionCatalog{"not-a-version": {ConfigVersion: "v9"}}
	require.ErrorContains(t, c.Validate(), "not a valid version")
}

func TestSortedVersions(t *testing.T) {
	c := VersionCatalog{
		"2.1.5":  {ConfigVersion: "v9"},
		"2.2.0":  {ConfigVersion: "v10"},
		"2.1.10": {ConfigVersion: "v9"},
	}
	require.Equal(t, []string{"2.2.0", "2.1.10", "2.1.5"}, c.Sorted())
	require.Equal(t, "2.2.0", c.Latest())
	require.Equal(t, "", VersionCatalog{}.Latest())
}

func TestResolveLocators(t *testing.T) {
	c := &Catalog{
		Versions: VersionCatalog{"2.1.5": {ConfigVersion: "v9"}},
		Assets: AssetCatalog{
			"v9": {TemplateLocation: "configs/v9/config.template.yml", OptionsLocation: "s3://bucket/v9/options.json"},
		},
	}
	embedded := c.Resolve("")
	require.Equal(t, "embed:configs/v9/config.template.yml", embedded.Assets["v9"].TemplateLocation)
	require.Equal(t, "s3://bucket/v9/options.json", embedded.Assets["v9"].OptionsLocation)

	remote := c.Resolve("https://discordlogger.example/assets/")
	require.Equal(t, "https://discordlogger.example/assets/configs/v9/config.template.yml", remote.Assets["v9"].TemplateLocation)
	// the source catalog is untouched
	require.Equal(t, "configs/v9/config.template.yml", c.Assets["v9"].TemplateLocation)
}

func TestLoadCatalogFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "catalog.yml")
	require.NoError(t, os.WriteFile(p, []byte(`
versions:
  "2.2.0":
    configVersion: v10
configs:
  v10:
    templateLocation: https://example.com/v10/config.template.yml
    optionsLocation: https://example.com/v10/options.json
`), 0o644))

	cat, err := LoadCatalog(p)
	require.NoError(t, err)
	require.Equal(t, "v10", cat.Versions["2.2.0"].ConfigVersion)
	require.Equal(t, "v9", cat.Versions["2.1.5"].ConfigVersion)
	require.Equal(t, "https://example.com/v10/options.json", cat.Assets["v10"].OptionsLocation)
	require.Equal(t, []string{"2.2.0", "2.1.5"}, cat.Versions.Sorted())
}

func TestLoadCatalogFileMissingAssets(t *testing.T) {
	p := filepath.Join(t.TempDir(), "catalog.yml")
	require.NoError(t, os.WriteFile(p, []byte(`
versions:
  "2.2.0":
    configVersion: v11
`), 0o644))
	_, err := LoadCatalog(p)
	require.ErrorContains(t, err, "v11 which has no assets")

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}

func TestIsAllowedOrigin(t *testing.T) {
	c := &RelayConfig{AllowedOrigins: []string{"https://discordlogger.example", " https://pages.example"}}
	require.True(t, c.IsAllowedOrigin("https://discordlogger.example"))
	require.True(t, c.IsAllowedOrigin("https://pages.example"))
	require.False(t, c.IsAllowedOrigin(""))
	require.False(t, c.IsAllowedOrigin("https://evil.example"))
}
