package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadCatalog returns the default catalog overlaid with the entries of the
// YAML catalog file at path (if any) and DLCATALOG_* environment overrides,
// e.g. DLCATALOG_VERSIONS__2.1.6__CONFIGVERSION=v10.
func LoadCatalog(path string) (*Catalog, error) {
	k := koanf.New("__")

	cat := &Catalog{
		Versions: make(VersionCatalog),
		Assets:   make(AssetCatalog),
	}
	for v, e := range DefaultCatalog.Versions {
		cat.Versions[v] = e
	}
	for v, a := range DefaultCatalog.Assets {
		cat.Assets[v] = a
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("accessing catalog %s: %w", path, err)
		}
		// "__" as delimiter keeps dotted plugin versions as single keys
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading catalog %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("DLCATALOG_", "__", func(s string) string {
		return strings.TrimPrefix(s, "DLCATALOG_")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading catalog env overrides: %w", err)
	}
	normalizeEnvKeys(k)

	if err := k.Unmarshal("", cat); err != nil {
		return nil, fmt.Errorf("unmarshalling catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// env keys arrive upper-cased; map the known field names back onto the
// struct tags so they merge with file entries.
func normalizeEnvKeys(k *koanf.Koanf) {
	fields := map[string]string{
		"VERSIONS":         "versions",
		"CONFIGS":          "configs",
		"CONFIGVERSION":    "configVersion",
		"TEMPLATELOCATION": "templateLocation",
		"OPTIONSLOCATION":  "optionsLocation",
	}
	for _, key := range k.Keys() {
		parts := strings.Split(key, "__")
		changed := false
		for i, p := range parts {
			if n, ok := fields[p]; ok {
				parts[i] = n
				changed = true
			} else if i == 1 && strings.HasPrefix(p, "V") && changed {
				parts[i] = strings.ToLower(p)
			}
		}
		if !changed {
			continue
		}
		val := k.Get(key)
		k.Delete(key)
		_ = k.Set(strings.Join(parts, "__"), val)
	}
}
