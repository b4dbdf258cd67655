// Package schema loads and normalizes the versioned description of the
// log categories, toggles and embed colors a config version offers.
package schema

import "errors"

var (
	ErrAssetMissing = errors.New("no assets for this version")
	ErrFetchFailed  = errors.New("could not load config assets")
)

type Item struct {
	// Key is the logical dot-qualified key, e.g. "player.join".
	Key          string
	Label        string
	Default      bool
	ColorKey     string
	DefaultColor string
}

func (i *Item) HasColor() bool {
	return i.ColorKey != ""
}

type Category struct {
	ID    string
	Label string
	Items []*Item
}

type Schema struct {
	Categories []*Category
}

func (s *Schema) IsEmpty() bool {
	return s == nil || len(s.Items()) == 0
}

// Items returns all items in category order.
func (s *Schema) Items() []*Item {
	if s == nil {
		return nil
	}
	ret := make([]*Item, 0)
	for _, c := range s.Categories {
		ret = append(ret, c.Items...)
	}
	return ret
}

func (s *Schema) Find(key string) *Item {
	for _, i := range s.Items() {
		if i.Key == key {
			return i
		}
	}
	return nil
}

// ToggleDefaults maps every item key to its declared default.
func (s *Schema) ToggleDefaults() map[string]bool {
	ret := make(map[string]bool)
	for _, i := range s.Items() {
		ret[i.Key] = i.Default
	}
	return ret
}

// ColorDefaults maps every declared color key to its default color.
func (s *Schema) ColorDefaults() map[string]string {
	ret := make(map[string]string)
	for _, i := range s.Items() {
		if i.HasColor() {
			ret[i.ColorKey] = i.DefaultColor
		}
	}
	return ret
}

// Bundle is the cached result of loading one config version.
type Bundle struct {
	ConfigVersion string
	Template      string
	Schema        *Schema
}
