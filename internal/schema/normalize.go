package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type optionsDocument struct {
	Categories []optionsCategory `json:"categories"`
	Logs       json.RawMessage   `json:"logs"`
}

type optionsCategory struct {
	ID    string        `json:"id"`
	Label string        `json:"label"`
	Items []optionsItem `json:"items"`
}

type optionsItem struct {
	ConfigKey    string `json:"configKey"`
	Label        string `json:"label"`
	Default      *bool  `json:"default"`
	ColorKey     string `json:"colorKey"`
	DefaultColor string `json:"defaultColor"`
}

type legacyItem struct {
	Label   string `json:"label"`
	Default *bool  `json:"default"`
	Color   string `json:"color"`
}

// Normalize parses an options document. Both the nested "categories" shape
// and the flat legacy "logs" shape are accepted; any other well-formed JSON
// yields an empty schema. Duplicate item or color keys keep their first
// occurrence.
func Normalize(data []byte) (*Schema, error) {
	var doc optionsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		var anyDoc any
		if json.Unmarshal(data, &anyDoc) == nil {
			// valid JSON of an unknown shape (e.g. an array)
			return &Schema{}, nil
		}
		return nil, fmt.Errorf("invalid options document: %w", err)
	}
	b := newBuilder()
	switch {
	case len(doc.Categories) > 0:
		for _, c := range doc.Categories {
			for _, it := range c.Items {
				key := strings.TrimPrefix(strings.TrimSpace(it.ConfigKey), "log.")
				if key == "" {
					continue
				}
				b.add(c.ID, c.Label, &Item{
					Key:          key,
					Label:        it.Label,
					Default:      it.Default == nil || *it.Default,
					ColorKey:     strings.TrimSpace(it.ColorKey),
					DefaultColor: strings.TrimSpace(it.DefaultColor),
				})
			}
		}
	case len(doc.Logs) > 0:
		if err := normalizeLegacy(b, doc.Logs); err != nil {
			return nil, err
		}
	}
	return b.schema, nil
}

func normalizeLegacy(b *builder, raw json.RawMessage) error {
	keys, values, err := orderedObject(raw)
	if err != nil {
		// "logs" present but not an object: unknown shape
		return nil
	}
	for i, k := range keys {
		var li legacyItem
		if err := json.Unmarshal(values[i], &li); err != nil {
			continue
		}
		key := strings.TrimPrefix(strings.TrimSpace(k), "log.")
		catID, _, found := strings.Cut(key, ".")
		if !found || catID == "" {
			continue
		}
		item := &Item{
			Key:     key,
			Label:   li.Label,
			Default: li.Default == nil || *li.Default,
		}
		if c := strings.TrimSpace(li.Color); c != "" {
			item.ColorKey = key
			item.DefaultColor = c
		}
		b.add(catID, titleCase(catID), item)
	}
	return nil
}

// orderedObject decodes a JSON object keeping the document order of its keys.
func orderedObject(raw json.RawMessage) ([]string, []json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected a JSON object")
	}
	var keys []string
	var values []json.RawMessage
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		k, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected an object key")
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		keys = append(keys, k)
		values = append(values, v)
	}
	return keys, values, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type builder struct {
	schema    *Schema
	byID      map[string]*Category
	itemKeys  map[string]bool
	colorKeys map[string]bool
}

func newBuilder() *builder {
	return &builder{
		schema:    &Schema{Categories: make([]*Category, 0)},
		byID:      make(map[string]*Category),
		itemKeys:  make(map[string]bool),
		colorKeys: make(map[string]bool),
	}
}

func (b *builder) add(catID, catLabel string, item *Item) {
	if b.itemKeys[item.Key] {
		return
	}
	if item.ColorKey != "" && b.colorKeys[item.ColorKey] {
		item.ColorKey = ""
		item.DefaultColor = ""
	}
	if catID == "" {
		catID, _, _ = strings.Cut(item.Key, ".")
	}
	c, ok := b.byID[catID]
	if !ok {
		if catLabel == "" {
			catLabel = titleCase(catID)
		}
		c = &Category{ID: catID, Label: catLabel}
		b.byID[catID] = c
		b.schema.Categories = append(b.schema.Categories, c)
	}
	if item.Label == "" {
		item.Label = item.Key
	}
	b.itemKeys[item.Key] = true
	if item.ColorKey != "" {
		b.colorKeys[item.ColorKey] = true
	}
	c.Items = append(c.Items, item)
}
