package topic

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogRaw []byte

// Category is a taxonomy key such as "destinations".
type Category string

// Topic is a single draw from the catalog.
type Topic struct {
	Category Category
	Text     string
}

type catalogFile struct {
	Categories []struct {
		Name   string   `yaml:"name"`
		Topics []string `yaml:"topics"`
	} `yaml:"categories"`
}

type entry struct {
	category Category
	topics   []string
}

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	entries []entry
}

// Load returns the embedded catalog, or the file at path when path is set.
func Load(path string) (*Catalog, error) {
	raw := defaultCatalogRaw
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read topic catalog: %w", err)
		}
		raw = b
	}
	return Parse(raw)
}

// Parse decodes a YAML catalog document.
func Parse(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to decode topic catalog: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, errors.New("topic catalog has no categories")
	}

	c := &Catalog{entries: make([]entry, 0, len(file.Categories))}
	seen := make(map[string]struct{}, len(file.Categories))
	for _, cat := range file.Categories {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			return nil, errors.New("topic catalog has a category without a name")
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("topic catalog category %q is declared twice", name)
		}
		seen[name] = struct{}{}

		topics := make([]string, 0, len(cat.Topics))
		for _, t := range cat.Topics {
			if t = strings.TrimSpace(t); t != "" {
				topics = append(topics, t)
			}
		}
		if len(topics) == 0 {
			return nil, fmt.Errorf("topic catalog category %q has no topics", name)
		}
		c.entries = append(c.entries, entry{category: Category(name), topics: topics})
	}
	return c, nil
}

// Random draws a category uniformly, then a topic within it uniformly.
// A nil r uses the global source.
func (c *Catalog) Random(r *rand.Rand) Topic {
	intN := rand.IntN
	if r != nil {
		intN = r.IntN
	}
	e := c.entries[intN(len(c.entries))]
	return Topic{Category: e.category, Text: e.topics[intN(len(e.topics))]}
}

func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.category
	}
	return out
}

// Topics returns a copy of the topics listed under category.
func (c *Catalog) Topics(category Category) []string {
	for _, e := range c.entries {
		if e.category == category {
			return append([]string(nil), e.topics...)
		}
	}
	return nil
}
