package topic

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedCatalog(t *testing.T) {
	t.Parallel()

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Categories()) < 2 {
		t.Fatalf("expected several categories, got %v", c.Categories())
	}
	for _, cat := range c.Categories() {
		if len(c.Topics(cat)) == 0 {
			t.Fatalf("category %q has no topics", cat)
		}
	}
}

func TestRandomDrawsFromCatalog(t *testing.T) {
	t.Parallel()

	c, err := Parse([]byte(`
categories:
  - name: a
    topics: [one, two]
  - name: b
    topics: [three]
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	r := rand.New(rand.NewPCG(1, 2))
	seen := map[Category]bool{}
	for i := 0; i < 200; i++ {
		tp := c.Random(r)
		found := false
		for _, text := range c.Topics(tp.Category) {
			if text == tp.Text {
				found = true
			}
		}
		if !found {
			t.Fatalf("topic %+v is not in its category", tp)
		}
		seen[tp.Category] = true
	}
	if !seen["a"] || !seen["b"] {
		t.Fatalf("expected both categories to be drawn, got %v", seen)
	}
}

func TestParseRejectsEmptyCategory(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"no categories": `categories: []`,
		"empty topics":  "categories:\n  - name: a\n    topics: []\n",
		"blank name":    "categories:\n  - name: \" \"\n    topics: [x]\n",
		"duplicate":     "categories:\n  - name: a\n    topics: [x]\n  - name: a\n    topics: [y]\n",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadOverrideFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "topics.yaml")
	if err := os.WriteFile(path, []byte("categories:\n  - name: only\n    topics: [solo]\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := c.Random(nil); got.Category != "only" || got.Text != "solo" {
		t.Fatalf("unexpected topic: %+v", got)
	}
}
