package content

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ifuryst/scribe/pkg/util"
)

var allowedTags = map[string]bool{
	"h2": true, "h3": true, "p": true, "ul": true, "ol": true, "li": true,
	"strong": true, "em": true, "a": true, "blockquote": true, "br": true,
}

// NormalizeHTML reduces model output to the article vocabulary and assigns
// deterministic anchor ids to every h2/h3. Unknown elements are unwrapped;
// script-like elements are dropped with their content.
func NormalizeHTML(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("failed to parse article html: %w", err)
	}

	body := doc.Find("body")
	body.Find("script, style, iframe, object, embed, noscript, template").Remove()

	body.Find("*").Each(func(_ int, s *goquery.Selection) {
		if !allowedTags[goquery.NodeName(s)] {
			s.ReplaceWithSelection(s.Contents())
			return
		}
		stripAttributes(s)
	})

	used := make(map[string]int)
	body.Find("h2, h3").Each(func(_ int, s *goquery.Selection) {
		id := util.AnchorID(s.Text())
		if id == "" {
			id = "section"
		}
		used[id]++
		if n := used[id]; n > 1 {
			id = id + "-" + strconv.Itoa(n)
		}
		s.SetAttr("id", id)
	})

	out, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render article html: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// stripAttributes keeps only safe href values on links.
func stripAttributes(s *goquery.Selection) {
	node := s.Get(0)
	isLink := node.Data == "a"

	kept := node.Attr[:0]
	for _, attr := range node.Attr {
		if isLink && attr.Key == "href" && safeHref(attr.Val) {
			kept = append(kept, attr)
		}
	}
	node.Attr = kept
}

func safeHref(href string) bool {
	h := strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(h, "http://") ||
		strings.HasPrefix(h, "https://") ||
		strings.HasPrefix(h, "/") ||
		strings.HasPrefix(h, "#")
}
