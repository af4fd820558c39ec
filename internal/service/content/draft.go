package content

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ifuryst/scribe/internal/service/llm"
	"github.com/ifuryst/scribe/pkg/util"
)

const maxTags = 10

// ErrParse marks a model reply that could not be turned into a Draft.
var ErrParse = errors.New("failed to parse generated article")

// Draft is the structured article proposed by the language model.
type Draft struct {
	Title          string   `json:"title"`
	Excerpt        string   `json:"excerpt"`
	ContentHTML    string   `json:"contentHtml"`
	Tags           []string `json:"tags"`
	SEOTitle       string   `json:"seoTitle"`
	SEODescription string   `json:"seoDescription"`
	ImageQuery     string   `json:"imageQuery"`
}

// ParseDraft extracts and validates a Draft from raw model output. Title and
// contentHtml are always required. With strict set, excerpt, tags, seoTitle
// and seoDescription are required too; otherwise they are defaulted.
func ParseDraft(raw string, strict bool) (*Draft, error) {
	var d Draft
	if err := llm.DecodeJSON(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	d.Title = strings.TrimSpace(d.Title)
	d.Excerpt = strings.TrimSpace(d.Excerpt)
	d.ContentHTML = strings.TrimSpace(d.ContentHTML)
	d.SEOTitle = strings.TrimSpace(d.SEOTitle)
	d.SEODescription = strings.TrimSpace(d.SEODescription)
	d.ImageQuery = strings.TrimSpace(d.ImageQuery)
	d.Tags = util.CleanTags(d.Tags, maxTags)

	var missing []string
	if d.Title == "" {
		missing = append(missing, "title")
	}
	if d.ContentHTML == "" {
		missing = append(missing, "contentHtml")
	}
	if strict {
		if d.Excerpt == "" {
			missing = append(missing, "excerpt")
		}
		if len(d.Tags) == 0 {
			missing = append(missing, "tags")
		}
		if d.SEOTitle == "" {
			missing = append(missing, "seoTitle")
		}
		if d.SEODescription == "" {
			missing = append(missing, "seoDescription")
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrParse, strings.Join(missing, ", "))
	}

	html, err := NormalizeHTML(d.ContentHTML)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if html == "" {
		return nil, fmt.Errorf("%w: contentHtml has no usable markup", ErrParse)
	}
	d.ContentHTML = html

	if d.SEOTitle == "" {
		d.SEOTitle = d.Title
	}
	if d.SEODescription == "" {
		d.SEODescription = d.Excerpt
	}

	return &d, nil
}
