package campaign

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/sugarfunk/campaignshot/internal/config"
)

// contentPolicy keeps the formatting a newsletter body uses and drops
// scripts, event handlers and unknown elements.
func contentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements("b", "strong", "i", "em", "u", "s", "del")
	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowElements("p", "br", "hr", "div", "span")
	p.AllowElements("ul", "ol", "li")
	p.AllowElements("blockquote", "code", "pre")

	p.AllowElements("table", "thead", "tbody", "tr", "th", "td")
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")

	p.AllowElements("img")
	p.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")

	p.AllowElements("a")
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireParseableURLs(true)

	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).Globally()
	return p
}

// PrepareContent returns the HTML fragment to inject. Markdown takes
// precedence over HTML when both are configured.
func PrepareContent(c config.CampaignConfig) (string, error) {
	source := c.ContentHTML
	if strings.TrimSpace(c.ContentMarkdown) != "" {
		md := goldmark.New(goldmark.WithRendererOptions(html.WithUnsafe()))

		var buf bytes.Buffer
		if err := md.Convert([]byte(c.ContentMarkdown), &buf); err != nil {
			return "", fmt.Errorf("render campaign markdown: %w", err)
		}
		source = buf.String()
	}
	return strings.TrimSpace(contentPolicy().Sanitize(source)), nil
}
