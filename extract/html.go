package extract

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/boillodmanuel/markdown-link-check/result"
	"github.com/boillodmanuel/markdown-link-check/urlutil"
)

// linkAttrs maps tags to the attribute holding their link.
var linkAttrs = map[string]string{
	"a":      "href",
	"area":   "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
	"iframe": "src",
	"source": "src",
	"video":  "src",
	"audio":  "src",
	"embed":  "src",
}

// HTML lists the links of an HTML document in source order. Links are
// returned as written; resolution against the document URL happens later.
func HTML(content string) []result.Link {
	tokenizer := html.NewTokenizer(strings.NewReader(content))
	var links []result.Link
	line := 1

	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			// io.EOF or a parse error: keep what was found so far.
			return links
		}
		startLine := line
		line += strings.Count(string(tokenizer.Raw()), "\n")

		if tokenType != html.StartTagToken && tokenType != html.SelfClosingTagToken {
			continue
		}
		token := tokenizer.Token()
		want, ok := linkAttrs[token.Data]
		if !ok {
			continue
		}
		for _, attr := range token.Attr {
			if attr.Key != want {
				continue
			}
			href := strings.TrimSpace(attr.Val)
			if href == "" || skippedScheme(href) {
				continue
			}
			links = append(links, result.Link{Raw: href, Line: startLine})
		}
	}
}

// skippedScheme reports inline content that is not a link to anything.
func skippedScheme(href string) bool {
	switch urlutil.Scheme(href) {
	case "javascript", "data":
		return true
	}
	return false
}
