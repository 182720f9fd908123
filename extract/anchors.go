package extract

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var (
	atxHeading    = regexp.MustCompile(`^ {0,3}#{1,6}(?:\s+(.*?))?(?:\s+#+)?\s*$`)
	setextLine    = regexp.MustCompile(`^ {0,3}(?:=+|-+)\s*$`)
	inlineLink    = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	htmlAnchorTag = regexp.MustCompile(`(?i)<[a-z][a-z0-9]*\b[^>]*?\s(?:id|name)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
)

// Anchors lists the anchors of the document at path, lower-cased: element
// ids and names for HTML files, heading slugs and inline HTML anchors for
// anything else.
func Anchors(path string) (map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if formatOf(path, "") == FormatHTML {
		return HTMLAnchors(string(data))
	}
	return MarkdownAnchors(string(data)), nil
}

// HTMLAnchors lists the id and name attributes of an HTML document.
func HTMLAnchors(content string) (map[string]bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	anchors := make(map[string]bool)
	doc.Find("[id], a[name]").Each(func(_ int, sel *goquery.Selection) {
		if id, ok := sel.Attr("id"); ok && id != "" {
			anchors[strings.ToLower(id)] = true
		}
		if name, ok := sel.Attr("name"); ok && name != "" && goquery.NodeName(sel) == "a" {
			anchors[strings.ToLower(name)] = true
		}
	})
	return anchors, nil
}

// MarkdownAnchors lists the heading slugs of a Markdown document as GitHub
// renders them, plus ids and names of inline HTML elements.
func MarkdownAnchors(content string) map[string]bool {
	anchors := make(map[string]bool)
	counts := make(map[string]int)
	addHeading := func(text string) {
		slug := Slug(text)
		if n := counts[slug]; n > 0 {
			anchors[slug+"-"+strconv.Itoa(n)] = true
		} else {
			anchors[slug] = true
		}
		counts[slug]++
	}

	var fence, previous string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		trimmed := strings.TrimLeft(line, " ")

		if fence != "" {
			if closesFence(trimmed, fence) {
				fence = ""
			}
			previous = ""
			continue
		}
		if f := openingFence(trimmed); f != "" {
			fence = f
			previous = ""
			continue
		}

		switch {
		case atxHeading.MatchString(line):
			addHeading(atxHeading.FindStringSubmatch(line)[1])
		case setextLine.MatchString(line) && strings.TrimSpace(previous) != "" && !isListOrQuote(previous):
			addHeading(previous)
		}

		for _, m := range htmlAnchorTag.FindAllStringSubmatch(line, -1) {
			value := m[1]
			if value == "" {
				value = m[2]
			}
			if value != "" {
				anchors[strings.ToLower(value)] = true
			}
		}
		previous = line
	}
	return anchors
}

// Slug turns heading text into its anchor: lower-case, markup removed,
// punctuation dropped and spaces turned into hyphens.
func Slug(heading string) string {
	heading = inlineLink.ReplaceAllString(strings.TrimSpace(heading), "$1")
	heading = htmlTag.ReplaceAllString(heading, "")

	var b strings.Builder
	for _, r := range strings.ToLower(heading) {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r), r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	return b.String()
}

var htmlTag = regexp.MustCompile(`<[^>]+>`)

func isListOrQuote(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, ">") || strings.HasPrefix(t, "- ") || strings.HasPrefix(t, "* ") || strings.HasPrefix(t, "+ ")
}

