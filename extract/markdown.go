package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/boillodmanuel/markdown-link-check/result"
)

var (
	// refDefinition matches "[label]: destination" reference definitions,
	// but not "[^note]: text" footnotes.
	refDefinition = regexp.MustCompile(`^ {0,3}\[[^\]^][^\]]*\]:\s*<?([^\s>]+)>?`)

	// autolink matches "<scheme:...>" and "<user@host>".
	autolink = regexp.MustCompile(`<([A-Za-z][A-Za-z0-9+.-]{1,31}:[^\s<>]+|[^\s<>@:/]+@[^\s<>@]+\.[^\s<>@]+)>`)

	// htmlAttr matches link-carrying attributes of inline HTML.
	htmlAttr = regexp.MustCompile(`(?i)<(?:a|img|link|script|iframe|source|video|audio)\b[^>]*?\s(?:href|src)\s*=\s*(?:"([^"]*)"|'([^']*)')`)

	// bareURL matches URLs written as plain text.
	bareURL = regexp.MustCompile("https?://[^\\s<>\"'`\\[\\]]+")
)

type span struct{ start, end int }

type found struct {
	line, col int
	raw       string
}

// Markdown lists the links of a Markdown document in source order: inline
// links and images, reference definitions, autolinks, links in inline HTML
// and bare URLs. Code blocks and code spans are skipped.
func Markdown(content string) []result.Link {
	var links []found
	var fence string

	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		lineNo := i + 1
		trimmed := strings.TrimLeft(line, " ")
		indent := len(line) - len(trimmed)

		if fence != "" {
			if indent < 4 && closesFence(trimmed, fence) {
				fence = ""
			}
			continue
		}
		if indent < 4 {
			if f := openingFence(trimmed); f != "" {
				fence = f
				continue
			}
		}

		if m := refDefinition.FindStringSubmatchIndex(line); m != nil {
			links = append(links, found{line: lineNo, col: m[2], raw: line[m[2]:m[3]]})
			continue
		}

		links = append(links, lineLinks(maskCodeSpans(line), lineNo)...)
	}

	sort.SliceStable(links, func(a, b int) bool {
		if links[a].line != links[b].line {
			return links[a].line < links[b].line
		}
		return links[a].col < links[b].col
	})

	out := make([]result.Link, len(links))
	for i, l := range links {
		out[i] = result.Link{Raw: l.raw, Line: l.line}
	}
	return out
}

// lineLinks extracts the links of one line outside code blocks.
func lineLinks(text string, lineNo int) []found {
	var links []found
	var taken []span

	add := func(col int, raw string, s span) {
		taken = append(taken, s)
		if raw = strings.TrimSpace(raw); raw != "" {
			links = append(links, found{line: lineNo, col: col, raw: raw})
		}
	}

	for offset := 0; ; {
		p := strings.Index(text[offset:], "](")
		if p < 0 {
			break
		}
		p += offset
		dest, destStart, end := destination(text, p+2)
		if end < 0 {
			offset = p + 2
			continue
		}
		add(destStart, dest, span{openingBracket(text, p), end})
		offset = end
	}

	for _, m := range autolink.FindAllStringSubmatchIndex(text, -1) {
		if !overlaps(taken, m[0]) {
			add(m[2], text[m[2]:m[3]], span{m[0], m[1]})
		}
	}

	for _, m := range htmlAttr.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(taken, m[0]) {
			continue
		}
		start, end := m[2], m[3]
		if start < 0 {
			start, end = m[4], m[5]
		}
		add(start, text[start:end], span{m[0], m[1]})
	}

	for _, m := range bareURL.FindAllStringIndex(text, -1) {
		if overlaps(taken, m[0]) {
			continue
		}
		add(m[0], trimURL(text[m[0]:m[1]]), span{m[0], m[1]})
	}

	return links
}

// destination parses an inline link destination starting at i, the byte
// after "](". It returns the destination, where it starts and the index
// just past the closing parenthesis, or -1 when the link is not closed.
func destination(text string, i int) (string, int, int) {
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	if i < len(text) && text[i] == '<' {
		end := strings.IndexByte(text[i+1:], '>')
		if end < 0 {
			return "", i, -1
		}
		dest := text[i+1 : i+1+end]
		return dest, i + 1, closingParen(text, i+2+end)
	}

	start, depth := i, 0
	for ; i < len(text); i++ {
		switch c := text[i]; {
		case c == '\\' && i+1 < len(text):
			i++
		case c == '(':
			depth++
		case c == ')':
			if depth == 0 {
				return text[start:i], start, i + 1
			}
			depth--
		case c == ' ' || c == '\t':
			return text[start:i], start, closingParen(text, i)
		}
	}
	return "", start, -1
}

// closingParen returns the index past the ')' ending a link, skipping an
// optional title, or -1.
func closingParen(text string, i int) int {
	var quote byte
	for ; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ')':
			return i + 1
		}
	}
	return -1
}

// openingBracket finds the '[' matching the ']' at p, or p if there is none.
func openingBracket(text string, p int) int {
	depth := 0
	for i := p; i >= 0; i-- {
		switch text[i] {
		case ']':
			depth++
		case '[':
			depth--
			if depth == 0 {
				if i > 0 && text[i-1] == '!' {
					return i - 1
				}
				return i
			}
		}
	}
	return p
}

func overlaps(taken []span, pos int) bool {
	for _, s := range taken {
		if pos >= s.start && pos < s.end {
			return true
		}
	}
	return false
}

// trimURL drops trailing punctuation that ends the sentence rather than the
// URL, and a closing parenthesis without an opening one.
func trimURL(u string) string {
	for u != "" {
		last := u[len(u)-1]
		switch {
		case strings.IndexByte(".,;:!?*_~", last) >= 0:
			u = u[:len(u)-1]
		case last == ')' && strings.Count(u, "(") < strings.Count(u, ")"):
			u = u[:len(u)-1]
		default:
			return u
		}
	}
	return u
}

// maskCodeSpans blanks inline code spans, keeping byte offsets intact.
func maskCodeSpans(line string) string {
	if !strings.Contains(line, "`") {
		return line
	}
	b := []byte(line)
	for i := 0; i < len(b); {
		if b[i] != '`' {
			i++
			continue
		}
		n := 0
		for i+n < len(b) && b[i+n] == '`' {
			n++
		}
		closing := findRun(b, i+n, n)
		if closing < 0 {
			i += n
			continue
		}
		for j := i; j < closing+n; j++ {
			b[j] = ' '
		}
		i = closing + n
	}
	return string(b)
}

// findRun returns the start of the next run of exactly n backticks at or
// after i, or -1.
func findRun(b []byte, i, n int) int {
	for i < len(b) {
		if b[i] != '`' {
			i++
			continue
		}
		run := 0
		for i+run < len(b) && b[i+run] == '`' {
			run++
		}
		if run == n {
			return i
		}
		i += run
	}
	return -1
}

func openingFence(trimmed string) string {
	for _, c := range []byte{'`', '~'} {
		n := 0
		for n < len(trimmed) && trimmed[n] == c {
			n++
		}
		if n >= 3 {
			if c == '`' && strings.Contains(trimmed[n:], "`") {
				return ""
			}
			return trimmed[:n]
		}
	}
	return ""
}

func closesFence(trimmed, fence string) bool {
	if !strings.HasPrefix(trimmed, fence) {
		return false
	}
	return strings.TrimSpace(strings.TrimLeft(trimmed, fence[:1])) == ""
}
