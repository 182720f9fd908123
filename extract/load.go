// Package extract loads input documents and lists the links and anchors
// they contain.
package extract

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/boillodmanuel/markdown-link-check/resolve"
	"github.com/boillodmanuel/markdown-link-check/result"
	"github.com/boillodmanuel/markdown-link-check/urlutil"
)

// Stdin names the standard input as an input.
const Stdin = "-"

// maxDocumentSize caps how much of a remote document is read.
const maxDocumentSize = 10 << 20

// Format is the markup of a document.
type Format int

const (
	FormatMarkdown Format = iota
	FormatHTML
)

// Source is a loaded document.
type Source struct {
	Name    string          // File name or URL as given
	Content string          // Decoded text
	Format  Format          // Markup used to extract links
	Context resolve.Context // Where relative links of the document point
}

// Links extracts the links of the document in source order.
func (s Source) Links() []result.Link {
	if s.Format == FormatHTML {
		return HTML(s.Content)
	}
	return Markdown(s.Content)
}

// Loader loads documents from files, URLs or standard input.
type Loader struct {
	Client   *http.Client // Used for URL inputs
	Encoding string       // Encoding of local files, "" for UTF-8
	BaseDir  string       // Directory root-relative links resolve against
	Stdin    io.Reader    // Defaults to os.Stdin
}

// Load reads the document named by nameOrURL.
func (l *Loader) Load(ctx context.Context, nameOrURL string) (Source, error) {
	switch {
	case nameOrURL == Stdin:
		return l.loadStdin()
	case urlutil.IsHTTPScheme(nameOrURL):
		return l.loadURL(ctx, nameOrURL)
	default:
		return l.loadFile(nameOrURL)
	}
}

func (l *Loader) loadFile(name string) (Source, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return Source{}, fmt.Errorf("read %s: %w", name, err)
	}
	text, err := Decode(data, l.Encoding)
	if err != nil {
		return Source{}, fmt.Errorf("decode %s: %w", name, err)
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return Source{}, fmt.Errorf("resolve %s: %w", name, err)
	}

	return Source{
		Name:    name,
		Content: text,
		Format:  formatOf(name, ""),
		Context: resolve.Context{
			BaseDir:     l.baseDir(filepath.Dir(abs)),
			DocumentDir: filepath.Dir(abs),
			Document:    abs,
		},
	}, nil
}

func (l *Loader) loadStdin() (Source, error) {
	in := l.Stdin
	if in == nil {
		in = os.Stdin
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return Source{}, fmt.Errorf("read standard input: %w", err)
	}
	text, err := Decode(data, l.Encoding)
	if err != nil {
		return Source{}, fmt.Errorf("decode standard input: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return Source{}, fmt.Errorf("get working directory: %w", err)
	}
	return Source{
		Name:    Stdin,
		Content: text,
		Format:  FormatMarkdown,
		Context: resolve.Context{BaseDir: l.baseDir(wd), DocumentDir: wd},
	}, nil
}

func (l *Loader) loadURL(ctx context.Context, rawURL string) (Source, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Source{}, fmt.Errorf("create request for %s: %w", rawURL, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Source{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Source{}, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return Source{}, fmt.Errorf("read %s: %w", rawURL, err)
	}

	contentType := resp.Header.Get("Content-Type")
	text, err := Decode(data, charsetOf(contentType))
	if err != nil {
		return Source{}, fmt.Errorf("decode %s: %w", rawURL, err)
	}

	return Source{
		Name:    rawURL,
		Content: text,
		Format:  formatOf(resp.Request.URL.Path, contentType),
		Context: resolve.Context{BaseURL: resp.Request.URL.String()},
	}, nil
}

func (l *Loader) baseDir(fallback string) string {
	if l.BaseDir != "" {
		return l.BaseDir
	}
	return fallback
}

func formatOf(name, contentType string) Format {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "text/html", "application/xhtml+xml":
			return FormatHTML
		case "text/markdown", "text/x-markdown":
			return FormatMarkdown
		}
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm", ".xhtml":
		return FormatHTML
	}
	return FormatMarkdown
}

func charsetOf(contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}
