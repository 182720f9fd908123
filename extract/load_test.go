package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "README.md")
	if err := os.WriteFile(name, []byte("[a](docs/a.md)\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("context from file location", func(t *testing.T) {
		var l Loader
		src, err := l.Load(context.Background(), name)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if src.Format != FormatMarkdown {
			t.Errorf("Format = %v, want markdown", src.Format)
		}
		if src.Context.Document != name {
			t.Errorf("Document = %q, want %q", src.Context.Document, name)
		}
		if src.Context.DocumentDir != dir || src.Context.BaseDir != dir {
			t.Errorf("Context = %+v, want dirs %q", src.Context, dir)
		}
		if links := src.Links(); len(links) != 1 || links[0].Raw != "docs/a.md" {
			t.Errorf("Links() = %+v", links)
		}
	})

	t.Run("configured base directory", func(t *testing.T) {
		l := Loader{BaseDir: "/srv/site"}
		src, err := l.Load(context.Background(), name)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if src.Context.BaseDir != "/srv/site" {
			t.Errorf("BaseDir = %q, want /srv/site", src.Context.BaseDir)
		}
	})

	t.Run("html file", func(t *testing.T) {
		page := filepath.Join(dir, "index.html")
		if err := os.WriteFile(page, []byte(`<a href="README.md">x</a>`), 0o644); err != nil {
			t.Fatal(err)
		}
		var l Loader
		src, err := l.Load(context.Background(), page)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if src.Format != FormatHTML {
			t.Errorf("Format = %v, want html", src.Format)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		var l Loader
		if _, err := l.Load(context.Background(), filepath.Join(dir, "missing.md")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("file encoding", func(t *testing.T) {
		latin := filepath.Join(dir, "latin.md")
		if err := os.WriteFile(latin, []byte{'c', 'a', 'f', 0xe9}, 0o644); err != nil {
			t.Fatal(err)
		}
		l := Loader{Encoding: "latin1"}
		src, err := l.Load(context.Background(), latin)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if src.Content != "café" {
			t.Errorf("Content = %q, want café", src.Content)
		}
	})
}

func TestLoadStdin(t *testing.T) {
	l := Loader{Stdin: strings.NewReader("[a](https://example.com)")}
	src, err := l.Load(context.Background(), Stdin)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if src.Name != Stdin || src.Context.DocumentDir != wd || src.Context.Document != "" {
		t.Errorf("Source = %+v", src)
	}
	if links := src.Links(); len(links) != 1 || links[0].Raw != "https://example.com" {
		t.Errorf("Links() = %+v", links)
	}
}

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old":
			http.Redirect(w, r, "/docs/page.html", http.StatusMovedPermanently)
		case "/docs/page.html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(`<a href="other.html">other</a>`))
		case "/latin.md":
			w.Header().Set("Content-Type", "text/markdown; charset=iso-8859-1")
			w.Write([]byte{'c', 'a', 'f', 0xe9})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := Loader{Client: srv.Client()}

	t.Run("base URL follows redirects", func(t *testing.T) {
		src, err := l.Load(context.Background(), srv.URL+"/old")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if src.Format != FormatHTML {
			t.Errorf("Format = %v, want html", src.Format)
		}
		if want := srv.URL + "/docs/page.html"; src.Context.BaseURL != want {
			t.Errorf("BaseURL = %q, want %q", src.Context.BaseURL, want)
		}
		if src.Name != srv.URL+"/old" {
			t.Errorf("Name = %q", src.Name)
		}
	})

	t.Run("charset from content type", func(t *testing.T) {
		src, err := l.Load(context.Background(), srv.URL+"/latin.md")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if src.Content != "café" || src.Format != FormatMarkdown {
			t.Errorf("Source = %+v", src)
		}
	})

	t.Run("error status", func(t *testing.T) {
		if _, err := l.Load(context.Background(), srv.URL+"/missing.md"); err == nil {
			t.Error("expected error for 404")
		}
	})
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		encoding string
		want     string
		wantErr  bool
	}{
		{name: "utf-8 by default", data: []byte("héllo"), want: "héllo"},
		{name: "byte order mark stripped", data: []byte(bom + "hi"), encoding: "utf-8", want: "hi"},
		{name: "latin1", data: []byte{'c', 'a', 'f', 0xe9}, encoding: "latin1", want: "café"},
		{name: "case insensitive name", data: []byte{0xe9}, encoding: "ISO-8859-1", want: "é"},
		{name: "unknown encoding", data: []byte("x"), encoding: "klingon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data, tt.encoding)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Decode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		want        Format
	}{
		{"README.md", "", FormatMarkdown},
		{"index.HTML", "", FormatHTML},
		{"page.htm", "", FormatHTML},
		{"/docs/", "text/html; charset=utf-8", FormatHTML},
		{"/page.html", "text/markdown", FormatMarkdown},
		{"notes.txt", "text/plain", FormatMarkdown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatOf(tt.name, tt.contentType); got != tt.want {
				t.Errorf("formatOf(%q, %q) = %v, want %v", tt.name, tt.contentType, got, tt.want)
			}
		})
	}
}
