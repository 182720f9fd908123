package extract

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		heading string
		want    string
	}{
		{"Getting Started", "getting-started"},
		{"  Install  ", "install"},
		{"What's new?", "whats-new"},
		{"[Linked](http://example.com) `code` Title!", "linked-code-title"},
		{"snake_case and kebab-case", "snake_case-and-kebab-case"},
		{"Café Déjà Vu", "café-déjà-vu"},
		{"<em>Emphasis</em> here", "emphasis-here"},
		{"1.2.3 Release", "123-release"},
	}

	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			if got := Slug(tt.heading); got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.heading, got, tt.want)
			}
		})
	}
}

func TestMarkdownAnchors(t *testing.T) {
	content := "# Getting Started\n" +
		"## Install\n" +
		"## Install\n" +
		"Setext Title\n" +
		"============\n" +
		"```\n" +
		"# Not a heading\n" +
		"```\n" +
		"<a name=\"Custom\"></a>\n" +
		"<div id='block'></div>\n" +
		"### Closed heading ###\n" +
		"#hashtag\n"

	got := MarkdownAnchors(content)

	for _, want := range []string{"getting-started", "install", "install-1", "setext-title", "custom", "block", "closed-heading"} {
		if !got[want] {
			t.Errorf("anchor %q missing from %v", want, got)
		}
	}
	for _, unwanted := range []string{"not-a-heading", "hashtag", "install-2"} {
		if got[unwanted] {
			t.Errorf("unexpected anchor %q", unwanted)
		}
	}
}

func TestHTMLAnchors(t *testing.T) {
	got, err := HTMLAnchors(`<h1 id="Top">x</h1><a name="old"></a><div name="nope"></div><p id="">empty</p>`)
	if err != nil {
		t.Fatalf("HTMLAnchors() error = %v", err)
	}

	want := map[string]bool{"top": true, "old": true}
	if len(got) != len(want) {
		t.Errorf("HTMLAnchors() = %v, want %v", got, want)
	}
	for k := range want {
		if !got[k] {
			t.Errorf("anchor %q missing from %v", k, got)
		}
	}
}

func TestAnchors(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "guide.md")
	page := filepath.Join(dir, "page.html")
	if err := os.WriteFile(md, []byte("# Usage\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(page, []byte(`<section id="usage"></section>`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("markdown file", func(t *testing.T) {
		got, err := Anchors(md)
		if err != nil {
			t.Fatalf("Anchors() error = %v", err)
		}
		if !got["usage"] {
			t.Errorf("Anchors() = %v, want usage", got)
		}
	})

	t.Run("html file", func(t *testing.T) {
		got, err := Anchors(page)
		if err != nil {
			t.Fatalf("Anchors() error = %v", err)
		}
		if !got["usage"] {
			t.Errorf("Anchors() = %v, want usage", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Anchors(filepath.Join(dir, "missing.md")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
