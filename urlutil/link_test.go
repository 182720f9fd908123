package urlutil

import "testing"

func TestScheme(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com", "https"},
		{"HTTP://example.com", "http"},
		{"mailto:a@b.c", "mailto"},
		{"file:///tmp/x", "file"},
		{"docs/readme.md", ""},
		{"./a:b.md", ""},
		{`C:\docs\readme.md`, ""},
		{"1abc:foo", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Scheme(tt.in); got != tt.want {
			t.Errorf("Scheme(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsHTTPScheme(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"https://example.com", true},
		{"http://example.com", true},
		{"HTTPS://example.com", true},
		{"mailto:user@example.com", false},
		{"tel:+1234567890", false},
		{"javascript:void(0)", false},
		{"ftp://files.example.com", false},
		{"docs/http.md", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsHTTPScheme(tt.input); got != tt.want {
				t.Errorf("IsHTTPScheme(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitFragment(t *testing.T) {
	tests := []struct {
		in           string
		wantBase     string
		wantFragment string
	}{
		{"page.md#intro", "page.md", "intro"},
		{"page.md", "page.md", ""},
		{"#top", "", "top"},
		{"a#b#c", "a", "b#c"},
	}
	for _, tt := range tests {
		base, fragment := SplitFragment(tt.in)
		if base != tt.wantBase || fragment != tt.wantFragment {
			t.Errorf("SplitFragment(%q) = %q, %q; want %q, %q", tt.in, base, fragment, tt.wantBase, tt.wantFragment)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "fragment dropped", input: "https://example.com/page#section", want: "https://example.com/page"},
		{name: "trailing slash kept", input: "https://example.com/about/", want: "https://example.com/about/"},
		{name: "query kept", input: "https://example.com/search?q=foo", want: "https://example.com/search?q=foo"},
		{name: "scheme and host lower-cased", input: "HTTPS://Example.Com/Page", want: "https://example.com/Page"},
		{name: "empty", input: "", wantErr: true},
		{name: "relative", input: "/about", wantErr: true},
		{name: "unparseable", input: "://invalid", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Normalize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Normalize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveReference(t *testing.T) {
	tests := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{"absolute reference", "https://example.com", "https://other.com/page", "https://other.com/page"},
		{"relative path", "https://example.com/blog/", "post1", "https://example.com/blog/post1"},
		{"root-relative", "https://example.com/blog/", "/about", "https://example.com/about"},
		{"protocol-relative", "https://example.com", "//cdn.example.com/file", "https://cdn.example.com/file"},
		{"query only", "https://example.com/a?x=1", "?x=2", "https://example.com/a?x=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveReference(tt.base, tt.ref)
			if err != nil {
				t.Fatalf("ResolveReference() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveReference() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := ResolveReference("https://example.com", "http://[::1"); err == nil {
		t.Error("expected error for an unparseable reference")
	}
}
