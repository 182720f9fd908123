package resolve

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/boillodmanuel/markdown-link-check/config"
)

func mustNew(t *testing.T, baseURL string, headers []config.HTTPHeader) *Resolver {
	t.Helper()
	r, err := New(baseURL, headers)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return r
}

func TestResolve(t *testing.T) {
	docDir := filepath.Join("/repo", "docs")
	fileCtx := Context{DocumentDir: docDir, BaseDir: "/repo", Document: filepath.Join(docDir, "guide.md")}
	httpCtx := Context{BaseURL: "https://example.com/docs/guide.html"}

	tests := []struct {
		name         string
		link         string
		ctx          Context
		wantProtocol Protocol
		wantLocation string
		wantFragment string
	}{
		{"mailto", "mailto:someone@example.com", fileCtx, ProtocolMail, "someone@example.com", ""},
		{"mailto with subject", "MAILTO:someone@example.com?subject=hi", fileCtx, ProtocolMail, "someone@example.com", ""},
		{"bare address", "someone@example.com", fileCtx, ProtocolMail, "someone@example.com", ""},
		{"absolute http", "HTTPS://Example.com/a/b/?q=1#frag", fileCtx, ProtocolHTTP, "https://example.com/a/b/?q=1", "frag"},
		{"relative against document URL", "../api/index.html?x=y#top", httpCtx, ProtocolHTTP, "https://example.com/api/index.html?x=y", "top"},
		{"root relative against document URL", "/about", httpCtx, ProtocolHTTP, "https://example.com/about", ""},
		{"relative file", "images/logo.png", fileCtx, ProtocolFile, filepath.Join(docDir, "images", "logo.png"), ""},
		{"parent file with anchor", "../README.md#install", fileCtx, ProtocolFile, filepath.Join("/repo", "README.md"), "install"},
		{"root relative file uses base dir", "/CONTRIBUTING.md", fileCtx, ProtocolFile, filepath.Join("/repo", "CONTRIBUTING.md"), ""},
		{"percent decoded file", "my%20notes.md", fileCtx, ProtocolFile, filepath.Join(docDir, "my notes.md"), ""},
		{"anchor only", "#usage", fileCtx, ProtocolFile, filepath.Join(docDir, "guide.md"), "usage"},
		{"file url", "file:///tmp/report.txt", Context{}, ProtocolFile, filepath.FromSlash("/tmp/report.txt"), ""},
	}

	r := mustNew(t, "", nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.link, tt.ctx)
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.link, err)
			}
			if got.Protocol != tt.wantProtocol {
				t.Errorf("Protocol = %q, want %q", got.Protocol, tt.wantProtocol)
			}
			if got.Location != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got.Location, tt.wantLocation)
			}
			if got.Fragment != tt.wantFragment {
				t.Errorf("Fragment = %q, want %q", got.Fragment, tt.wantFragment)
			}
		})
	}
}

func TestResolve_ConfiguredBaseURLWins(t *testing.T) {
	r := mustNew(t, "https://docs.example.com/v2/", nil)

	got, err := r.Resolve("setup.md", Context{DocumentDir: "/repo"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got.Protocol != ProtocolHTTP || got.Location != "https://docs.example.com/v2/setup.md" {
		t.Errorf("got %+v", got)
	}
}

func TestResolve_FileBaseURL(t *testing.T) {
	r := mustNew(t, "file:///srv/site/docs/", nil)
	ctx := Context{DocumentDir: "/elsewhere"}

	tests := []struct {
		link         string
		wantLocation string
		wantFragment string
	}{
		{"hello.jpg", "/srv/site/docs/hello.jpg", ""},
		{"img/my%20logo.png?v=2", "/srv/site/docs/img/my logo.png", ""},
		{"../README.md#install", "/srv/site/README.md", "install"},
	}

	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			got, err := r.Resolve(tt.link, ctx)
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.link, err)
			}
			if got.Protocol != ProtocolFile {
				t.Errorf("Protocol = %q, want file", got.Protocol)
			}
			if want := filepath.FromSlash(tt.wantLocation); got.Location != want {
				t.Errorf("Location = %q, want %q", got.Location, want)
			}
			if got.Fragment != tt.wantFragment {
				t.Errorf("Fragment = %q, want %q", got.Fragment, tt.wantFragment)
			}
			if got.Headers != nil {
				t.Errorf("file targets get no headers, got %v", got.Headers)
			}
		})
	}
}

func TestResolve_Unsupported(t *testing.T) {
	r := mustNew(t, "", nil)

	for _, link := range []string{"ftp://files.example.com/x", "javascript:void(0)", "relative/path", ""} {
		t.Run(link, func(t *testing.T) {
			_, err := r.Resolve(link, Context{})
			if !errors.Is(err, ErrUnsupportedProtocol) {
				t.Errorf("Resolve(%q) error = %v, want ErrUnsupportedProtocol", link, err)
			}
		})
	}
}

func TestResolve_Headers(t *testing.T) {
	r := mustNew(t, "", []config.HTTPHeader{
		{URLs: []string{"https://api.example.com"}, Headers: map[string]string{"Authorization": "Bearer a", "X-Team": "docs"}},
		{URLs: []string{"https://other.example.com", "https://API.example.com/v2"}, Headers: map[string]string{"Authorization": "Bearer b"}},
	})

	tests := []struct {
		link     string
		wantAuth string
		wantTeam string
	}{
		{"https://api.example.com/v1/users", "Bearer a", "docs"},
		{"https://api.example.com/v2/users", "Bearer b", "docs"},
		{"https://other.example.com/", "Bearer b", ""},
		{"https://unrelated.example.com/", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			got, err := r.Resolve(tt.link, Context{})
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if auth := got.Headers.Get("Authorization"); auth != tt.wantAuth {
				t.Errorf("Authorization = %q, want %q", auth, tt.wantAuth)
			}
			if team := got.Headers.Get("X-Team"); team != tt.wantTeam {
				t.Errorf("X-Team = %q, want %q", team, tt.wantTeam)
			}
		})
	}
}

func TestResolve_NoHeadersForFiles(t *testing.T) {
	r := mustNew(t, "", []config.HTTPHeader{{URLs: []string{""}, Headers: map[string]string{"A": "b"}}})

	got, err := r.Resolve("a.md", Context{DocumentDir: "/repo"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got.Headers != nil {
		t.Errorf("file target got headers %v", got.Headers)
	}
}

func TestNew_BadBaseURL(t *testing.T) {
	if _, err := New("not/absolute", nil); !config.IsConfigError(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestAbsolute(t *testing.T) {
	tests := []struct {
		link string
		want bool
	}{
		{"https://example.com", true},
		{"mailto:a@b.io", true},
		{"a@b.io", true},
		{"file:///etc/hosts", true},
		{"docs/a.md", false},
		{"/root.md", false},
		{"#anchor", false},
	}
	for _, tt := range tests {
		if got := Absolute(tt.link); got != tt.want {
			t.Errorf("Absolute(%q) = %v, want %v", tt.link, got, tt.want)
		}
	}
}
