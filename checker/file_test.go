package checker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/boillodmanuel/markdown-link-check/resolve"
)

func TestFileChecker(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "README.md")
	if err := os.WriteFile(existing, []byte("# Hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		location string
		wantCode int
		wantKind ErrorKind
	}{
		{"existing file", existing, 200, ""},
		{"existing directory", dir, 200, ""},
		{"missing file", filepath.Join(dir, "missing.md"), 404, KindNotFound},
	}

	f := &FileChecker{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := f.Check(context.Background(), resolve.Target{Protocol: resolve.ProtocolFile, Location: tt.location})
			if out.StatusCode != tt.wantCode {
				t.Errorf("StatusCode = %d, want %d", out.StatusCode, tt.wantCode)
			}
			if tt.wantKind == "" && out.Err != nil {
				t.Errorf("unexpected error: %v", out.Err)
			}
			if tt.wantKind != "" && (out.Err == nil || out.Err.Kind != tt.wantKind) {
				t.Errorf("Err = %v, want kind %q", out.Err, tt.wantKind)
			}
		})
	}
}

func TestFileChecker_Anchors(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "guide.md")
	if err := os.WriteFile(doc, []byte("# Install\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var loads int
	f := &FileChecker{Anchors: func(path string) (map[string]bool, error) {
		loads++
		return map[string]bool{"install": true, "día-uno": true}, nil
	}}

	tests := []struct {
		fragment string
		wantCode int
	}{
		{"", 200},
		{"install", 200},
		{"Install", 200},
		{"d%C3%ADa-uno", 200},
		{"usage", 404},
	}
	for _, tt := range tests {
		t.Run(tt.fragment, func(t *testing.T) {
			out := f.Check(context.Background(), resolve.Target{Protocol: resolve.ProtocolFile, Location: doc, Fragment: tt.fragment})
			if out.StatusCode != tt.wantCode {
				t.Errorf("StatusCode = %d, want %d", out.StatusCode, tt.wantCode)
			}
			if tt.wantCode == 404 && (out.Err == nil || !errors.Is(out.Err, ErrAnchorNotFound)) {
				t.Errorf("Err = %v, want ErrAnchorNotFound", out.Err)
			}
		})
	}

	if loads != 1 {
		t.Errorf("anchors loaded %d times, want 1", loads)
	}
}

func TestFileChecker_AnchorLoadFailure(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "guide.md")
	if err := os.WriteFile(doc, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	f := &FileChecker{Anchors: func(string) (map[string]bool, error) {
		return nil, errors.New("boom")
	}}
	out := f.Check(context.Background(), resolve.Target{Location: doc, Fragment: "x"})
	if out.StatusCode != 0 || out.Err == nil || out.Err.Kind != KindIO {
		t.Errorf("got %d %v, want io failure", out.StatusCode, out.Err)
	}
}

func TestMailChecker(t *testing.T) {
	tests := []struct {
		address  string
		wantCode int
	}{
		{"someone@example.com", 200},
		{"first.last+tag@mail.example.co.uk", 200},
		{"o'brien@example.org", 200},
		{"plainaddress", 400},
		{"@example.com", 400},
		{"someone@localhost", 400},
		{"some one@example.com", 400},
		{"someone@-example.com", 400},
		{"dots..twice@example.com", 400},
		{"", 400},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			out := MailChecker{}.Check(context.Background(), resolve.Target{Protocol: resolve.ProtocolMail, Location: tt.address})
			if out.StatusCode != tt.wantCode {
				t.Errorf("StatusCode = %d, want %d", out.StatusCode, tt.wantCode)
			}
			if tt.wantCode == 400 && (out.Err == nil || out.Err.Kind != KindInvalidAddress) {
				t.Errorf("Err = %v, want invalid_address", out.Err)
			}
		})
	}
}
