package checker

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/boillodmanuel/markdown-link-check/resolve"
)

// ErrAnchorNotFound reports a fragment that names no anchor of its document.
var ErrAnchorNotFound = errors.New("anchor not found")

// AnchorFunc lists the anchors of the document at path, lower-cased.
type AnchorFunc func(path string) (map[string]bool, error)

// FileChecker probes local filesystem targets.
type FileChecker struct {
	// Anchors, when set, makes fragments significant: a link to a missing
	// anchor of an existing document is reported as not found.
	Anchors AnchorFunc

	anchors sync.Map // path -> map[string]bool
}

// Check stats target.Location and, when enabled, verifies its fragment.
func (f *FileChecker) Check(_ context.Context, target resolve.Target) Outcome {
	info, err := os.Stat(target.Location)
	if errors.Is(err, fs.ErrNotExist) {
		return Failed(404, KindNotFound, err)
	}
	if err != nil {
		return Failed(0, KindIO, err)
	}

	if f.Anchors == nil || target.Fragment == "" || info.IsDir() {
		return Outcome{StatusCode: 200}
	}

	anchors, err := f.documentAnchors(target.Location)
	if err != nil {
		return Failed(0, KindIO, err)
	}
	fragment := target.Fragment
	if decoded, err := url.PathUnescape(fragment); err == nil {
		fragment = decoded
	}
	if !anchors[strings.ToLower(fragment)] {
		return Failed(404, KindNotFound, ErrAnchorNotFound)
	}
	return Outcome{StatusCode: 200}
}

func (f *FileChecker) documentAnchors(path string) (map[string]bool, error) {
	if v, ok := f.anchors.Load(path); ok {
		return v.(map[string]bool), nil
	}
	anchors, err := f.Anchors(path)
	if err != nil {
		return nil, err
	}
	f.anchors.Store(path, anchors)
	return anchors, nil
}
