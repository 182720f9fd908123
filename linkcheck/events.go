package linkcheck

import "github.com/boillodmanuel/markdown-link-check/result"

// Event reports progress for a single verified link.
type Event struct {
	Input    string            // Document the link belongs to
	Result   result.LinkResult // Final result of the link
	Checked  int               // Links verified so far, across all documents
	Total    int               // Links to verify in this run
	Failures int               // Dead and error links so far
}
