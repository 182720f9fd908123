// Package result holds the terminal records produced by a link check run:
// per-link results, per-input results and aggregate statistics.
package result

// Status is the final classification of a checked link.
type Status string

const (
	StatusAlive   Status = "alive"
	StatusDead    Status = "dead"
	StatusIgnored Status = "ignored"
	StatusError   Status = "error"
)

// CacheStatus records whether a result was served from the session cache.
// Ignored links never reach the cache and carry an empty CacheStatus.
type CacheStatus string

const (
	CacheHit  CacheStatus = "hit"
	CacheMiss CacheStatus = "miss"
)

// Link is a raw link as it appeared in a source document.
type Link struct {
	Raw  string // The link text exactly as extracted
	Line int    // 1-based source line (0 if unknown)
}

// LinkResult represents the result of checking a single link.
type LinkResult struct {
	Link               string        `json:"link"`                         // The raw link as found in the document
	Line               int           `json:"line,omitempty"`               // Source line of the link
	Status             Status        `json:"status"`                       // Final classification
	StatusCode         int           `json:"statusCode"`                   // HTTP-like status code (0 if unobtainable)
	Err                string        `json:"err,omitempty"`                // Error message if the check failed
	ErrorCategory      ErrorCategory `json:"errorCategory,omitempty"`      // Category classification of the error
	Retries            int           `json:"retries,omitempty"`            // Retries used before the final outcome
	AdditionalMessages []string      `json:"additionalMessages,omitempty"` // Warnings such as redirect targets
	Cache              CacheStatus   `json:"cache,omitempty"`              // Whether the result came from the cache
}

// IsFailure reports whether the result should fail the run.
func (r LinkResult) IsFailure() bool {
	return r.Status == StatusDead || r.Status == StatusError
}

// Stats contains running totals for one input or for the whole session.
type Stats struct {
	LinksCount        int `json:"linksCount"`
	AliveLinksCount   int `json:"aliveLinksCount"`
	DeadLinksCount    int `json:"deadLinksCount"`
	IgnoredLinksCount int `json:"ignoredLinksCount"`
	ErrorLinksCount   int `json:"errorLinksCount"`
	CacheHits         int `json:"cacheHits"`
	CacheMiss         int `json:"cacheMiss"`
}

// Add folds a single link result into the totals.
func (s *Stats) Add(r LinkResult) {
	s.LinksCount++
	switch r.Status {
	case StatusAlive:
		s.AliveLinksCount++
	case StatusDead:
		s.DeadLinksCount++
	case StatusIgnored:
		s.IgnoredLinksCount++
	case StatusError:
		s.ErrorLinksCount++
	}
	switch r.Cache {
	case CacheHit:
		s.CacheHits++
	case CacheMiss:
		s.CacheMiss++
	}
}

// Failures returns the number of dead and error links.
func (s Stats) Failures() int {
	return s.DeadLinksCount + s.ErrorLinksCount
}

// InputResult is the ordered list of link results for one input document.
type InputResult struct {
	FilenameOrURL string       `json:"filenameOrUrl"`
	Results       []LinkResult `json:"results"`
	Stats         Stats        `json:"stats"`
}

// Result represents the complete output of a run over several inputs.
type Result struct {
	Inputs []InputResult `json:"inputs"`
	Stats  Stats         `json:"stats"`
}
