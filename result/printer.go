package result

import (
	"fmt"
	"io"
	"strings"
)

// PrintOptions controls the verbosity of PrintResults.
type PrintOptions struct {
	Quiet   bool // Only print dead and error links
	Verbose bool // Print status codes for alive and ignored links too
	Stats   bool // Print the summary block
}

var statusLabels = map[Status]string{
	StatusAlive:   "✓",
	StatusDead:    "✖",
	StatusIgnored: "/",
	StatusError:   "⚠",
}

// StatusLabel returns the one-character label for a status.
func StatusLabel(s Status) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return "?"
}

// PrintResults writes per-input link details and an optional summary to w.
func PrintResults(w io.Writer, res *Result, opts PrintOptions) {
	writef := func(format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

	for _, in := range res.Inputs {
		writef("\nInput: %s\n", in.FilenameOrURL)
		if len(in.Results) == 0 {
			writef("No hyperlinks found!\n")
			continue
		}
		for _, link := range in.Results {
			isOk := link.Status == StatusAlive || link.Status == StatusIgnored
			if opts.Quiet && isOk {
				continue
			}
			var line strings.Builder
			fmt.Fprintf(&line, "[%s] %s", StatusLabel(link.Status), link.Link)
			if !isOk || opts.Verbose {
				fmt.Fprintf(&line, " → Status: %d", link.StatusCode)
			}
			if link.Err != "" {
				fmt.Fprintf(&line, " (Error: %s)", link.Err)
			}
			if len(link.AdditionalMessages) > 0 {
				fmt.Fprintf(&line, " (Warning: %s)", strings.Join(link.AdditionalMessages, "; "))
			}
			writef("%s\n", line.String())
		}
		writef("%d links checked.\n", len(in.Results))
		if in.Stats.DeadLinksCount > 0 {
			writef("ERROR: %d dead links found!\n", in.Stats.DeadLinksCount)
		}
		if in.Stats.ErrorLinksCount > 0 {
			writef("ERROR: %d error links found!\n", in.Stats.ErrorLinksCount)
		}
	}

	if opts.Stats {
		writef("\nSUMMARY:\n")
		writef("--------\n")
		writef("Total inputs: %d\n", len(res.Inputs))
		writef("Total links: %d\n", res.Stats.LinksCount)
		writef("- alive   : %d\n", res.Stats.AliveLinksCount)
		writef("- ignored : %d\n", res.Stats.IgnoredLinksCount)
		writef("- error   : %d\n", res.Stats.ErrorLinksCount)
		writef("- dead    : %d\n", res.Stats.DeadLinksCount)
		writef("Cache:\n")
		writef("- hits : %d\n", res.Stats.CacheHits)
		writef("- miss : %d\n", res.Stats.CacheMiss)
	}
}
