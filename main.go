// Package main provides the markdown-link-check CLI entrypoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/boillodmanuel/markdown-link-check/cache"
	"github.com/boillodmanuel/markdown-link-check/config"
	"github.com/boillodmanuel/markdown-link-check/extract"
	"github.com/boillodmanuel/markdown-link-check/linkcheck"
	"github.com/boillodmanuel/markdown-link-check/metrics"
	"github.com/boillodmanuel/markdown-link-check/result"
	"github.com/boillodmanuel/markdown-link-check/tui"
)

// seenCapacity sizes the cache's bloom filter; larger runs only raise the
// false positive rate.
const seenCapacity = 100_000

type cliFlags struct {
	configFile   string
	quiet        bool
	verbose      bool
	debug        bool
	inputs       string
	retryOnError bool
	retryOn429   bool
	fileEncoding string
	stats        bool
	timeout      string
	concurrency  int
	progress     bool
	format       string
	output       string
	metricsFile  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("markdown-link-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: markdown-link-check [flags] [filenameOrUrl]")
		fmt.Fprintln(stderr, "Reads from standard input when no input is given or the input is \"-\".")
		fmt.Fprintln(stderr, "Flags:")
		fs.PrintDefaults()
	}

	var f cliFlags
	fs.StringVar(&f.configFile, "config", "", "JSON or YAML configuration file")
	fs.StringVar(&f.configFile, "c", "", "shorthand for -config")
	fs.BoolVar(&f.quiet, "quiet", false, "only display errors")
	fs.BoolVar(&f.quiet, "q", false, "shorthand for -quiet")
	fs.BoolVar(&f.verbose, "verbose", false, "display detailed information")
	fs.BoolVar(&f.verbose, "v", false, "shorthand for -verbose")
	fs.BoolVar(&f.debug, "debug", false, "log every check to stderr")
	fs.BoolVar(&f.debug, "d", false, "shorthand for -debug")
	fs.StringVar(&f.inputs, "inputs", "", "comma separated list of files or URLs to check")
	fs.StringVar(&f.inputs, "i", "", "shorthand for -inputs")
	fs.BoolVar(&f.retryOnError, "retryOnError", false, "retry after transient errors and 5xx responses")
	fs.BoolVar(&f.retryOn429, "retryOn429", false, "retry after 429 Too Many Requests")
	fs.StringVar(&f.fileEncoding, "fileEncoding", "", "encoding of input files (default utf-8)")
	fs.StringVar(&f.fileEncoding, "e", "", "shorthand for -fileEncoding")
	fs.BoolVar(&f.stats, "stats", false, "display a summary of all links")
	fs.BoolVar(&f.stats, "s", false, "shorthand for -stats")
	fs.StringVar(&f.timeout, "timeout", "", "timeout of a single check, e.g. 10s or 5000 (ms)")
	fs.IntVar(&f.concurrency, "concurrency", 0, "number of links checked at once")
	fs.BoolVar(&f.progress, "progress", false, "show a live progress display")
	fs.StringVar(&f.format, "format", "text", "output format: text, json, csv or xlsx")
	fs.StringVar(&f.output, "o", "", "write the report to this file instead of stdout")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	switch f.format {
	case "text", "json", "csv", "xlsx":
	default:
		fmt.Fprintf(stderr, "Unknown format %q: use text, json, csv or xlsx\n", f.format)
		return 1
	}

	opts, err := loadOptions(fs, f)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	level := slog.LevelWarn
	if f.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	inputs := inputList(fs.Args(), f.inputs)

	loader := extract.Loader{
		Client:   &http.Client{Timeout: opts.TimeoutDuration()},
		Encoding: opts.FileEncoding,
		BaseDir:  opts.BaseDir,
		Stdin:    stdin,
	}
	docs := make([]linkcheck.Document, 0, len(inputs))
	for _, in := range inputs {
		src, err := loader.Load(ctx, in)
		if err != nil {
			fmt.Fprintf(stderr, "Error: cannot load %s: %v\n", in, err)
			return 1
		}
		docs = append(docs, linkcheck.Document{
			FilenameOrURL: src.Name,
			Links:         src.Links(),
			Context:       src.Context,
		})
	}

	seen, err := cache.NewSeenFilter("", seenCapacity, 0.001)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	linkCache := cache.New(seen)
	defer func() {
		if err := linkCache.Close(); err != nil {
			logger.Warn("closing cache", "error", err)
		}
	}()

	m := metrics.New()
	deps := []linkcheck.Option{
		linkcheck.WithLogger(logger),
		linkcheck.WithMetrics(m),
		linkcheck.WithCache(linkCache),
	}
	var progressCh chan linkcheck.Event
	if f.progress {
		progressCh = make(chan linkcheck.Event, 100)
		deps = append(deps, linkcheck.WithProgress(progressCh))
	}

	engine, err := linkcheck.New(opts, deps...)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	verify := func(ctx context.Context) (*result.Result, error) {
		if progressCh != nil {
			defer close(progressCh)
		}
		inputs, stats, err := engine.VerifyAll(ctx, docs)
		if err != nil {
			return nil, err
		}
		return &result.Result{Inputs: inputs, Stats: stats}, nil
	}

	var res *result.Result
	if f.progress {
		res, err = runWithProgress(ctx, verify, progressCh, stderr)
	} else {
		res, err = verify(ctx)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if f.metricsFile != "" {
		if err := m.WriteToTextfile(f.metricsFile); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	if err := writeReport(stdout, f, res); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if res.Stats.Failures() > 0 {
		return 1
	}
	return 0
}

// loadOptions layers the configuration file, the environment and the
// command line flags, in that order.
func loadOptions(fs *flag.FlagSet, f cliFlags) (config.Options, error) {
	opts := config.Default()
	if f.configFile != "" {
		var err error
		if opts, err = config.Load(f.configFile); err != nil {
			return opts, err
		}
	}
	if err := config.ApplyEnv(&opts); err != nil {
		return opts, err
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "retryOnError":
			opts.RetryOnError = f.retryOnError
		case "retryOn429":
			opts.RetryOn429 = f.retryOn429
		case "fileEncoding", "e":
			opts.FileEncoding = f.fileEncoding
		case "timeout":
			opts.Timeout = f.timeout
		case "concurrency":
			opts.Concurrency = f.concurrency
		}
	})
	return opts, opts.Validate()
}

// inputList merges positional inputs with the -inputs list. No input at
// all means standard input.
func inputList(args []string, list string) []string {
	inputs := append([]string(nil), args...)
	for in := range strings.SplitSeq(list, ",") {
		if in = strings.TrimSpace(in); in != "" {
			inputs = append(inputs, in)
		}
	}
	if len(inputs) == 0 {
		inputs = []string{extract.Stdin}
	}
	return inputs
}

func runWithProgress(ctx context.Context, verify tui.RunFunc, progressCh <-chan linkcheck.Event, stderr io.Writer) (*result.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(tui.NewModel(ctx, cancel, verify, progressCh), tea.WithOutput(stderr))
	finalModel, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("progress display: %w", err)
	}

	model := finalModel.(tui.Model)
	if model.Interrupted() {
		return nil, context.Canceled
	}
	if model.Err() != nil {
		return nil, model.Err()
	}
	return model.Result(), nil
}

func writeReport(stdout io.Writer, f cliFlags, res *result.Result) (err error) {
	w := stdout
	if f.output != "" {
		file, err := os.Create(f.output)
		if err != nil {
			return fmt.Errorf("create %s: %w", f.output, err)
		}
		defer func() {
			if cerr := file.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = file
	}

	switch f.format {
	case "json":
		return result.WriteJSON(w, res)
	case "csv":
		return result.WriteCSV(w, res)
	case "xlsx":
		return result.WriteXLSX(w, res)
	default:
		result.PrintResults(w, res, result.PrintOptions{Quiet: f.quiet, Verbose: f.verbose, Stats: f.stats})
		return nil
	}
}
