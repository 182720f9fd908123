package linkcheck

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/boillodmanuel/markdown-link-check/resolve"
	"github.com/boillodmanuel/markdown-link-check/result"
)

// Document is one input: its name, its links in source order and the
// context its relative links resolve against.
type Document struct {
	FilenameOrURL string
	Links         []result.Link
	Context       resolve.Context
}

type job struct {
	doc, idx int
}

// VerifyDocument verifies every link of doc and returns them in source
// order.
func (e *Engine) VerifyDocument(ctx context.Context, doc Document) (result.InputResult, error) {
	inputs, _, err := e.VerifyAll(ctx, []Document{doc})
	if err != nil {
		return result.InputResult{}, err
	}
	return inputs[0], nil
}

// VerifyAll verifies the links of every document with one bounded worker
// pool shared by all documents. Results keep each document's link order.
// On error no results are returned.
func (e *Engine) VerifyAll(ctx context.Context, docs []Document) ([]result.InputResult, result.Stats, error) {
	names := make([]string, len(docs))
	sizes := make([]int, len(docs))
	total := 0
	for i, doc := range docs {
		names[i] = doc.FilenameOrURL
		sizes[i] = len(doc.Links)
		total += len(doc.Links)
	}
	agg := result.NewAggregator(names, sizes)

	jobs := make(chan job, e.concurrency*3)
	var checked, failures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for d, doc := range docs {
			for i := range doc.Links {
				select {
				case jobs <- job{doc: d, idx: i}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		}
		return nil
	})

	for range min(e.concurrency, max(total, 1)) {
		g.Go(func() error {
			for j := range jobs {
				doc := docs[j.doc]
				r, err := e.Verify(gctx, doc.Links[j.idx], doc.Context)
				if err != nil {
					return fmt.Errorf("verify %q in %s: %w", doc.Links[j.idx].Raw, doc.FilenameOrURL, err)
				}
				if !agg.Add(j.doc, j.idx, r) {
					return fmt.Errorf("%w: link %d of %s verified twice", ErrInternal, j.idx, doc.FilenameOrURL)
				}

				n := checked.Add(1)
				if r.IsFailure() {
					failures.Add(1)
				}
				e.emit(gctx, Event{
					Input:    doc.FilenameOrURL,
					Result:   r,
					Checked:  int(n),
					Total:    total,
					Failures: int(failures.Load()),
				})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, result.Stats{}, err
	}
	if !agg.Complete() {
		return nil, result.Stats{}, fmt.Errorf("%w: run finished with unverified links", ErrInternal)
	}

	inputs, stats := agg.Results()
	return inputs, stats, nil
}

// emit sends ev to the progress channel, if any, without outliving ctx.
func (e *Engine) emit(ctx context.Context, ev Event) {
	if e.progress == nil {
		return
	}
	select {
	case e.progress <- ev:
	case <-ctx.Done():
	}
}
