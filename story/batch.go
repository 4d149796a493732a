// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package story

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// A Report is the outcome of a batch of documents, one Result per
// figure in document order.
type Report struct {
	Results []Result
	Elapsed time.Duration
}

// Failed returns the results that have an error.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Err returns the errors of all failed figures joined, or nil.
func (r *Report) Err() error {
	var es []error
	for _, res := range r.Failed() {
		es = append(es, fmt.Errorf("%s/%s: %w", res.Document, res.Figure, res.Err))
	}
	return errors.Join(es...)
}

// Fprint writes r as a table, one line per figure.
func (r *Report) Fprint(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "DOCUMENT\tFIGURE\tSTAGE\tRESULT\n")
	for _, res := range r.Results {
		result := res.Path
		if res.Err != nil {
			result = "error: " + res.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", res.Document, res.Figure, res.Stage, result)
	}
	return tw.Flush()
}

// RunBatch runs docs concurrently, at most opts.Workers at a time.
// Documents share nothing, so one document's failure never affects
// another's. RunBatch returns once every document has finished; if
// ctx is canceled, documents that have not started fail with ctx's
// error.
func RunBatch(ctx context.Context, docs []*Document, opts Options) *Report {
	start := time.Now()
	log := opts.logger()
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	per := make([][]Result, len(docs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, doc := range docs {
		g.Go(func() error {
			p := NewPipeline(doc, opts)
			per[i] = p.Run(ctx)
			return nil
		})
	}
	g.Wait()

	r := &Report{Elapsed: time.Since(start)}
	for _, rs := range per {
		r.Results = append(r.Results, rs...)
	}
	log.Info("batch done",
		zap.Int("documents", len(docs)),
		zap.Int("figures", len(r.Results)),
		zap.Int("failed", len(r.Failed())),
		zap.Duration("elapsed", r.Elapsed))
	return r
}
