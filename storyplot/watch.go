// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/storyplot/storyplot/story"
	"go.uber.org/zap"
)

// settle is how long watch waits after a change before re-rendering,
// so that an editor's burst of writes causes one run.
const settle = 200 * time.Millisecond

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch story.yaml",
		Short: "Render a document, then render it again whenever it or its data changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.watch(cmd.Context(), args[0])
		},
	}
}

func (c *cli) watch(ctx context.Context, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch directories rather than files, since editors often
	// replace a file instead of writing it.
	watched := make(map[string]bool)
	var targets map[string]bool
	rerun := func() {
		targets = c.watchRun(ctx, path)
		for t := range targets {
			dir := filepath.Dir(t)
			if watched[dir] {
				continue
			}
			if err := w.Add(dir); err != nil {
				c.log.Warn("cannot watch", zap.String("path", dir), zap.Error(err))
				continue
			}
			watched[dir] = true
		}
	}
	rerun()

	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if abs, err := filepath.Abs(ev.Name); err != nil || !targets[abs] {
				continue
			}
			c.log.Debug("changed", zap.String("path", ev.Name))
			timer.Reset(settle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.log.Warn("watch error", zap.Error(err))
		case <-timer.C:
			rerun()
		}
	}
}

// watchRun renders the document in path once and returns the absolute
// paths of the files it depends on. The document is always one of
// them, even if it could not be read.
func (c *cli) watchRun(ctx context.Context, path string) map[string]bool {
	targets := make(map[string]bool)
	if abs, err := filepath.Abs(path); err == nil {
		targets[abs] = true
	}
	doc, err := story.ReadFile(path)
	if err != nil {
		fmt.Fprintf(c.stderr, "%v\n", err)
		return targets
	}
	if doc.Source.URL == "" {
		if abs, err := filepath.Abs(doc.SourceLocation()); err == nil {
			targets[abs] = true
		}
	}
	r := story.RunBatch(ctx, []*story.Document{doc}, c.options())
	r.Fprint(c.stdout)
	return targets
}
