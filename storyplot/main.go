// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command storyplot renders the figures of data-story documents.
//
// Usage:
//
//	storyplot run [flags] story.yaml...
//	storyplot check story.yaml...
//	storyplot table [--tsv] story.yaml table
//	storyplot watch [flags] story.yaml
//
// A story document names a CSV or TSV source, the tables to derive
// from it, and the figures to draw from those tables. run renders
// every figure of every document, documents in parallel, and prints
// a report with one line per figure. A figure that fails does not
// stop the others, but storyplot exits non-zero if any figure failed.
//
// Defaults come from the environment: STORYPLOT_OUT_DIR,
// STORYPLOT_WIDTH, STORYPLOT_HEIGHT, STORYPLOT_BACKGROUND,
// STORYPLOT_WORKERS, and STORYPLOT_LOG_LEVEL. STORYPLOT_FLAGS holds
// extra flags that are placed before the command line. Flags override
// documents, and documents override the environment.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/spf13/cobra"
	"github.com/storyplot/storyplot/internal/config"
	"github.com/storyplot/storyplot/story"
	"go.uber.org/zap"
)

// errFailed reports that some figure or document failed. Its details
// have already been printed.
var errFailed = errors.New("some figures failed")

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "storyplot:", err)
		os.Exit(2)
	}
	args, err := cfg.Args(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "storyplot:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRoot(cfg, os.Stdout, os.Stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, "storyplot:", err)
		}
		stop()
		os.Exit(1)
	}
}

// cli holds the state shared by storyplot's commands.
type cli struct {
	cfg    config.Config
	stdout io.Writer
	stderr io.Writer
	log    *zap.Logger

	outDir        string
	width, height int
	background    string
	workers       int
	verbose       bool
	cpuProfile    string
	profile       *os.File
}

func newRoot(cfg config.Config, stdout, stderr io.Writer) *cobra.Command {
	c := &cli{cfg: cfg, stdout: stdout, stderr: stderr, log: zap.NewNop()}
	root := &cobra.Command{
		Use:           "storyplot",
		Short:         "Render the figures of data-story documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.teardown()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&c.outDir, "out", "o", cfg.OutDir, "write figures under `dir`")
	pf.IntVar(&c.width, "width", 0, "force every figure's width in `pixels`")
	pf.IntVar(&c.height, "height", 0, "force every figure's height in `pixels`")
	pf.StringVar(&c.background, "background", "", "force every figure's background `color`")
	pf.IntVar(&c.workers, "workers", cfg.Workers, "render at most `n` documents at once")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "log stage transitions for humans")
	pf.StringVar(&c.cpuProfile, "cpuprofile", "", "write CPU profile to `file`")

	root.AddCommand(
		c.runCmd(),
		c.checkCmd(),
		c.tableCmd(),
		c.watchCmd(),
	)
	return root
}

// setup builds the logger and starts profiling.
func (c *cli) setup() error {
	level, err := c.cfg.Level()
	if err != nil {
		return err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	if c.verbose {
		zc = zap.NewDevelopmentConfig()
	}
	if c.log, err = zc.Build(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if c.cpuProfile != "" {
		f, err := os.Create(c.cpuProfile)
		if err != nil {
			return err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return err
		}
		c.profile = f
	}
	return nil
}

func (c *cli) teardown() {
	if c.profile != nil {
		pprof.StopCPUProfile()
		c.profile.Close()
		c.profile = nil
	}
	_ = c.log.Sync()
}

// options returns the story options for c's flags.
func (c *cli) options() story.Options {
	return story.Options{
		OutDir:    c.outDir,
		Defaults:  c.cfg.Frame(),
		Overrides: story.Frame{Width: c.width, Height: c.height, Background: c.background},
		Logger:    c.log,
		Workers:   c.workers,
	}
}

func (c *cli) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run story.yaml...",
		Short: "Render every figure of the given documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, failed := c.readDocs(args)
			r := story.RunBatch(cmd.Context(), docs, c.options())
			if err := r.Fprint(c.stdout); err != nil {
				return err
			}
			if failed || len(r.Failed()) > 0 {
				return errFailed
			}
			return nil
		},
	}
}

// readDocs reads the documents in paths. Documents that cannot be
// read are reported and skipped.
func (c *cli) readDocs(paths []string) (docs []*story.Document, failed bool) {
	for _, path := range paths {
		doc, err := story.ReadFile(path)
		if err != nil {
			fmt.Fprintf(c.stderr, "%v\n", err)
			c.log.Error("document failed", zap.String("path", path), zap.Stringer("stage", story.Parsed), zap.Error(err))
			failed = true
			continue
		}
		docs = append(docs, doc)
	}
	return docs, failed
}

func (c *cli) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check story.yaml...",
		Short: "Check documents without loading their data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := false
			for _, path := range args {
				doc, err := story.ReadFile(path)
				if err == nil {
					err = doc.Check()
				}
				if err != nil {
					fmt.Fprintf(c.stdout, "%s: %v\n", path, err)
					failed = true
					continue
				}
				fmt.Fprintf(c.stdout, "%s: ok (%d tables, %d figures)\n", path, len(doc.Tables), len(doc.Figures))
			}
			if failed {
				return errFailed
			}
			return nil
		},
	}
}

func (c *cli) tableCmd() *cobra.Command {
	var tsv bool
	cmd := &cobra.Command{
		Use:   "table story.yaml table",
		Short: "Print one of a document's tables",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := story.ReadFile(args[0])
			if err != nil {
				return err
			}
			p := story.NewPipeline(doc, c.options())
			if err := p.Load(cmd.Context()); err != nil {
				return err
			}
			if args[1] != story.SourceTable {
				if err := p.Aggregate(); err != nil {
					return err
				}
			}
			d, err := p.Table(args[1])
			if err != nil {
				return err
			}
			if tsv {
				return d.WriteTSV(c.stdout, true)
			}
			return d.Fprint(c.stdout)
		},
	}
	cmd.Flags().BoolVar(&tsv, "tsv", false, "print tab-separated values")
	return cmd
}
