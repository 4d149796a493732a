// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/storyplot/storyplot/internal/config"
	"go.uber.org/zap"
)

var penguins = filepath.Join("..", "story", "testdata", "penguins.yaml")

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cfg, err := config.LoadFrom(map[string]string{"STORYPLOT_LOG_LEVEL": "error"})
	if err != nil {
		t.Fatal(err)
	}
	var out, errOut bytes.Buffer
	root := newRoot(cfg, &out, &errOut)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	out, _, err := execute(t, "run", "--out", dir, "--width", "300", penguins)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	for _, name := range []string{"overview.png", "islands.svg"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
		if !strings.Contains(out, filepath.Join(dir, name)) {
			t.Errorf("report does not mention %s:\n%s", name, out)
		}
	}
	svg, err := os.ReadFile(filepath.Join(dir, "islands.svg"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte(`width="300"`)) {
		t.Errorf("--width did not override the figure width")
	}
}

func TestRunCommandFailures(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("source: {path: nowhere.csv}\nfigures: [{name: f, panels: [{name: p, layers: [{geometry: point, x: a, y: b}]}]}]\n"), 0o666); err != nil {
		t.Fatal(err)
	}
	out, stderr, err := execute(t, "run", "--out", dir, bad, filepath.Join(dir, "missing.yaml"), penguins)
	if !errors.Is(err, errFailed) {
		t.Fatalf("run: got %v, want errFailed", err)
	}
	if !strings.Contains(stderr, "missing.yaml") {
		t.Errorf("unreadable document not reported: %q", stderr)
	}
	// The good document still rendered.
	if _, err := os.Stat(filepath.Join(dir, "overview.png")); err != nil {
		t.Errorf("good document: %v", err)
	}
	if !strings.Contains(out, "error: ") {
		t.Errorf("report does not show the failure:\n%s", out)
	}
}

func TestCheckCommand(t *testing.T) {
	out, _, err := execute(t, "check", penguins)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	if !strings.Contains(out, "ok (5 tables, 2 figures)") {
		t.Errorf("check output = %q", out)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("source: {path: a.csv}\nfigures: [{name: f}]\n"), 0o666); err != nil {
		t.Fatal(err)
	}
	if out, _, err := execute(t, "check", bad); !errors.Is(err, errFailed) || !strings.Contains(out, "no panels") {
		t.Errorf("check bad: %v\n%s", err, out)
	}
}

func TestTableCommand(t *testing.T) {
	out, _, err := execute(t, "table", "--tsv", penguins, "by_island")
	if err != nil {
		t.Fatal(err)
	}
	if want := "island\tn\nBiscoe\t6\nOther\t6\n"; out != want {
		t.Errorf("table = %q, want %q", out, want)
	}

	out, _, err = execute(t, "table", penguins, "source")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Chinstrap") {
		t.Errorf("source table missing rows:\n%s", out)
	}

	if _, _, err := execute(t, "table", penguins, "nope"); err == nil {
		t.Errorf("unknown table succeeded")
	}
}

func TestWatchRunTargets(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{})
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	c := &cli{cfg: cfg, stdout: &out, stderr: &out, outDir: t.TempDir()}
	c.log = zap.NewNop()
	targets := c.watchRun(context.Background(), penguins)
	for _, rel := range []string{penguins, filepath.Join("..", "story", "testdata", "penguins.csv")} {
		abs, _ := filepath.Abs(rel)
		if !targets[abs] {
			t.Errorf("not watching %s (targets %v)", abs, targets)
		}
	}
}
