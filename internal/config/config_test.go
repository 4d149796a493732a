// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zapcore"
)

func TestDefaults(t *testing.T) {
	c, err := LoadFrom(map[string]string{})
	if err != nil {
		t.Fatal(err)
	}
	want := Config{
		OutDir:     "out",
		Width:      1000,
		Height:     700,
		Background: "#ffffff",
		Workers:    runtime.GOMAXPROCS(0),
		LogLevel:   "info",
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("defaults (-want +got):\n%s", diff)
	}
}

func TestEnvironment(t *testing.T) {
	c, err := LoadFrom(map[string]string{
		"STORYPLOT_OUT_DIR":    "/tmp/figs",
		"STORYPLOT_WIDTH":      "640",
		"STORYPLOT_WORKERS":    "3",
		"STORYPLOT_LOG_LEVEL":  "debug",
		"STORYPLOT_BACKGROUND": "#000",
		"STORYPLOT_FLAGS":      `--out "my figs" -v`,
	})
	if err != nil {
		t.Fatal(err)
	}
	if c.OutDir != "/tmp/figs" || c.Width != 640 || c.Height != 700 || c.Workers != 3 {
		t.Errorf("config = %+v", c)
	}
	if l, err := c.Level(); err != nil || l != zapcore.DebugLevel {
		t.Errorf("Level = %v, %v", l, err)
	}
	args, err := c.Args([]string{"run", "a.yaml"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"--out", "my figs", "-v", "run", "a.yaml"}, args); diff != "" {
		t.Errorf("args (-want +got):\n%s", diff)
	}
	if f := c.Frame(); f.Width != 640 || f.Background != "#000" {
		t.Errorf("frame = %+v", f)
	}
}

func TestBadEnvironment(t *testing.T) {
	for _, environ := range []map[string]string{
		{"STORYPLOT_WIDTH": "wide"},
		{"STORYPLOT_HEIGHT": "0"},
		{"STORYPLOT_BACKGROUND": "plaid"},
		{"STORYPLOT_LOG_LEVEL": "chatty"},
		{"STORYPLOT_WORKERS": "-1"},
	} {
		if _, err := LoadFrom(environ); err == nil {
			t.Errorf("%v accepted", environ)
		}
	}
	c := Config{Flags: `--out "unterminated`}
	if _, err := c.Args(nil); err == nil {
		t.Errorf("unterminated quote accepted")
	}
}
