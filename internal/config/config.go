// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config reads process defaults from the environment.
package config

import (
	"fmt"
	"runtime"

	"github.com/caarlos0/env/v11"
	"github.com/kballard/go-shellquote"
	"github.com/storyplot/storyplot/render"
	"github.com/storyplot/storyplot/story"
	"go.uber.org/zap/zapcore"
)

// Config holds the settings that apply when neither a command-line
// flag nor a document sets them.
type Config struct {
	OutDir     string `env:"STORYPLOT_OUT_DIR"    envDefault:"out"`
	Width      int    `env:"STORYPLOT_WIDTH"      envDefault:"1000"`
	Height     int    `env:"STORYPLOT_HEIGHT"     envDefault:"700"`
	Background string `env:"STORYPLOT_BACKGROUND" envDefault:"#ffffff"`
	Workers    int    `env:"STORYPLOT_WORKERS"`
	LogLevel   string `env:"STORYPLOT_LOG_LEVEL"  envDefault:"info"`

	// Flags are extra command-line flags, split like a shell would
	// and placed before the real arguments.
	Flags string `env:"STORYPLOT_FLAGS"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the configuration from environ instead of the process
// environment.
func LoadFrom(environ map[string]string) (Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return c, fmt.Errorf("parse env: %w", err)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return c, fmt.Errorf("STORYPLOT_WIDTH and STORYPLOT_HEIGHT must be positive, got %dx%d", c.Width, c.Height)
	}
	if _, err := render.ParseColor(c.Background); err != nil {
		return c, fmt.Errorf("STORYPLOT_BACKGROUND: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return c, err
	}
	if c.Workers < 0 {
		return c, fmt.Errorf("STORYPLOT_WORKERS must not be negative, got %d", c.Workers)
	}
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c, nil
}

// Level returns the parsed log level.
func (c Config) Level() (zapcore.Level, error) {
	l, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return l, fmt.Errorf("STORYPLOT_LOG_LEVEL: %w", err)
	}
	return l, nil
}

// Args returns args with c's extra flags in front.
func (c Config) Args(args []string) ([]string, error) {
	extra, err := shellquote.Split(c.Flags)
	if err != nil {
		return nil, fmt.Errorf("STORYPLOT_FLAGS: %w", err)
	}
	return append(extra, args...), nil
}

// Frame returns the figure defaults c sets.
func (c Config) Frame() story.Frame {
	return story.Frame{Width: c.Width, Height: c.Height, Background: c.Background}
}
