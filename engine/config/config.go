// Package config holds the window and renderer settings an application starts with, optionally read
// from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/kaffee/common"
	"github.com/Carmen-Shannon/kaffee/engine/batch"
	"github.com/Carmen-Shannon/kaffee/engine/renderer"
	"github.com/Carmen-Shannon/kaffee/engine/texture"
	"gopkg.in/yaml.v3"
)

// Settings configures the window, the swapchain and the default batch.
type Settings struct {
	Title     string `yaml:"title"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Resizable bool   `yaml:"resizable"`
	VSync     bool   `yaml:"vsync"`

	// ClearColor is written as {r, g, b, a} with channels in [0, 1].
	ClearColor common.Color `yaml:"clear_color"`

	// MaxQuads is the per-frame quad capacity of the batch pipeline and the default batch.
	MaxQuads int `yaml:"max_quads"`

	// Filter is "nearest" or "linear".
	Filter string `yaml:"filter"`

	SoftwareRenderer bool `yaml:"software_renderer"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the settings used when no file is given.
func Default() Settings {
	return Settings{
		Title:      "kaffee",
		Width:      1024,
		Height:     768,
		Resizable:  false,
		VSync:      true,
		ClearColor: common.Black,
		MaxQuads:   batch.DefaultMaxQuads,
		Filter:     texture.FilterNearest.String(),
		LogLevel:   "info",
	}
}

// Load reads a YAML settings file on top of Default. Keys missing from the file keep their default;
// unknown keys are an error.
//
// Parameters:
//   - path: the settings file
//
// Returns:
//   - Settings: the validated settings
//   - error: wraps common.ErrIO if the file cannot be read, or a parse or validation error
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %v", common.ErrIO, err)
	}
	s, err := Parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	common.Logger().Debug("loaded settings", "path", path)
	return s, nil
}

// Parse decodes YAML settings on top of Default and validates the result. Empty input yields Default.
func Parse(data []byte) (Settings, error) {
	s := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate reports the first setting that cannot be used.
func (s Settings) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", s.Width, s.Height)
	}
	if s.MaxQuads < 1 || s.MaxQuads > batch.MaxQuadLimit {
		return fmt.Errorf("max_quads must be in [1, %d], got %d", batch.MaxQuadLimit, s.MaxQuads)
	}
	for _, ch := range s.ClearColor.Array4() {
		if ch < 0 || ch > 1 {
			return fmt.Errorf("clear_color channels must be in [0, 1], got %+v", s.ClearColor)
		}
	}
	if _, err := texture.ParseFilterMode(s.Filter); err != nil {
		return err
	}
	if _, err := s.Level(); err != nil {
		return err
	}
	return nil
}

// FilterMode returns the parsed texture filter. Invalid values fall back to nearest.
func (s Settings) FilterMode() texture.FilterMode {
	f, _ := texture.ParseFilterMode(s.Filter)
	return f
}

// PresentMode maps VSync onto the renderer present mode.
func (s Settings) PresentMode() renderer.PresentMode {
	if s.VSync {
		return renderer.PresentModeVSync
	}
	return renderer.PresentModeUncapped
}

// Level parses LogLevel. An empty level is info.
func (s Settings) Level() (slog.Level, error) {
	var level slog.Level
	if s.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
