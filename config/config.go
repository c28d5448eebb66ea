// Package config loads vlist settings from vlist.toml or vlist.yaml.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/agiangrant/vlist/frame"
	"github.com/agiangrant/vlist/layout"
	"github.com/agiangrant/vlist/logger"
	"github.com/agiangrant/vlist/momentum"
	"github.com/agiangrant/vlist/viewport"
)

// FileNames are the config files FindFile looks for, in order.
var FileNames = []string{"vlist.toml", "vlist.yaml", "vlist.yml"}

var (
	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("invalid config")
	// ErrNotFound is returned by FindFile when no config file exists.
	ErrNotFound = errors.New("no vlist config found")
)

// Config is the full settings file.
type Config struct {
	Layout   LayoutConfig   `toml:"layout" yaml:"layout"`
	Viewport ViewportConfig `toml:"viewport" yaml:"viewport"`
	Momentum MomentumConfig `toml:"momentum" yaml:"momentum"`
	Loop     LoopConfig     `toml:"loop" yaml:"loop"`
	Log      LogConfig      `toml:"log" yaml:"log"`
}

type LayoutConfig struct {
	// Placeholder height of unmeasured items
	DefaultItemHeight float64 `toml:"default_item_height" yaml:"default_item_height"`
	Spacing           float64 `toml:"spacing" yaml:"spacing"`
	// Scrollable width; 0 scrolls vertically only
	ContentWidth float64 `toml:"content_width" yaml:"content_width"`
	// Items measured per frame before self-tuning
	BatchSize     int `toml:"batch_size" yaml:"batch_size"`
	BatchBudgetMs int `toml:"batch_budget_ms" yaml:"batch_budget_ms"`
}

type ViewportConfig struct {
	Overscan         int    `toml:"overscan" yaml:"overscan"`
	ScrollDebounceMs int    `toml:"scroll_debounce_ms" yaml:"scroll_debounce_ms"`
	SilentWindowMs   int    `toml:"silent_window_ms" yaml:"silent_window_ms"`
	Passive          bool   `toml:"passive" yaml:"passive"`
	HideScrollbar    bool   `toml:"hide_scrollbar" yaml:"hide_scrollbar"`
	CenterItems      bool   `toml:"center_items" yaml:"center_items"`
	SmoothScrollMs   int    `toml:"smooth_scroll_ms" yaml:"smooth_scroll_ms"`
	Easing           string `toml:"easing" yaml:"easing"`
}

type MomentumConfig struct {
	Friction    float64 `toml:"friction" yaml:"friction"`
	MinVelocity float64 `toml:"min_velocity" yaml:"min_velocity"`
	FrameMs     float64 `toml:"frame_ms" yaml:"frame_ms"`
}

type LoopConfig struct {
	TargetFPS int `toml:"target_fps" yaml:"target_fps"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Default returns the built-in settings.
func Default() Config {
	vp := viewport.DefaultOptions()
	mo := momentum.DefaultOptions()
	sc := viewport.DefaultScrollConfig()
	return Config{
		Layout: LayoutConfig{
			DefaultItemHeight: vp.DefaultItemHeight,
			BatchSize:         layout.DefaultBatchSize,
			BatchBudgetMs:     int(layout.DefaultBatchBudget / time.Millisecond),
		},
		Viewport: ViewportConfig{
			Overscan:         vp.Overscan,
			ScrollDebounceMs: int(vp.ScrollDebounce / time.Millisecond),
			SilentWindowMs:   int(vp.SilentWindow / time.Millisecond),
			SmoothScrollMs:   int(sc.Duration / time.Millisecond),
			Easing:           "ease-out-cubic",
		},
		Momentum: MomentumConfig{
			Friction:    mo.Friction,
			MinVelocity: mo.MinVelocity,
			FrameMs:     mo.FrameMs,
		},
		Loop: LoopConfig{
			TargetFPS: frame.DefaultLoopConfig().TargetFPS,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Format is a config file encoding.
type Format int

const (
	TOML Format = iota
	YAML
)

// FormatOf picks the encoding from a file extension. Anything that is not
// .yaml or .yml is TOML.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return TOML
	}
}

// Load reads the config at path. A missing file yields the defaults.
// Settings absent from the file keep their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("failed to read %s: %w", path, err)
	}
	cfg, err := Parse(data, FormatOf(path))
	if err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over the defaults and validates the result.
func Parse(data []byte, format Format) (Config, error) {
	cfg := Default()
	var err error
	switch format {
	case YAML:
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = toml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Default(), err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg to path in the encoding its extension selects.
func Save(path string, cfg Config) error {
	var (
		data []byte
		err  error
	)
	switch FormatOf(path) {
	case YAML:
		data, err = yaml.Marshal(cfg)
	default:
		data, err = toml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// FindFile walks up from dir looking for one of FileNames.
func FindFile(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Validate reports every nonsensical setting, each wrapped in ErrInvalid.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}
	check(c.Layout.DefaultItemHeight > 0, "layout.default_item_height must be positive, got %v", c.Layout.DefaultItemHeight)
	check(c.Layout.Spacing >= 0, "layout.spacing must not be negative, got %v", c.Layout.Spacing)
	check(c.Layout.ContentWidth >= 0, "layout.content_width must not be negative, got %v", c.Layout.ContentWidth)
	check(c.Layout.BatchSize >= 1, "layout.batch_size must be at least 1, got %d", c.Layout.BatchSize)
	check(c.Layout.BatchBudgetMs > 0, "layout.batch_budget_ms must be positive, got %d", c.Layout.BatchBudgetMs)
	check(c.Viewport.Overscan >= 0, "viewport.overscan must not be negative, got %d", c.Viewport.Overscan)
	check(c.Viewport.ScrollDebounceMs > 0, "viewport.scroll_debounce_ms must be positive, got %d", c.Viewport.ScrollDebounceMs)
	check(c.Viewport.SilentWindowMs > 0, "viewport.silent_window_ms must be positive, got %d", c.Viewport.SilentWindowMs)
	check(c.Viewport.SmoothScrollMs >= 0, "viewport.smooth_scroll_ms must not be negative, got %d", c.Viewport.SmoothScrollMs)
	check(viewport.EasingByName(c.Viewport.Easing) != nil, "viewport.easing %q is unknown", c.Viewport.Easing)
	check(c.Momentum.Friction > 0 && c.Momentum.Friction < 1, "momentum.friction must be in (0, 1), got %v", c.Momentum.Friction)
	check(c.Momentum.MinVelocity > 0, "momentum.min_velocity must be positive, got %v", c.Momentum.MinVelocity)
	check(c.Momentum.FrameMs > 0, "momentum.frame_ms must be positive, got %v", c.Momentum.FrameMs)
	check(c.Loop.TargetFPS > 0 && c.Loop.TargetFPS <= 1000, "loop.target_fps must be in [1, 1000], got %d", c.Loop.TargetFPS)
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: log.level: %w", ErrInvalid, err))
	}
	check(c.Log.Format == "text" || c.Log.Format == "json", "log.format must be text or json, got %q", c.Log.Format)
	return errors.Join(errs...)
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// ViewportOptions converts the settings for viewport.New.
func (c Config) ViewportOptions(log logger.Logger) viewport.Options {
	return viewport.Options{
		DefaultItemHeight: c.Layout.DefaultItemHeight,
		Overscan:          c.Viewport.Overscan,
		Spacing:           c.Layout.Spacing,
		ContentWidth:      c.Layout.ContentWidth,
		BatchSize:         c.Layout.BatchSize,
		BatchBudget:       ms(c.Layout.BatchBudgetMs),
		ScrollDebounce:    ms(c.Viewport.ScrollDebounceMs),
		SilentWindow:      ms(c.Viewport.SilentWindowMs),
		Passive:           c.Viewport.Passive,
		HideScrollbar:     c.Viewport.HideScrollbar,
		CenterItems:       c.Viewport.CenterItems,
		Momentum:          c.MomentumOptions(),
		Logger:            log,
	}
}

// MomentumOptions converts the touch settings.
func (c Config) MomentumOptions() momentum.Options {
	opts := momentum.DefaultOptions()
	opts.Friction = c.Momentum.Friction
	opts.MinVelocity = c.Momentum.MinVelocity
	opts.FrameMs = c.Momentum.FrameMs
	return opts
}

// LayoutOptions converts the measurement settings for a standalone
// dynamic pass.
func (c Config) LayoutOptions(log logger.Logger) layout.DynamicOptions {
	return layout.DynamicOptions{
		BatchSize:   c.Layout.BatchSize,
		BatchBudget: ms(c.Layout.BatchBudgetMs),
		Logger:      log,
	}
}

// ScrollConfig converts the smooth-scroll settings.
func (c Config) ScrollConfig() viewport.ScrollConfig {
	return viewport.ScrollConfig{
		Duration: ms(c.Viewport.SmoothScrollMs),
		Easing:   viewport.EasingByName(c.Viewport.Easing),
	}
}

// LoopConfig converts the frame loop settings.
func (c Config) LoopConfig(log logger.Logger) frame.LoopConfig {
	return frame.LoopConfig{TargetFPS: c.Loop.TargetFPS, Logger: log}
}

// NewLogger builds the logger the settings describe, writing to w.
func (c Config) NewLogger(w io.Writer) (logger.Logger, error) {
	level, err := logger.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	typ := logger.TypeText
	if c.Log.Format == "json" {
		typ = logger.TypeJSON
	}
	return logger.New(logger.Options{Buffer: w, Level: level, Type: typ}), nil
}
