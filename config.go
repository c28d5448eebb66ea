package vlist

import (
	"github.com/agiangrant/vlist/config"
	"github.com/agiangrant/vlist/viewport"
)

// Config is the settings file layout.
// This is a re-export of config.Config for consumer convenience.
type Config = config.Config

// Behavior selects instant or animated scrolling.
// This is a re-export of viewport.Behavior for consumer convenience.
type Behavior = viewport.Behavior

const (
	// Instant jumps straight to the target position.
	Instant = viewport.Instant

	// Smooth animates to the target with the configured easing.
	Smooth = viewport.Smooth
)

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig reads a vlist.toml or vlist.yaml file over the defaults.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}
