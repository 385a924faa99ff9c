// Package config loads pshell's environment-derived configuration.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Env holds every setting pshell reads from its environment.
type Env struct {
	// HistFile is the history file the driver loads at startup and saves to
	// on exit. Empty disables both; `history -r` always takes its own path.
	HistFile string `envconfig:"HISTFILE" default:""`
	// HistSize caps how many entries History.Save keeps once saved and
	// unsaved are merged. Zero means unbounded.
	HistSize int `envconfig:"HISTSIZE" default:"1000"`
	// NoColor disables ANSI coloring in debug log output regardless of
	// terminal detection.
	NoColor bool `envconfig:"NO_COLOR" default:"false"`
	// Debug turns on the internal/shlog debug handler.
	Debug bool `envconfig:"DEBUG" default:"false"`
}

const namespace = "PSHELL"

// Load reads Env from the process environment.
func Load() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}
