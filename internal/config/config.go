// Package config handles application configuration and setup
package config

import (
	"time"

	"github.com/retroenv/chip8vm/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// CreateEmulationOptions converts the program options to the options of the
// driving loop.
func CreateEmulationOptions(opts options.Program) options.Emulation {
	emulation := options.NewEmulation()
	emulation.CyclesPerFrame = opts.Cycles
	emulation.FrameDuration = time.Second / time.Duration(opts.Hz)
	emulation.FrameLimit = opts.Frames
	emulation.Seed = opts.Seed
	emulation.Headless = opts.Headless
	emulation.Trace = opts.Trace
	return emulation
}
