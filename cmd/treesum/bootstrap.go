package main

import (
	"github.com/jamesainslie/treesum/pkg/treesum/config"
	"github.com/jamesainslie/treesum/pkg/treesum/logging"
	"github.com/jamesainslie/treesum/pkg/treesum/types"
)

// initLogging starts file logging from the loaded configuration.
// --verbose mirrors debug records to stderr.
func initLogging(c *config.Config) error {
	consoleLevel := ""
	if getVerbose() && !getQuiet() {
		consoleLevel = "debug"
	}

	level := c.Logging.Level
	components := c.Logging.Components
	if getVerbose() {
		level = "debug"
		components = nil
	}

	return logging.Init(logging.Config{
		Level:        level,
		Path:         c.Logging.Path,
		Rotation:     parseRotationConfig(c.Logging.Rotation),
		Components:   components,
		ConsoleLevel: consoleLevel,
	})
}

// parseRotationConfig converts the human-readable max_size. An empty or
// invalid size falls back to the default.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	out := logging.RotationConfig{
		MaxSize:    logging.DefaultRotationConfig().MaxSize,
		MaxAge:     rc.MaxAge,
		MaxBackups: rc.MaxBackups,
		Daily:      rc.Daily,
	}

	if rc.MaxSize != "" {
		if size, err := types.ParseSize(rc.MaxSize); err == nil && size > 0 {
			out.MaxSize = size
		}
	}

	return out
}
