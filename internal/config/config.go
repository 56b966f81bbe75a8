// Package config handles meshproc configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ttzck/gm-meshproc/pkg/decimate"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all settings of the tools.
type Config struct {
	Decimation DecimationConfig `yaml:"decimation"`
	Viewer     ViewerConfig     `yaml:"viewer"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DecimationConfig holds simplification settings.
type DecimationConfig struct {
	TargetPercent float64 `yaml:"target_percent"` // Vertices to keep, in percent
	CostMode      string  `yaml:"cost_mode"`      // "target" or "minimizer"
	MaxError      float64 `yaml:"max_error"`      // 0 disables the limit
	KeepPositions bool    `yaml:"keep_positions"` // Skip the minimizer pass
	Workers       int     `yaml:"workers"`        // 0 means GOMAXPROCS
}

// ViewerConfig holds window and rendering settings.
type ViewerConfig struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	VSync      bool       `yaml:"vsync"`
	Wireframe  bool       `yaml:"wireframe"`
	FOV        float32    `yaml:"fov"` // Vertical field of view in degrees
	Background [3]float32 `yaml:"background"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Decimation: DecimationConfig{
			TargetPercent: 10,
			CostMode:      decimate.CostAtTarget.String(),
		},
		Viewer: ViewerConfig{
			Width:      1280,
			Height:     720,
			VSync:      true,
			Wireframe:  true,
			FOV:        45,
			Background: [3]float32{0.12, 0.12, 0.14},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports the first out-of-range setting.
func (c *Config) Validate() error {
	d := c.Decimation
	if d.TargetPercent <= 0 || d.TargetPercent > 100 {
		return fmt.Errorf("%w: decimation.target_percent %v not in (0, 100]", ErrInvalidConfig, d.TargetPercent)
	}
	if _, err := decimate.ParseCostMode(d.CostMode); err != nil {
		return fmt.Errorf("%w: decimation.cost_mode: %v", ErrInvalidConfig, err)
	}
	if d.MaxError < 0 {
		return fmt.Errorf("%w: decimation.max_error is negative", ErrInvalidConfig)
	}
	if d.Workers < 0 {
		return fmt.Errorf("%w: decimation.workers is negative", ErrInvalidConfig)
	}
	v := c.Viewer
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("%w: viewer size %dx%d", ErrInvalidConfig, v.Width, v.Height)
	}
	if v.FOV <= 0 || v.FOV >= 180 {
		return fmt.Errorf("%w: viewer.fov %v not in (0, 180)", ErrInvalidConfig, v.FOV)
	}
	return nil
}

// Options converts the decimation settings for the decimate package.
func (d DecimationConfig) Options(log *zap.Logger) (decimate.Options, error) {
	mode, err := decimate.ParseCostMode(d.CostMode)
	if err != nil {
		return decimate.Options{}, err
	}
	return decimate.Options{
		CostMode:      mode,
		MaxError:      d.MaxError,
		KeepPositions: d.KeepPositions,
		Workers:       d.Workers,
		Logger:        log,
	}, nil
}
