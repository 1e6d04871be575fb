// Package config holds the monitor settings. Values come from built-in
// defaults, an optional YAML file and UWBMON_* environment variables, in that
// order of increasing precedence. Command-line flags are applied last by the
// caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"uwbmonitor/pkg/rawlog"

	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces the environment variables read by ApplyEnv.
const EnvPrefix = "UWBMON_"

// Colour modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config is the full set of monitor settings.
type Config struct {
	Port         string        `yaml:"port"`
	BaudRate     int           `yaml:"baudrate"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	Output       string        `yaml:"output"`
	OutputFormat string        `yaml:"output_format"`
	Listen       string        `yaml:"listen"`
	Color        string        `yaml:"color"`
	LogLevel     string        `yaml:"log_level"`
	LogFormat    string        `yaml:"log_format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:         "/dev/ttyACM0",
		BaudRate:     115200,
		ReadTimeout:  time.Second,
		OutputFormat: string(rawlog.FormatPlain),
		Color:        ColorAuto,
		LogLevel:     "info",
		LogFormat:    "console",
	}
}

// LoadFile reads a YAML config file over the defaults. Unknown keys are an
// error.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from UWBMON_* variables found by lookup.
// os.LookupEnv is the usual lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("PORT"); ok {
		c.Port = v
	}
	if v, ok := get("BAUDRATE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sBAUDRATE %q: %w", EnvPrefix, v, err)
		}
		c.BaudRate = n
	}
	if v, ok := get("READ_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sREAD_TIMEOUT %q: %w", EnvPrefix, v, err)
		}
		c.ReadTimeout = d
	}
	if v, ok := get("OUTPUT"); ok {
		c.Output = v
	}
	if v, ok := get("OUTPUT_FORMAT"); ok {
		c.OutputFormat = v
	}
	if v, ok := get("LISTEN"); ok {
		c.Listen = v
	}
	if v, ok := get("COLOR"); ok {
		c.Color = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		c.LogFormat = v
	}
	return nil
}

// Validate checks values that would otherwise fail late, after the port is
// already open.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("serial port must not be empty")
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.BaudRate)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout %s", c.ReadTimeout)
	}
	if _, err := rawlog.ParseFormat(c.OutputFormat); err != nil {
		return err
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid color mode %q (want auto, always or never)", c.Color)
	}
	return nil
}

// UseColor resolves the colour mode. isTerminal reports whether stdout is a
// terminal and is only consulted in auto mode.
func (c Config) UseColor(isTerminal bool) bool {
	switch c.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return isTerminal
	}
}
