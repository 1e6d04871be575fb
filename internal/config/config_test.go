package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "uwbmonitor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, "/dev/ttyACM0", cfg.Port)
	require.Equal(t, 115200, cfg.BaudRate)
	require.Equal(t, time.Second, cfg.ReadTimeout)
	require.Equal(t, "plain", cfg.OutputFormat)
	require.Equal(t, ColorAuto, cfg.Color)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
port: /dev/ttyUSB1
baudrate: 921600
read_timeout: 250ms
output: capture.log
output_format: outputlog
listen: localhost:8080
color: never
log_level: debug
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB1", cfg.Port)
	require.Equal(t, 921600, cfg.BaudRate)
	require.Equal(t, 250*time.Millisecond, cfg.ReadTimeout)
	require.Equal(t, "capture.log", cfg.Output)
	require.Equal(t, "outputlog", cfg.OutputFormat)
	require.Equal(t, "localhost:8080", cfg.Listen)
	require.Equal(t, ColorNever, cfg.Color)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "console", cfg.LogFormat)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile_Empty(t *testing.T) {
	cfg, err := LoadFile(writeFile(t, ""))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadFile_UnknownKey(t *testing.T) {
	_, err := LoadFile(writeFile(t, "baud: 9600\n"))
	require.Error(t, err)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"UWBMON_PORT":          "/dev/ttyACM1",
		"UWBMON_BAUDRATE":      "9600",
		"UWBMON_READ_TIMEOUT":  "2s",
		"UWBMON_OUTPUT":        "raw.log",
		"UWBMON_OUTPUT_FORMAT": "outputlog",
		"UWBMON_LISTEN":        ":9000",
		"UWBMON_COLOR":         "always",
		"UWBMON_LOG_LEVEL":     "warn",
		"UWBMON_LOG_FORMAT":    "json",
		"UNRELATED":            "x",
	}))
	require.NoError(t, err)
	require.Equal(t, Config{
		Port:         "/dev/ttyACM1",
		BaudRate:     9600,
		ReadTimeout:  2 * time.Second,
		Output:       "raw.log",
		OutputFormat: "outputlog",
		Listen:       ":9000",
		Color:        ColorAlways,
		LogLevel:     "warn",
		LogFormat:    "json",
	}, cfg)
}

func TestApplyEnv_BlankValuesIgnored(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{"UWBMON_PORT": "  "})))
	require.Equal(t, Default(), cfg)
}

func TestApplyEnv_Invalid(t *testing.T) {
	cfg := Default()
	require.Error(t, cfg.ApplyEnv(envMap(map[string]string{"UWBMON_BAUDRATE": "fast"})))

	cfg = Default()
	require.Error(t, cfg.ApplyEnv(envMap(map[string]string{"UWBMON_READ_TIMEOUT": "soon"})))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Port = "" }},
		{"zero baud", func(c *Config) { c.BaudRate = 0 }},
		{"zero timeout", func(c *Config) { c.ReadTimeout = 0 }},
		{"bad output format", func(c *Config) { c.OutputFormat = "csv" }},
		{"bad color", func(c *Config) { c.Color = "sometimes" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestUseColor(t *testing.T) {
	cfg := Default()
	require.True(t, cfg.UseColor(true))
	require.False(t, cfg.UseColor(false))

	cfg.Color = ColorAlways
	require.True(t, cfg.UseColor(false))

	cfg.Color = ColorNever
	require.False(t, cfg.UseColor(true))
}
