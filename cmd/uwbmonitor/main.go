package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	configPath string
	logLevel   string
	logFormat  string

	baudRate     int
	readTimeout  time.Duration
	outputPath   string
	outputFormat string
	listenAddr   string
	colorMode    string

	replayFormat string
)

var rootCmd = &cobra.Command{
	Use:   "uwbmonitor",
	Short: "UWB scanner monitor",
	Long: `uwbmonitor reads the serial console of a UWB scanner board and renders the
JSON records embedded in its output (device_found, status, error) next to the
board's plain log text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var monitorCmd = &cobra.Command{
	Use:   "monitor [port]",
	Short: "Read and render a live serial console",
	Long: `Open the scanner's serial port and render every line it prints.

Plain log text is printed as-is. JSON records are decoded and rendered; records
that fail to decode are printed verbatim. Settings are taken from flags, then
UWBMON_* environment variables, then the --config file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMonitor,
}

var replayCmd = &cobra.Command{
	Use:   "replay [file]",
	Short: "Render a captured console log",
	Long: `Feed a capture through the same pipeline as a live port. The capture is
either a plain log (one line per console line) or an outputlog file written by
"monitor --output-format outputlog". Reads stdin when file is omitted or "-".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Args:  cobra.NoArgs,
	RunE:  runPorts,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "uwbmonitor", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Diagnostic log level (trace, debug, info, warn, error, off)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Diagnostic log format (console or json)")

	monitorCmd.Flags().IntVarP(&baudRate, "baudrate", "b", 115200, "Baud rate")
	monitorCmd.Flags().DurationVar(&readTimeout, "read-timeout", time.Second, "Serial read timeout")
	monitorCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Log raw lines to this file")
	monitorCmd.Flags().StringVar(&outputFormat, "output-format", "plain", "Raw log format (plain or outputlog)")
	monitorCmd.Flags().StringVar(&listenAddr, "listen", "", "Serve the live feed over HTTP on this address (e.g. localhost:8080)")
	monitorCmd.Flags().StringVar(&colorMode, "color", "auto", "Colour output (auto, always, never)")

	replayCmd.Flags().StringVar(&replayFormat, "format", "plain", "Capture format (plain or outputlog)")
	replayCmd.Flags().StringVar(&listenAddr, "listen", "", "Serve the replayed feed over HTTP on this address")
	replayCmd.Flags().StringVar(&colorMode, "color", "auto", "Colour output (auto, always, never)")

	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
